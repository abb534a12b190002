package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xfilestore/pkg/context/xctx"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xrotate"
)

func build(t *testing.T, b *xlog.Builder) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	return logger
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug))
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, out, want)
	}
}

func TestLogger_DynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	assert.NotContains(t, buf.String(), "hidden")
	assert.False(t, logger.Enabled(ctx, xlog.LevelDebug))

	// 派生 logger 共享级别
	child := logger.With(xlog.Component("xfilestore"))
	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())

	child.Debug(ctx, "visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "component=xfilestore")
}

func TestLogger_JSONWithEnrich(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetFormat("JSON"))

	ctx, err := xctx.WithRequestID(context.Background(), "req-7")
	require.NoError(t, err)
	ctx, err = xctx.WithOrigin(ctx, "http")
	require.NoError(t, err)

	logger.Info(ctx, "saved", xlog.Key("a"), xlog.Bucket(3), xlog.Bytes(100))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "saved", rec["msg"])
	assert.Equal(t, "req-7", rec[xctx.KeyRequestID])
	assert.Equal(t, "http", rec[xctx.KeyOrigin])
	assert.Equal(t, "a", rec[xlog.KeyKey])
	assert.EqualValues(t, 3, rec[xlog.KeyBucket])
	assert.EqualValues(t, 100, rec[xlog.KeyBytes])
}

func TestLogger_EnrichDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetEnrich(false))

	ctx, err := xctx.WithRequestID(context.Background(), "req-7")
	require.NoError(t, err)
	logger.Info(ctx, "plain")
	assert.NotContains(t, buf.String(), "req-7")
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("未知格式", func(t *testing.T) {
		_, _, err := xlog.New().SetFormat("xml").Build()
		assert.Error(t, err)
	})

	t.Run("未知级别", func(t *testing.T) {
		_, _, err := xlog.New().SetLevelString("verbose").Build()
		assert.Error(t, err)
	})

	t.Run("空级别保持默认", func(t *testing.T) {
		logger, cleanup, err := xlog.New().SetLevelString("  ").Build()
		require.NoError(t, err)
		defer cleanup() //nolint:errcheck // 测试无需检查
		assert.Equal(t, xlog.LevelInfo, logger.GetLevel())
	})

	t.Run("非法轮转配置", func(t *testing.T) {
		_, _, err := xlog.New().SetRotation("").Build()
		assert.ErrorIs(t, err, xrotate.ErrEmptyFilename)
	})

	t.Run("first-error-wins", func(t *testing.T) {
		_, _, err := xlog.New().SetFormat("xml").SetLevelString("verbose").Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "format")
	})
}

func TestBuilder_Rotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, cleanup, err := xlog.New().SetRotation(file, xrotate.WithCompress(false)).Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "to file")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "cleanup 幂等")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBuilder_OnError(t *testing.T) {
	var got []error
	logger := build(t, xlog.New().SetOutput(failWriter{}).SetOnError(func(err error) {
		got = append(got, err)
		panic("callback panic is isolated")
	}))

	assert.NotPanics(t, func() { logger.Info(context.Background(), "x") })
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "disk full")
}

func TestSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))

	xlog.Slog(logger).Info("via slog", slog.Int("n", 1))
	assert.True(t, strings.Contains(buf.String(), "via slog"))

	assert.Equal(t, slog.Default(), xlog.Slog(nil))
}
