package xfilestore

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveSpaced 依次写入条目，间隔足够让创建时间可区分。
func saveSpaced(t *testing.T, s *Store, keys ...string) {
	t.Helper()
	for _, key := range keys {
		mustSave(t, s, key, strings.Repeat("x", 100))
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPurgeBytes_OldestFirst(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), 1000)
	saveSpaced(t, s, "first", "second", "third")

	res, err := s.PurgeBytes(ctx, 150)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Released: 200, Removed: 2}, res)

	_, err = s.Read(ctx, "first")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Read(ctx, "second")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, readAll(t, s, "third"), 100)
	assert.EqualValues(t, 100, s.UsedSpace())
}

func TestPurgeBytes_UnregistersExpiry(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), 1000)
	require.NoError(t, s.SaveWithTTL(ctx, "ttl", strings.NewReader("abc"), time.Hour))

	res, err := s.PurgeBytes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Zero(t, s.Stats().PendingTTL)
}

func TestPurgeBytes_Bounds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), 1000)
	saveSpaced(t, s, "a", "b")

	res, err := s.PurgeBytes(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, res)

	_, err = s.PurgeBytes(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	res, err = s.PurgeBytes(ctx, 1<<40)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Released: 200, Removed: 2}, res, "目标超过已用时删除全部条目")
	assert.Zero(t, s.UsedSpace())
}

func TestPurgePercent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), 1000)
	saveSpaced(t, s, "a", "b", "c", "d")

	// ceil(1000*15/100) = 150，需删除两个条目
	res, err := s.PurgePercent(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)
	assert.EqualValues(t, 200, s.UsedSpace())

	_, err = s.PurgePercent(ctx, -5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.PurgePercent(ctx, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	res, err = s.PurgePercent(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)
	assert.Zero(t, s.Stats().Entries)
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		total   int64
		percent float64
		want    int64
	}{
		{1000, 0, 0},
		{1000, 10, 100},
		{1001, 10, 101},
		{150, 33, 50},
		{1, 1, 1},
		{99, 100, 99},
		{1 << 62, 100, 1 << 62},
		{1000, 0.5, 5},
		{1001, 0.5, 6},
		{1 << 30, 0.001, 10738},
		{3, 99.9, 3},
		{math.MaxInt64, 100, math.MaxInt64},
		{100, 0.0001, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentOf(tt.total, tt.percent), "%d * %v%%", tt.total, tt.percent)
	}
}
