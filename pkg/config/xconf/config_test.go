package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeSection struct {
	Root        string        `koanf:"root"`
	MaxSpace    int64         `koanf:"max_space"`
	SweepPeriod time.Duration `koanf:"sweep_period"`
	LoadFactor  int           `koanf:"load_factor"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNew_YAML(t *testing.T) {
	path := writeFile(t, "app.yaml", `
store:
  root: /data
  max_space: 1000
  sweep_period: 250ms
`)
	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, cfg.Format())
	assert.Equal(t, path, cfg.Path())

	// 预置字段作为默认值
	s := storeSection{LoadFactor: 50}
	require.NoError(t, cfg.Unmarshal("store", &s))
	assert.Equal(t, "/data", s.Root)
	assert.Equal(t, int64(1000), s.MaxSpace)
	assert.Equal(t, 250*time.Millisecond, s.SweepPeriod)
	assert.Equal(t, 50, s.LoadFactor)
	assert.Equal(t, "/data", cfg.Client().String("store.root"))
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"空路径", "", ErrEmptyPath},
		{"未知扩展名", writeFile(t, "app.toml", "a=1"), ErrUnsupportedFormat},
		{"文件不存在", filepath.Join(t.TempDir(), "missing.yaml"), ErrLoadFailed},
		{"解析失败", writeFile(t, "bad.json", "{"), ErrParseFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.path)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewFromBytes(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"store":{"root":"/x"}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "/x", cfg.Client().String("store.root"))
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)

	empty, err := NewFromBytes(nil, FormatYAML)
	require.NoError(t, err)
	var s storeSection
	require.NoError(t, empty.Unmarshal("store", &s))
	assert.Zero(t, s)

	_, err = NewFromBytes(nil, Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	cfg, err := NewFromBytes([]byte("store:\n  max_space: [1,2]\n"), FormatYAML)
	require.NoError(t, err)
	var s storeSection
	assert.ErrorIs(t, cfg.Unmarshal("store", &s), ErrUnmarshalFailed)
}

func TestReload(t *testing.T) {
	path := writeFile(t, "app.yml", "log:\n  level: info\n")
	cfg, err := New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0600))
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "debug", cfg.Client().String("log.level"))

	require.NoError(t, os.WriteFile(path, []byte("log: [\n"), 0600))
	assert.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "debug", cfg.Client().String("log.level"), "失败的重载不影响现有配置")
}
