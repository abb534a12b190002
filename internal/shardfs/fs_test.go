package shardfs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unlimited 不限额度。
type unlimited struct{ granted int64 }

func (u *unlimited) Acquire(n int64) int64 {
	u.granted += n
	return n
}

// limited 最多授予 left 字节。
type limited struct{ left int64 }

func (l *limited) Acquire(n int64) int64 {
	if n > l.left {
		n = l.left
	}
	l.left -= n
	return n
}

func newFS(t *testing.T, opts ...Option) *FS {
	t.Helper()
	f, err := New(filepath.Join(t.TempDir(), "buckets"), opts...)
	require.NoError(t, err)
	require.NoError(t, f.EnsureBuckets(0, 4))
	return f
}

func TestCreate_RoundTrip(t *testing.T) {
	f := newFS(t, WithChunkSize(7))
	q := &unlimited{}

	n, err := f.Create(2, "alpha", strings.NewReader("hello, shard world"), q)
	require.NoError(t, err)
	assert.EqualValues(t, 18, n)
	assert.EqualValues(t, 18, q.granted)

	r, err := f.Open(2, "alpha")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello, shard world", string(data))

	e, err := f.Stat(2, "alpha")
	require.NoError(t, err)
	assert.EqualValues(t, 18, e.Size)
	assert.Equal(t, 2, e.Bucket)
	assert.False(t, e.Created.IsZero())
}

func TestCreate_Exists(t *testing.T) {
	f := newFS(t)
	_, err := f.Create(0, "k", strings.NewReader("one"), &unlimited{})
	require.NoError(t, err)

	n, err := f.Create(0, "k", strings.NewReader("two"), &unlimited{})
	assert.ErrorIs(t, err, ErrExists)
	assert.Zero(t, n)

	r, err := f.Open(0, "k")
	require.NoError(t, err)
	defer r.Close()
	data, _ := io.ReadAll(r)
	assert.Equal(t, "one", string(data), "原文件不应被覆盖")
}

func TestCreate_QuotaExceededRemovesFile(t *testing.T) {
	f := newFS(t, WithChunkSize(4))
	q := &limited{left: 10}

	n, err := f.Create(1, "big", bytes.NewReader(make([]byte, 64)), q)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.EqualValues(t, 10, n, "已授予的字节需要返回给调用方归还")

	_, err = f.Stat(1, "big")
	assert.ErrorIs(t, err, ErrNotExist)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestCreate_ReadErrorRemovesFile(t *testing.T) {
	f := newFS(t)
	boom := io.ErrUnexpectedEOF

	_, err := f.Create(0, "broken", io.MultiReader(strings.NewReader("abc"), failingReader{boom}), &unlimited{})
	assert.ErrorIs(t, err, boom)

	_, err = f.Stat(0, "broken")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestCreate_InvalidKey(t *testing.T) {
	f := newFS(t)
	for _, key := range []string{"", ".", "..", "a/b", "nul\x00"} {
		_, err := f.Create(0, key, strings.NewReader("x"), &unlimited{})
		assert.Error(t, err, "key %q", key)
	}
}

func TestRemove(t *testing.T) {
	f := newFS(t)
	_, err := f.Create(3, "gone", strings.NewReader("12345"), &unlimited{})
	require.NoError(t, err)

	size, err := f.Remove(3, "gone")
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	_, err = f.Remove(3, "gone")
	assert.ErrorIs(t, err, ErrNotExist)

	_, err = f.Open(3, "gone")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestMove(t *testing.T) {
	f := newFS(t)
	_, err := f.Create(0, "m", strings.NewReader("data"), &unlimited{})
	require.NoError(t, err)

	require.NoError(t, f.Move(0, 3, "m"))
	_, err = f.Stat(0, "m")
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = f.Stat(3, "m")
	assert.NoError(t, err)

	// 重复迁移视为已完成
	assert.NoError(t, f.Move(0, 3, "m"))
	assert.NoError(t, f.Move(3, 3, "m"))

	assert.ErrorIs(t, f.Move(1, 2, "missing"), ErrNotExist)
}

func TestBucketsAndList(t *testing.T) {
	f := newFS(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.Root(), "tmp"), 0o750))
	require.NoError(t, os.Mkdir(filepath.Join(f.Root(), "007"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(f.Root(), "9"), nil, 0o640))

	buckets, err := f.Buckets()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, buckets)

	for _, k := range []string{"c", "a", "b"} {
		_, err := f.Create(1, k, strings.NewReader(k), &unlimited{})
		require.NoError(t, err)
	}
	_, err = f.Create(2, "z", strings.NewReader("zz"), &unlimited{})
	require.NoError(t, err)

	entries, err := f.List(1)
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
		assert.Equal(t, 1, e.Bucket)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	missing, err := f.List(99)
	require.NoError(t, err)
	assert.Empty(t, missing)

	all, err := f.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "z", all[3].Key)
	assert.EqualValues(t, 2, all[3].Size)
}

func TestDiskFree(t *testing.T) {
	free, err := DiskFree(t.TempDir())
	if err != nil {
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	assert.Positive(t, free)
}
