package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/storage/xfilestore"
)

func newMockServer(t *testing.T) (*Server, *MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	logger, cleanup, err := xlog.New().SetOutput(&syncBuffer{}).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return New(store, WithLogger(logger)), store
}

func TestPut_IOFailure(t *testing.T) {
	s, store := newMockServer(t)
	store.EXPECT().
		Save(gomock.Any(), "k", gomock.Any()).
		Return(fmt.Errorf("%w: %w", xfilestore.ErrIOFailure, fmt.Errorf("disk gone")))

	rec := do(s, http.MethodPut, "/v1/entries/k", strings.NewReader("x"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "io failure")
}

func TestPut_TTLPassedThrough(t *testing.T) {
	s, store := newMockServer(t)
	store.EXPECT().
		SaveWithTTL(gomock.Any(), "k", gomock.Any(), 1500*time.Millisecond).
		Return(nil)

	rec := do(s, http.MethodPut, "/v1/entries/k?ttl=1500", strings.NewReader("x"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGet_NotFound(t *testing.T) {
	s, store := newMockServer(t)
	store.EXPECT().Read(gomock.Any(), "k").Return(nil, xfilestore.ErrNotFound)

	rec := do(s, http.MethodGet, "/v1/entries/k", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGet_LengthFromOpenedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)

	s, store := newMockServer(t)
	gomock.InOrder(
		store.EXPECT().Read(gomock.Any(), "k").Return(f, nil),
		// 打开之后条目被替换为更长的内容
		store.EXPECT().Stat(gomock.Any(), "k").Return(xfilestore.EntryInfo{Key: "k", Size: 10}, nil),
	)

	rec := do(s, http.MethodGet, "/v1/entries/k", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
	assert.Equal(t, "old", rec.Body.String())
}

func TestGet_DeletedAfterOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)

	s, store := newMockServer(t)
	gomock.InOrder(
		store.EXPECT().Read(gomock.Any(), "k").Return(f, nil),
		store.EXPECT().Stat(gomock.Any(), "k").Return(xfilestore.EntryInfo{}, xfilestore.ErrNotFound),
	)

	rec := do(s, http.MethodGet, "/v1/entries/k", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Header().Get("Last-Modified"))
	assert.Equal(t, "data", rec.Body.String())
}

func TestPurge_PercentPassedThrough(t *testing.T) {
	s, store := newMockServer(t)
	store.EXPECT().
		PurgePercent(gomock.Any(), 0.5).
		Return(xfilestore.PurgeResult{Released: 250, Removed: 3}, nil)

	rec := do(s, http.MethodPost, "/v1/purge?percent=0.5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res xfilestore.PurgeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, xfilestore.PurgeResult{Released: 250, Removed: 3}, res)
}

func TestDelete_Closed(t *testing.T) {
	s, store := newMockServer(t)
	store.EXPECT().Delete(gomock.Any(), "k").Return(xfilestore.ErrClosed)

	rec := do(s, http.MethodDelete, "/v1/entries/k", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
