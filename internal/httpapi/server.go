// Package httpapi 通过 HTTP 暴露 xfilestore 的客户端接口。
//
//	PUT    /v1/entries/{key}[?ttl=50ms|50]  201 / 400 / 409 / 507
//	GET    /v1/entries/{key}                200 / 404
//	HEAD   /v1/entries/{key}                200 / 404
//	DELETE /v1/entries/{key}                204 / 404
//	POST   /v1/purge?percent=P | ?bytes=N   200 {"released":..,"removed":..}
//	GET    /v1/stats                        200 Stats
//	GET    /v1/metrics                      200 []xmetrics.Point（配置了 reader 时）
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
	"github.com/omeyang/xfilestore/pkg/storage/xfilestore"
)

//go:generate mockgen -source=server.go -destination=mock_store_test.go -package=httpapi Store

// Store 处理器依赖的存储操作，*xfilestore.Store 满足此接口。
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) error
	SaveWithTTL(ctx context.Context, key string, r io.Reader, ttl time.Duration) error
	Read(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (xfilestore.EntryInfo, error)
	PurgeBytes(ctx context.Context, target int64) (xfilestore.PurgeResult, error)
	PurgePercent(ctx context.Context, percent float64) (xfilestore.PurgeResult, error)
	Stats() xfilestore.Stats
}

var _ Store = (*xfilestore.Store)(nil)

// ErrBadRequest 请求参数不合法。
var ErrBadRequest = errors.New("httpapi: bad request")

// Server HTTP 处理器。
type Server struct {
	store   Store
	log     xlog.Logger
	metrics sdkmetric.Reader
	mux     *http.ServeMux
	h       http.Handler
}

// Option Server 选项。
type Option func(*Server)

// WithLogger 设置日志器，nil 使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsReader 开启 GET /v1/metrics，输出 reader 的采集快照。
func WithMetricsReader(r sdkmetric.Reader) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// New 创建处理器。
func New(store Store, opts ...Option) *Server {
	s := &Server{store: store, mux: http.NewServeMux()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.log == nil {
		s.log = xlog.Default()
	}
	s.log = s.log.With(xlog.Component("httpapi"))

	s.mux.HandleFunc("PUT /v1/entries/{key}", s.handlePut)
	s.mux.HandleFunc("GET /v1/entries/{key}", s.handleGet)
	s.mux.HandleFunc("HEAD /v1/entries/{key}", s.handleHead)
	s.mux.HandleFunc("DELETE /v1/entries/{key}", s.handleDelete)
	s.mux.HandleFunc("POST /v1/purge", s.handlePurge)
	s.mux.HandleFunc("GET /v1/stats", s.handleStats)
	if s.metrics != nil {
		s.mux.HandleFunc("GET /v1/metrics", s.handleMetrics)
	}
	s.h = Middleware(s.log)(s.mux)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.h.ServeHTTP(w, r)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")

	ttl, err := parseTTL(r.URL.Query().Get("ttl"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	if ttl > 0 {
		err = s.store.SaveWithTTL(ctx, key, r.Body, ttl)
	} else {
		err = s.store.Save(ctx, key, r.Body)
	}
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.Header().Set("Location", r.URL.Path)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")

	rc, err := s.store.Read(ctx, key)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	defer rc.Close()

	// 打开后条目可能被删除或重建，长度以已打开的文件为准
	info, err := s.store.Stat(ctx, key)
	if err != nil && !errors.Is(err, xfilestore.ErrNotFound) {
		s.writeError(ctx, w, err)
		return
	}
	if f, ok := rc.(interface{ Stat() (fs.FileInfo, error) }); ok {
		if fi, err := f.Stat(); err == nil {
			info.Size = fi.Size()
		}
	}

	setEntryHeaders(w.Header(), info)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn(ctx, "stream entry aborted", xlog.Key(key), xlog.Err(err))
	}
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info, err := s.store.Stat(ctx, r.PathValue("key"))
	if err != nil {
		w.WriteHeader(statusOf(err))
		return
	}
	setEntryHeaders(w.Header(), info)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.store.Delete(ctx, r.PathValue("key")); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	percent, bytes := q.Get("percent"), q.Get("bytes")

	var (
		res xfilestore.PurgeResult
		err error
	)
	switch {
	case percent != "" && bytes != "":
		err = fmt.Errorf("%w: percent and bytes are mutually exclusive", ErrBadRequest)
	case percent != "":
		var p float64
		if p, err = strconv.ParseFloat(percent, 64); err != nil {
			err = fmt.Errorf("%w: percent: %w", ErrBadRequest, err)
			break
		}
		res, err = s.store.PurgePercent(ctx, p)
	case bytes != "":
		var n int64
		if n, err = strconv.ParseInt(bytes, 10, 64); err != nil {
			err = fmt.Errorf("%w: bytes: %w", ErrBadRequest, err)
			break
		}
		res, err = s.store.PurgeBytes(ctx, n)
	default:
		err = fmt.Errorf("%w: percent or bytes required", ErrBadRequest)
	}
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	points, err := xmetrics.Snapshot(ctx, s.metrics)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	if points == nil {
		points = []xmetrics.Point{}
	}
	s.writeJSON(ctx, w, http.StatusOK, points)
}

func setEntryHeaders(h http.Header, info xfilestore.EntryInfo) {
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if !info.Created.IsZero() {
		h.Set("Last-Modified", info.Created.UTC().Format(http.TimeFormat))
	}
	if !info.Deadline.IsZero() {
		h.Set("Expires", info.Deadline.UTC().Format(http.TimeFormat))
	}
}

// maxTTLMillis 可表示为 time.Duration 的最大毫秒数。
const maxTTLMillis = math.MaxInt64 / int64(time.Millisecond)

// parseTTL 解析 Go duration 字符串或毫秒整数，空字符串表示不过期。
func parseTTL(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		if ms <= 0 {
			return 0, fmt.Errorf("%w: ttl must be positive", ErrBadRequest)
		}
		if ms > maxTTLMillis {
			return 0, fmt.Errorf("%w: ttl %dms out of range", ErrBadRequest, ms)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: ttl: %w", ErrBadRequest, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: ttl must be positive", ErrBadRequest)
	}
	return d, nil
}

// statusOf 将存储错误映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, xfilestore.ErrInvalidKey),
		errors.Is(err, xfilestore.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, xfilestore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xfilestore.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, xfilestore.ErrOutOfCapacity):
		return http.StatusInsufficientStorage
	case errors.Is(err, xfilestore.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(ctx, "request failed", xlog.Err(err))
	}
	s.writeJSON(ctx, w, status, errorBody{Error: err.Error()})
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn(ctx, "write response failed", xlog.Err(err))
	}
}
