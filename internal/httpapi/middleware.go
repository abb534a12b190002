package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xfilestore/pkg/context/xctx"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	// OriginHTTP 经 HTTP 进入的操作来源。
	OriginHTTP = "http"

	maxRequestIDLen = 128
)

// Middleware 注入 request ID 与 trace ID（沿用请求头，缺失时生成）以及来源，
// 回写到响应头，并在请求结束时记录访问日志。
func Middleware(log xlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := fromHeaders(r)
			w.Header().Set(HeaderRequestID, xctx.RequestID(ctx))
			w.Header().Set(HeaderTraceID, xctx.TraceID(ctx))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			log.Info(ctx, "request",
				xlog.Method(r.Method),
				xlog.Path(r.URL.Path),
				xlog.StatusCode(rec.status),
				xlog.Bytes(rec.written),
				xlog.Duration(time.Since(start)),
			)
		})
	}
}

// fromHeaders 从请求头构建 context。超长或空白的 request ID 视为缺失，改用 UUID。
func fromHeaders(r *http.Request) context.Context {
	ctx := r.Context()
	if id := strings.TrimSpace(r.Header.Get(HeaderRequestID)); id != "" && len(id) <= maxRequestIDLen {
		ctx = must(xctx.WithRequestID(ctx, id))
	}
	if id := strings.TrimSpace(r.Header.Get(HeaderTraceID)); id != "" && len(id) <= maxRequestIDLen {
		ctx = must(xctx.WithTraceID(ctx, id))
	}
	ctx = must(xctx.EnsureRequestID(ctx, uuid.NewString))
	ctx = must(xctx.EnsureTraceID(ctx))
	return must(xctx.WithOrigin(ctx, OriginHTTP))
}

// must 请求 context 非 nil，xctx 的注入不会失败。
func must(ctx context.Context, err error) context.Context {
	if err != nil {
		panic(err)
	}
	return ctx
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	wrote   bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wrote = true
	n, err := r.ResponseWriter.Write(p)
	r.written += int64(n)
	return n, err
}

// Unwrap 供 http.ResponseController 访问底层 ResponseWriter。
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
