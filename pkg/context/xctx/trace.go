package xctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

// TraceIDSize W3C 规范: 128-bit (16 bytes) -> 32 hex chars
const TraceIDSize = 16

// 日志属性 Key 常量，遵循 OpenTelemetry 语义约定（下划线分隔）
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyRequestID = "request_id"
	KeyOrigin    = "origin"
)

const (
	keyTraceID   = contextKey("xctx:trace_id")
	keyRequestID = contextKey("xctx:request_id")
	keyOrigin    = contextKey("xctx:origin")
)

func withValue(ctx context.Context, key contextKey, v string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, key, v), nil
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithTraceID 将 trace ID 注入 context。
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	return withValue(ctx, keyTraceID, traceID)
}

// TraceID 从 context 提取 trace ID。
//
// 优先返回显式注入的值，其次返回 OpenTelemetry span context 中的值，都不存在时返回空字符串。
func TraceID(ctx context.Context) string {
	if v := stringValue(ctx, keyTraceID); v != "" {
		return v
	}
	if ctx == nil {
		return ""
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID 返回 OpenTelemetry span context 中的 span ID，不存在返回空字符串。
func SpanID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

// WithRequestID 将 request ID 注入 context。
func WithRequestID(ctx context.Context, requestID string) (context.Context, error) {
	return withValue(ctx, keyRequestID, requestID)
}

// RequestID 从 context 提取 request ID，不存在返回空字符串。
func RequestID(ctx context.Context) string {
	return stringValue(ctx, keyRequestID)
}

// WithOrigin 记录触发操作的入口。
func WithOrigin(ctx context.Context, origin string) (context.Context, error) {
	return withValue(ctx, keyOrigin, origin)
}

// Origin 返回触发操作的入口，未设置时返回空字符串。
func Origin(ctx context.Context) string {
	return stringValue(ctx, keyOrigin)
}

// isAllZeros W3C Trace Context 规范禁止全零的 trace-id 和 span-id
func isAllZeros(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

func randomHex(size int) string {
	buf := make([]byte, size)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic("xctx: crypto/rand.Read failed: " + err.Error())
		}
		if !isAllZeros(buf) {
			return hex.EncodeToString(buf)
		}
	}
}

// GenerateTraceID 生成 32 位小写十六进制 TraceID。
//
// 熵源不可用时 panic。
func GenerateTraceID() string {
	return randomHex(TraceIDSize)
}

// EnsureTraceID 确保 context 中存在 TraceID，已有则原样返回。
func EnsureTraceID(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if TraceID(ctx) != "" {
		return ctx, nil
	}
	return WithTraceID(ctx, GenerateTraceID())
}

// EnsureRequestID 确保 context 中存在 RequestID，缺失时使用 gen 生成。
// gen 为 nil 时使用 [GenerateTraceID]。
func EnsureRequestID(ctx context.Context, gen func() string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if RequestID(ctx) != "" {
		return ctx, nil
	}
	if gen == nil {
		gen = GenerateTraceID
	}
	return WithRequestID(ctx, gen())
}
