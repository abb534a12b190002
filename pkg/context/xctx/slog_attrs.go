package xctx

import (
	"context"
	"log/slog"
)

// AppendLogAttrs 将 context 中的追踪信息与来源追加到 attrs，只追加非空字段。
func AppendLogAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v := TraceID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyTraceID, v))
	}
	if v := SpanID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeySpanID, v))
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyRequestID, v))
	}
	if v := Origin(ctx); v != "" {
		attrs = append(attrs, slog.String(KeyOrigin, v))
	}
	return attrs
}
