package xlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/omeyang/xfilestore/pkg/context/xctx"
)

// ErrNilHandler NewEnrichHandler 的 base handler 为 nil
var ErrNilHandler = errors.New("xlog: base handler is nil")

// EnrichHandler 从 context 提取 trace_id、span_id、request_id、origin 并注入日志。
//
// context 中缺少字段时不影响日志记录。
// 对其调用 WithGroup 后，注入字段会归入该 group。
type EnrichHandler struct {
	base slog.Handler
}

// NewEnrichHandler 包装 base handler。
func NewEnrichHandler(base slog.Handler) (*EnrichHandler, error) {
	if base == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{base: base}, nil
}

func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

const maxEnrichAttrs = 4

// Handle 根据 slog 契约，修改前先 Clone record。
func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf [maxEnrichAttrs]slog.Attr
	attrs := xctx.AppendLogAttrs(buf[:0], ctx)
	if len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.base.Handle(ctx, r)
}

func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{base: h.base.WithAttrs(attrs)}
}

func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{base: h.base.WithGroup(name)}
}
