package xmetrics

import (
	"context"
	"strconv"
)

// Kind 观测跨度类型。
type Kind int

const (
	KindInternal Kind = iota
	KindServer
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "Internal"
	case KindServer:
		return "Server"
	case KindClient:
		return "Client"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Status 观测结果状态。
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Attr 观测属性。
type Attr struct {
	Key   string
	Value any
}

// SpanOptions 观测跨度的创建参数。
type SpanOptions struct {
	Component string
	Operation string
	Kind      Kind
	Attrs     []Attr
}

// Result 观测跨度结束时的结果。Status 为空时根据 Err 推导。
type Result struct {
	Status Status
	Err    error
	Attrs  []Attr
}

// Span 一次观测跨度。
type Span interface {
	End(result Result)
}

// Observer 统一观测接口。
type Observer interface {
	Start(ctx context.Context, opts SpanOptions) (context.Context, Span)
}

// GaugeRegistrar 由支持异步 gauge 的 Observer 实现。
//
// fn 在每次采集时被调用，必须并发安全且不阻塞。
type GaugeRegistrar interface {
	RegisterGauge(name, description, unit string, fn func() int64) error
}

// NoopObserver 空实现。
type NoopObserver struct{}

func (NoopObserver) Start(ctx context.Context, _ SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NoopSpan{}
}

// NoopSpan 空跨度。
type NoopSpan struct{}

func (NoopSpan) End(_ Result) {}

// Start 使用 observer 开始观测。
//
// 保证返回非 nil 的 context 和 Span：nil ctx 替换为 context.Background()，
// nil observer 或 observer 返回 nil Span 时兜底为 [NoopSpan]。
func Start(ctx context.Context, observer Observer, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NoopSpan{}
	}
	retCtx, span := observer.Start(ctx, opts)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NoopSpan{}
	}
	return retCtx, span
}

// RegisterGauge observer 实现 [GaugeRegistrar] 时注册 gauge，否则静默忽略。
func RegisterGauge(observer Observer, name, description, unit string, fn func() int64) error {
	r, ok := observer.(GaugeRegistrar)
	if !ok {
		return nil
	}
	return r.RegisterGauge(name, description, unit, fn)
}
