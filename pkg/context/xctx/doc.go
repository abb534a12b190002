// Package xctx 提供轻量级的请求上下文管理。
//
// 保存一次调用的追踪信息与来源标识，并为日志系统提供属性提取功能。
//
// # 核心功能
//
// 追踪信息（Trace）:
//   - trace_id   : 追踪标识（W3C 规范，128-bit）
//   - span_id    : 跨度标识，只读，取自 OpenTelemetry span
//   - request_id : 请求标识（HTTP 入口生成或沿用 X-Request-ID）
//
// 来源（Origin）：触发本次存储操作的入口，如 "http"、"cli"、"sweeper"、"autopurge"。
//
// 若 context 中未显式注入 trace_id，但携带了有效的 OpenTelemetry
// span，[TraceID] 会回退到 span context 中的值。
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：缺失时返回零值
//	EnsureXxx(ctx)         - 确保存在：若已存在则返回，否则自动生成
//
// # 哨兵错误
//
//	ErrNilContext - context 为 nil
package xctx
