// Package xmetrics 提供统一的可观测性接口（metrics + tracing）。
//
// 业务代码只依赖 Observer/Span/Attr 接口，默认实现基于 OpenTelemetry。
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xfilestore",
//		Operation: "save",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
// 操作指标（属性 component / operation / status）：
//   - xfilestore.operation.total
//   - xfilestore.operation.duration
//
// 状态量通过 [GaugeRegistrar] 以异步 gauge 上报，如 xfilestore.space.used。
//
// [Snapshot] 将 sdk/metric Reader 的一次采集展开为 [Point] 列表，供 HTTP 输出。
package xmetrics
