// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 自动从 context 注入 trace_id、request_id、origin（EnrichHandler，默认启用）
//   - 动态级别调整（运行时热更新，配合 xconf.Watch 使用）
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后，Build 返回该错误。
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xfilestore/app.log").
//		Build()
//	defer cleanup()
//
// # 便捷属性
//
// 通用：[Err]、[Duration]、[Component]、[Operation]、[Count]。
// 存储领域：[Key]、[Bucket]、[Bytes]、[Buckets]。
// HTTP：[Method]、[Path]、[StatusCode]。
//
// # 与 *slog.Logger 互通
//
// 需要 *slog.Logger 的组件（如 xrun）可通过 [Slog] 获得共享同一 handler 的标准 logger。
package xlog
