// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: Context 增强，注入/提取追踪信息与操作来源
package context
