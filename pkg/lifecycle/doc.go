// Package lifecycle 提供进程生命周期相关的子包。
//
// 子包列表：
//   - xrun: 多任务编排、信号处理与周期任务
package lifecycle
