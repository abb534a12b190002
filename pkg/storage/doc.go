// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xfilestore: 本地文件存储，容量上限、按条目过期、崩溃后从磁盘恢复
//
// 设计原则：
//   - 磁盘是唯一事实来源，元数据可从磁盘重建
//   - 内置可观测性（指标、追踪）
package storage
