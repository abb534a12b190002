// Package xfilestore 提供容量受限的本地键值文件存储。
//
// 每个条目是 <root>/buckets/<bucket>/<key> 处的一个文件，bucket 由
// xxhash64(key) & (M-1) 决定。M 从 4 开始翻倍增长，上限 2^15；条目数达到
// loadFactor*M 时触发扩容。
//
// # 过期
//
// SaveWithTTL 写入的条目在截止时间后由后台清理任务删除。过期记录同时保存在
// 内存有序索引与 <root>/meta/journal.db（bbolt）中，重启后恢复。
//
// # 容量
//
// 写入按块向容量账本申请额度，额度不足时写入中止并返回 ErrOutOfCapacity，
// 已写入的部分文件会被删除。PurgeBytes 与 PurgePercent 按创建时间从旧到新
// 回收空间。
//
// # 并发
//
// 所有修改操作与每轮清理共用一把互斥锁。扩容在锁内移动全部条目，耗时与
// 条目数成正比，期间所有操作阻塞。UsedSpace、FreeSpace 等读取为原子读，
// 可能略有滞后。
//
// # 崩溃恢复
//
// Open 从磁盘重新统计条目数与已用空间，加载过期日志，若上次扩容未完成则
// 重新执行迁移，然后立即清理一轮已到期条目。同一 root 只能被一个进程打开。
package xfilestore
