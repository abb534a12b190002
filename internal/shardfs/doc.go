// Package shardfs 管理分片目录中的条目文件。
//
// 布局为 <root>/<bucket>/<key>，bucket 为十进制下标。本包只负责文件级原语
// （创建、删除、打开、移动、枚举），不关心条目如何放置；容量检查通过
// [Quota] 在每个写入块之前完成。
package shardfs
