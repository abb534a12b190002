// Package xfile 提供存储引擎使用的文件系统路径工具。
//
// # 名称校验
//
// [ValidateName] 校验单个路径段（条目 key、分片目录名）：非空、不含空字节、
// 不含分隔符、不是 "." 或 ".."、长度不超过 [MaxNameLen]。
// key 直接作为文件名落盘，因此所有进入分片目录的名称都必须先通过此校验。
//
// # 路径安全函数对比
//
//   - SanitizePath: 检查路径格式，防止相对路径穿越，不限制目标目录
//   - SafeJoin: 确保结果路径始终在指定的 base 目录内
//
// 路径穿越检测使用精确的路径段匹配，只有 ".." 作为独立路径段时才被视为穿越：
//
//	SafeJoin("/data", "..config")      // ✓ 合法 -> "/data/..config"
//	SafeJoin("/data", "../etc/passwd") // ✗ 拒绝 -> 路径穿越
//
// SafeJoin 不解析符号链接，返回的是"经过验证的路径字符串"，
// 检查与实际文件操作之间存在 TOCTOU 窗口。
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	if err := xfile.ValidateName(key); errors.Is(err, xfile.ErrInvalidName) {
//	    // 拒绝该 key
//	}
package xfile
