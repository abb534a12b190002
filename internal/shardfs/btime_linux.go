//go:build linux

package shardfs

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// statx 可替换，仅用于测试。
var statx = unix.Statx

// createdAt 文件系统支持时返回 statx 的 btime，否则返回 mtime。
func createdAt(path string, info fs.FileInfo) time.Time {
	var stx unix.Statx_t
	err := statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
