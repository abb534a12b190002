//go:build darwin

package shardfs

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// createdAt 返回 Birthtimespec，读取失败时返回 mtime。
func createdAt(path string, info fs.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return info.ModTime()
	}
	return time.Unix(st.Birthtimespec.Unix())
}
