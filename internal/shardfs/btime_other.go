//go:build !linux && !darwin

package shardfs

import (
	"io/fs"
	"time"
)

func createdAt(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
