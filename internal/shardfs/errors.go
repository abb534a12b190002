package shardfs

import "errors"

var (
	// ErrExists 目标文件已存在。
	ErrExists = errors.New("shardfs: entry exists")

	// ErrNotExist 目标文件不存在。
	ErrNotExist = errors.New("shardfs: entry does not exist")

	// ErrQuotaExceeded 写入过程中额度耗尽。
	ErrQuotaExceeded = errors.New("shardfs: quota exceeded")

	// ErrUnsupported 当前平台不支持该操作。
	ErrUnsupported = errors.New("shardfs: unsupported on this platform")
)
