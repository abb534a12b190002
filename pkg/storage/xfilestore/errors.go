package xfilestore

import "errors"

var (
	// ErrDuplicateKey key 已存在。
	ErrDuplicateKey = errors.New("xfilestore: duplicate key")

	// ErrOutOfCapacity 容量不足，写入已中止。
	ErrOutOfCapacity = errors.New("xfilestore: out of capacity")

	// ErrNotFound key 不存在。
	ErrNotFound = errors.New("xfilestore: not found")

	// ErrIOFailure 底层文件或日志操作失败。
	ErrIOFailure = errors.New("xfilestore: io failure")

	// ErrInvalidKey key 不是合法的单段文件名。
	ErrInvalidKey = errors.New("xfilestore: invalid key")

	// ErrInvalidArgument 参数不合法（如负数字节、非正 TTL）。
	ErrInvalidArgument = errors.New("xfilestore: invalid argument")

	// ErrInvalidOptions Open 参数不合法。
	ErrInvalidOptions = errors.New("xfilestore: invalid options")

	// ErrClosed Store 已关闭。
	ErrClosed = errors.New("xfilestore: closed")

	// ErrLocked root 已被其他进程打开。
	ErrLocked = errors.New("xfilestore: root locked by another process")
)
