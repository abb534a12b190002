package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（所有者 rwx，组 r-x，其他无权限）。
const DefaultDirPerm = 0750

// EnsureDir 确保文件的父目录存在，使用默认权限 0750。
// 目录已存在时不报错，也不修改其权限。
func EnsureDir(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	return MkdirAll(filepath.Dir(filename), DefaultDirPerm)
}

// MkdirAll 创建目录 dir 及其所有父目录。
//
// perm 必须包含所有者执行位（0100），否则目录无法遍历。
func MkdirAll(dir string, perm os.FileMode) error {
	if dir == "" {
		return fmt.Errorf("dir is required: %w", ErrEmptyPath)
	}
	if containsNullByte(dir) {
		return fmt.Errorf("dir contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}
