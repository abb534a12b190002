package xfile

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLen 单个路径段的最大字节数（主流文件系统 NAME_MAX）。
const MaxNameLen = 255

// ValidateName 校验 name 能否作为单个路径段直接落盘。
//
// 拒绝以下输入：
//   - 空字符串
//   - 含空字节
//   - 含 '/' 或 '\'（后者在 Windows 上是分隔符，统一拒绝）
//   - "." 与 ".."
//   - 超过 MaxNameLen 字节
//   - 非法 UTF-8
//
// 以点开头的名称（如 ".hidden"、"..config"）是合法的。
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidName)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("name length %d exceeds %d: %w", len(name), MaxNameLen, ErrInvalidName)
	}
	if containsNullByte(name) {
		return fmt.Errorf("name contains null byte: %w", ErrNullByte)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name %q contains separator: %w", name, ErrInvalidName)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name %q is reserved: %w", name, ErrInvalidName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("name is not valid utf-8: %w", ErrInvalidName)
	}
	return nil
}
