package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// 将 '/' 和 '\' 都视为分隔符，以检测 Windows 风格路径穿越。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对文件路径进行格式检查和规范化。
//
// 拒绝空路径、空字节、相对路径穿越和显式目录路径（尾随分隔符）。
// 接受绝对路径；如需将路径限制在特定目录内，请使用 [SafeJoin]。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 filepath.Clean 之前检查，Clean 会移除尾部斜杠
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SafeJoin 将相对路径 elems 依次拼接到绝对路径 base，并保证结果仍在 base 内。
//
// 示例：
//
//	SafeJoin("/data", "buckets", "3")   // -> "/data/buckets/3", nil
//	SafeJoin("/data", "../etc/passwd")  // -> "", ErrPathTraversal
//	SafeJoin("/data", "/etc/passwd")    // -> "", ErrInvalidPath
//
// 不解析符号链接。
func SafeJoin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base directory is required: %w", ErrEmptyPath)
	}
	if containsNullByte(base) {
		return "", fmt.Errorf("base contains null byte: %w", ErrNullByte)
	}
	cleanBase := filepath.Clean(base)
	if !filepath.IsAbs(cleanBase) {
		return "", fmt.Errorf("base must be an absolute path: %w", ErrInvalidPath)
	}
	if len(elems) == 0 {
		return "", fmt.Errorf("path is required: %w", ErrEmptyPath)
	}

	parts := make([]string, 0, len(elems)+1)
	parts = append(parts, cleanBase)
	for _, e := range elems {
		if e == "" {
			return "", fmt.Errorf("path is required: %w", ErrEmptyPath)
		}
		if containsNullByte(e) {
			return "", fmt.Errorf("path contains null byte: %w", ErrNullByte)
		}
		if filepath.IsAbs(e) || strings.HasPrefix(e, `\`) {
			return "", fmt.Errorf("path must be relative: %w", ErrInvalidPath)
		}
		if hasDotDotSegment(filepath.Clean(e)) {
			return "", fmt.Errorf("path traversal in path: %w", ErrPathTraversal)
		}
		parts = append(parts, e)
	}

	joined := filepath.Join(parts...)
	rel, err := filepath.Rel(cleanBase, joined)
	if err != nil || hasDotDotSegment(rel) {
		return "", ErrPathEscaped
	}
	return joined, nil
}
