package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器。
//
// Close 后调用 Write 或 Rotate 返回 [ErrClosed]。
type Rotator interface {
	io.WriteCloser

	// Rotate 关闭当前文件，重命名为备份文件，创建新的日志文件。
	Rotate() error
}
