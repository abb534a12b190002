package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 因收到系统信号而终止，使用 errors.Is 判断。
	ErrSignal = errors.New("received signal")

	// ErrNilFunc 任务函数为 nil。
	ErrNilFunc = errors.New("xrun: nil function")

	// ErrNilServer HTTPServer 的 server 为 nil。
	ErrNilServer = errors.New("xrun: nil server")

	// ErrInvalidInterval Ticker 间隔必须为正数。
	ErrInvalidInterval = errors.New("xrun: interval must be positive")

	// ErrInvalidDelay 延迟不能为负数。
	ErrInvalidDelay = errors.New("xrun: delay must not be negative")
)

// SignalError 包含触发终止的信号。
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//	    fmt.Println(sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

func (e *SignalError) Unwrap() error {
	return ErrSignal
}
