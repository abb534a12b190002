package xrun

import (
	"log/slog"
	"os"
)

// Option Group 选项。
type Option func(*groupOptions)

type groupOptions struct {
	logger  *slog.Logger
	name    string
	signals []os.Signal
}

func defaultOptions() *groupOptions {
	return &groupOptions{
		logger: slog.Default(),
		name:   "xrun",
	}
}

// WithLogger 记录任务启动与退出，nil 被忽略，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *groupOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 日志中标识 Group，默认 "xrun"。
func WithName(name string) Option {
	return func(o *groupOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖 [Run] 监听的信号列表，空列表使用 [DefaultSignals]。
func WithSignals(signals []os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *groupOptions) {
		o.signals = copied
	}
}
