package xmetrics

import "errors"

var (
	// ErrCreateInstrument 表示创建 OTel instrument 失败。
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")

	// ErrNilCallback 表示 gauge 回调为 nil。
	ErrNilCallback = errors.New("xmetrics: nil gauge callback")

	// ErrNilReader 表示 Snapshot 的 reader 为 nil。
	ErrNilReader = errors.New("xmetrics: nil reader")
)
