package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xfilestore/pkg/context/xctx"
)

// 标准字段名
const (
	KeyError      = "error"
	KeyDuration   = "duration"
	KeyCount      = "count"
	KeyComponent  = "component"
	KeyOperation  = "operation"
	KeyRequestID  = xctx.KeyRequestID
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatusCode = "status_code"

	KeyKey     = "key"
	KeyBucket  = "bucket"
	KeyBytes   = "bytes"
	KeyBuckets = "buckets"
)

// Err 创建错误属性，err 为 nil 时返回空属性（会被 slog 忽略）。
//
//	if err != nil {
//	    logger.Error(ctx, "remove failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 人类可读的耗时（如 "1.5s"）。
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 标识日志来源组件。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 标识当前执行的操作。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Key 条目 key。
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Bucket 分片下标。
func Bucket(b int) slog.Attr {
	return slog.Int(KeyBucket, b)
}

// Bytes 字节数。
func Bytes(n int64) slog.Attr {
	return slog.Int64(KeyBytes, n)
}

// Buckets 分片总数。
func Buckets(m int) slog.Attr {
	return slog.Int(KeyBuckets, m)
}

func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}
