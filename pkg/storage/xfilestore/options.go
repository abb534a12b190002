package xfilestore

import (
	"fmt"
	"time"

	"github.com/omeyang/xfilestore/internal/shardfs"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
)

const (
	// DefaultInitialBuckets 初始分片数。
	DefaultInitialBuckets = 4

	// MaxBuckets 分片数上限。
	MaxBuckets = 1 << 15

	// DefaultLoadFactor 每个分片的平均条目数达到该值时扩容。
	DefaultLoadFactor = 50

	// DefaultSweepDelay 首轮过期清理前的等待时间。
	DefaultSweepDelay = 500 * time.Millisecond

	// DefaultSweepPeriod 过期清理周期。
	DefaultSweepPeriod = 100 * time.Millisecond

	// DefaultChunkSize 写入时每次申请的容量。
	DefaultChunkSize = shardfs.DefaultChunkSize

	// DefaultLockTimeout 等待其他进程释放 root 的时间。
	DefaultLockTimeout = time.Second
)

type options struct {
	initialBuckets int
	loadFactor     int
	sweepDelay     time.Duration
	sweepPeriod    time.Duration
	chunkSize      int
	lockTimeout    time.Duration
	logger         xlog.Logger
	observer       xmetrics.Observer
	now            func() time.Time
}

func defaultOptions() *options {
	return &options{
		initialBuckets: DefaultInitialBuckets,
		loadFactor:     DefaultLoadFactor,
		sweepDelay:     DefaultSweepDelay,
		sweepPeriod:    DefaultSweepPeriod,
		chunkSize:      DefaultChunkSize,
		lockTimeout:    DefaultLockTimeout,
		now:            time.Now,
	}
}

// Option Open 选项。
type Option func(*options)

// WithInitialBuckets 设置全新 root 的分片数，必须是不超过 MaxBuckets 的 2 的幂。
func WithInitialBuckets(n int) Option {
	return func(o *options) { o.initialBuckets = n }
}

// WithLoadFactor 设置扩容阈值（每个分片的平均条目数）。
func WithLoadFactor(n int) Option {
	return func(o *options) { o.loadFactor = n }
}

// WithSweepDelay 设置首轮过期清理前的等待时间。
func WithSweepDelay(d time.Duration) Option {
	return func(o *options) { o.sweepDelay = d }
}

// WithSweepPeriod 设置过期清理周期。
func WithSweepPeriod(d time.Duration) Option {
	return func(o *options) { o.sweepPeriod = d }
}

// WithChunkSize 设置写入块大小。
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithLockTimeout 设置等待 root 锁的时间，0 表示一直等待。
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) { o.lockTimeout = d }
}

// WithLogger 设置日志器，nil 使用 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver 设置观测器，nil 不观测。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// withClock 替换时钟，仅用于测试。
func withClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func (o *options) validate(root string, maxSpace int64) error {
	switch {
	case root == "":
		return fmt.Errorf("%w: empty root", ErrInvalidOptions)
	case maxSpace <= 0:
		return fmt.Errorf("%w: max space must be positive, got %d", ErrInvalidOptions, maxSpace)
	case o.initialBuckets <= 0 || o.initialBuckets > MaxBuckets || o.initialBuckets&(o.initialBuckets-1) != 0:
		return fmt.Errorf("%w: initial buckets must be a power of two in [1, %d], got %d",
			ErrInvalidOptions, MaxBuckets, o.initialBuckets)
	case o.loadFactor <= 0:
		return fmt.Errorf("%w: load factor must be positive, got %d", ErrInvalidOptions, o.loadFactor)
	case o.sweepDelay < 0:
		return fmt.Errorf("%w: negative sweep delay", ErrInvalidOptions)
	case o.sweepPeriod <= 0:
		return fmt.Errorf("%w: sweep period must be positive", ErrInvalidOptions)
	case o.chunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidOptions)
	case o.lockTimeout < 0:
		return fmt.Errorf("%w: negative lock timeout", ErrInvalidOptions)
	}
	return nil
}
