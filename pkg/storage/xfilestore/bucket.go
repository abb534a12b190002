package xfilestore

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
)

// place 返回 key 在 m 个分片下的位置，m 必须是 2 的幂。
func place(key string, m int) int {
	return int(xxhash.Sum64String(key) & uint64(m-1)) //nolint:gosec // m <= MaxBuckets
}

// floorPow2 返回不超过 n 的最大 2 的幂，n < 1 时返回 0。
func floorPow2(n int) int {
	if n < 1 {
		return 0
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

// bucketsFor 返回使 entries < loadFactor*m 成立的最小 2 的幂 m，不超过 MaxBuckets。
func bucketsFor(entries int64, loadFactor int) int {
	m := 1
	for m < MaxBuckets && entries >= int64(loadFactor)*int64(m) {
		m *= 2
	}
	return m
}

// maybeGrow 在成功写入后检查负载，必要时翻倍扩容。调用方持有引擎锁。
func (s *Store) maybeGrow(ctx context.Context) {
	if s.entries.Load() < int64(s.opts.loadFactor)*int64(s.m) || 2*s.m > MaxBuckets {
		return
	}
	if err := s.resize(ctx, 2*s.m); err != nil {
		s.log.Error(ctx, "resize failed", xlog.Buckets(s.m), xlog.Err(err))
	}
}

// resize 将分片数调整为 newM 并迁移所有位置发生变化的条目。调用方持有引擎锁。
//
// 迁移期间日志中的扩容标记保持置位，崩溃后由恢复流程重新执行；迁移按文件名
// 移动，重复执行结果不变。单个条目迁移失败只记录告警。
func (s *Store) resize(ctx context.Context, newM int) (err error) {
	start := time.Now()
	oldM := s.m
	ctx, span := xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: "resize",
		Kind:      xmetrics.KindInternal,
		Attrs: []xmetrics.Attr{
			xmetrics.Int("buckets.from", oldM),
			xmetrics.Int("buckets.to", newM),
		},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if err := s.journal.SetResizing(true); err != nil {
		return fmt.Errorf("%w: set resize flag: %w", ErrIOFailure, err)
	}
	if err := s.fs.EnsureBuckets(0, newM); err != nil {
		return fmt.Errorf("%w: create buckets: %w", ErrIOFailure, err)
	}

	// 先取快照，每个条目只访问一次
	entries, err := s.fs.ListAll()
	if err != nil {
		return fmt.Errorf("%w: list entries: %w", ErrIOFailure, err)
	}
	var moved, failed int
	for _, e := range entries {
		target := place(e.Key, newM)
		if target == e.Bucket {
			continue
		}
		if err := s.fs.Move(e.Bucket, target, e.Key); err != nil {
			failed++
			s.log.Warn(ctx, "relocate entry failed",
				xlog.Key(e.Key), xlog.Bucket(e.Bucket), xlog.Err(err))
			continue
		}
		moved++
	}

	s.m = newM
	s.buckets.Store(int64(newM))
	if err := s.journal.SetResizing(false); err != nil {
		return fmt.Errorf("%w: clear resize flag: %w", ErrIOFailure, err)
	}
	s.log.Info(ctx, "buckets resized",
		xlog.Operation("resize"), xlog.Buckets(newM), xlog.Count(int64(moved)),
		xlog.Duration(time.Since(start)))
	if failed > 0 {
		s.log.Warn(ctx, "resize skipped entries", xlog.Count(int64(failed)))
	}
	return nil
}
