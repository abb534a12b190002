package xfilestore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/omeyang/xfilestore/internal/shardfs"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
)

// sweepTick 清理任务的单次触发，持有引擎锁。
func (s *Store) sweepTick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.sweepOnce(ctx, s.opts.now())
	return nil
}

// sweepOnce 删除所有截止时间不晚于 now 的条目，返回删除数。调用方持有引擎锁。
//
// 文件已不存在时直接丢弃记录；其他删除失败保留记录，下一轮重试。
func (s *Store) sweepOnce(ctx context.Context, now time.Time) int {
	items := s.index.due(now)
	if len(items) == 0 {
		return 0
	}
	ctx, span := xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: "sweep",
		Kind:      xmetrics.KindInternal,
	})

	var removed, failed int
	for _, item := range items {
		bucket := place(item.key, s.m)
		size, err := s.fs.Remove(bucket, item.key)
		switch {
		case err == nil:
			s.ledger.Release(size)
			s.entries.Add(-1)
			removed++
		case errors.Is(err, shardfs.ErrNotExist):
			s.log.Debug(ctx, "expired entry already gone", xlog.Key(item.key))
		default:
			failed++
			s.log.Warn(ctx, "delete expired entry failed",
				xlog.Key(item.key), xlog.Bucket(bucket), xlog.Err(err))
			continue
		}
		s.unregister(ctx, item.key)
	}

	if removed > 0 || failed > 0 {
		s.log.Info(ctx, "expired entries swept",
			xlog.Operation("sweep"), xlog.Count(int64(removed)), slog.Int("failed", failed))
	}
	span.End(xmetrics.Result{Attrs: []xmetrics.Attr{
		xmetrics.Int("removed", removed),
		xmetrics.Int("failed", failed),
	}})
	return removed
}
