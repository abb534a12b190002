package xfilestore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/omeyang/xfilestore/internal/shardfs"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
)

// PurgeResult 一次回收的结果。
type PurgeResult struct {
	Released int64 `json:"released"`
	Removed  int   `json:"removed"`
}

// PurgePercent 回收容量上限的 percent%，即 ceil(max*percent/100) 字节。
// percent 可为小数，超过 100 时清空存储；负数与 NaN 返回 ErrInvalidArgument。
func (s *Store) PurgePercent(ctx context.Context, percent float64) (PurgeResult, error) {
	if math.IsNaN(percent) || percent < 0 {
		return PurgeResult{}, fmt.Errorf("%w: percent %v", ErrInvalidArgument, percent)
	}
	target := int64(math.MaxInt64)
	if percent <= 100 {
		target = percentOf(s.ledger.Max(), percent)
	}
	return s.PurgeBytes(ctx, target)
}

// percentOf 返回 ceil(total*percent/100)，percent 取值 [0, 100]，结果不超过 total。
func percentOf(total int64, percent float64) int64 {
	if p := int64(percent); float64(p) == percent {
		q, r := total/100, total%100
		// 整数百分比拆分计算，避免 total*percent 溢出与精度损失
		return q*p + (r*p+99)/100
	}
	v := math.Ceil(float64(total) * percent / 100)
	if v >= float64(total) {
		return total
	}
	return int64(v)
}

// PurgeBytes 按创建时间从旧到新删除条目，直到释放不少于 target 字节或没有条目。
//
// 创建时间相同的条目按枚举顺序（分片下标、文件名）删除。
func (s *Store) PurgeBytes(ctx context.Context, target int64) (res PurgeResult, err error) {
	ctx, span := xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: "purge",
		Kind:      xmetrics.KindInternal,
		Attrs:     []xmetrics.Attr{xmetrics.Int64("target", target)},
	})
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{
			xmetrics.Int64("released", res.Released),
			xmetrics.Int("removed", res.Removed),
		}})
	}()

	if target < 0 {
		return PurgeResult{}, fmt.Errorf("%w: negative target %d", ErrInvalidArgument, target)
	}
	if err := s.begin(); err != nil {
		return PurgeResult{}, err
	}
	defer s.mu.Unlock()

	if target == 0 {
		return PurgeResult{}, nil
	}

	entries, err := s.fs.ListAll()
	if err != nil {
		return PurgeResult{}, fmt.Errorf("%w: list entries: %w", ErrIOFailure, err)
	}
	slices.SortStableFunc(entries, func(a, b shardfs.Entry) int {
		return a.Created.Compare(b.Created)
	})

	for _, e := range entries {
		if res.Released >= target {
			break
		}
		size, err := s.fs.Remove(e.Bucket, e.Key)
		if err != nil {
			if !errors.Is(err, shardfs.ErrNotExist) {
				s.log.Warn(ctx, "purge entry failed", xlog.Key(e.Key), xlog.Bucket(e.Bucket), xlog.Err(err))
			}
			continue
		}
		s.ledger.Release(size)
		s.entries.Add(-1)
		s.unregister(ctx, e.Key)
		res.Released += size
		res.Removed++
	}

	s.log.Info(ctx, "purge finished",
		xlog.Operation("purge"), xlog.Bytes(res.Released), xlog.Count(int64(res.Removed)))
	return res, nil
}
