package xfilestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omeyang/xfilestore/internal/shardfs"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
)

// recover 从磁盘与日志重建内存状态，在 Open 中调用。
//
// 顺序：按目录数确定 M；统计条目与已用空间；加载过期记录；扩容标记置位时
// 重新迁移；恢复文件仍存在的过期记录；清理一轮已到期条目。
func (s *Store) recover(ctx context.Context) error {
	dirs, err := s.fs.Buckets()
	if err != nil {
		return fmt.Errorf("%w: list buckets: %w", ErrIOFailure, err)
	}
	s.m = s.opts.initialBuckets
	if n := len(dirs); n > 0 {
		s.m = min(max(s.m, floorPow2(dirs[n-1]+1)), MaxBuckets)
	}
	if err := s.fs.EnsureBuckets(0, s.m); err != nil {
		return fmt.Errorf("%w: create buckets: %w", ErrIOFailure, err)
	}
	s.buckets.Store(int64(s.m))

	all, err := s.fs.ListAll()
	if err != nil {
		return fmt.Errorf("%w: list entries: %w", ErrIOFailure, err)
	}
	var used int64
	for _, e := range all {
		used += e.Size
	}
	s.ledger.reset(used)
	s.entries.Store(int64(len(all)))
	s.checkDiskFree(ctx)

	records, err := s.journal.LoadExpiries()
	if err != nil {
		// 日志不可读不影响条目本身，缺失的记录意味着条目变为永久
		s.log.Warn(ctx, "load expiry journal failed", xlog.Err(err), xlog.Count(int64(len(records))))
	}

	resizing, err := s.journal.Resizing()
	if err != nil {
		s.log.Warn(ctx, "read resize flag failed", xlog.Err(err))
	}
	if resizing {
		target := max(s.m, bucketsFor(int64(len(all)), s.opts.loadFactor))
		s.log.Warn(ctx, "previous resize interrupted, relocating entries",
			xlog.Buckets(target), xlog.Count(int64(len(all))))
		if err := s.resize(ctx, target); err != nil {
			return err
		}
	}

	var stale int
	for _, rec := range records {
		if _, err := s.fs.Stat(place(rec.Key, s.m), rec.Key); errors.Is(err, shardfs.ErrNotExist) {
			stale++
			if err := s.journal.RemoveExpiry(rec.Key); err != nil {
				s.log.Warn(ctx, "drop stale expiry record failed", xlog.Key(rec.Key), xlog.Err(err))
			}
			continue
		}
		s.restore(rec.Key, rec.Deadline)
	}

	swept := s.sweepOnce(ctx, s.opts.now())
	s.log.Info(ctx, "store recovered",
		xlog.Path(s.root),
		xlog.Count(s.entries.Load()),
		xlog.Bytes(s.ledger.Used()),
		xlog.Buckets(s.m),
		slog.Int("expiry_restored", s.index.len()),
		slog.Int("expiry_stale", stale),
		slog.Int("expiry_swept", swept),
	)
	return nil
}

// checkDiskFree 文件系统剩余空间不足以容纳剩余容量时告警。
func (s *Store) checkDiskFree(ctx context.Context) {
	free, err := shardfs.DiskFree(s.root)
	if err != nil {
		if !errors.Is(err, shardfs.ErrUnsupported) {
			s.log.Debug(ctx, "statfs failed", xlog.Err(err))
		}
		return
	}
	if want := s.ledger.Free(); want > 0 && free < uint64(want) {
		s.log.Warn(ctx, "filesystem has less free space than the configured capacity",
			slog.Uint64("disk_free", free), xlog.Bytes(want))
	}
}
