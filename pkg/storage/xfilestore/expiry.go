package xfilestore

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/btree"

	"github.com/omeyang/xfilestore/pkg/observability/xlog"
)

const expiryDegree = 32

type expiryItem struct {
	deadline time.Time
	seq      uint64
	key      string
}

func expiryLess(a, b *expiryItem) bool {
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.seq < b.seq
}

// expiryIndex 按 (deadline, seq) 排序的过期索引。
//
// seq 单调递增，截止时间相同的记录按插入顺序排列。调用方持有引擎锁。
type expiryIndex struct {
	tree  *btree.BTreeG[*expiryItem]
	byKey map[string]*expiryItem
	seq   uint64
}

func newExpiryIndex() *expiryIndex {
	return &expiryIndex{
		tree:  btree.NewG(expiryDegree, expiryLess),
		byKey: make(map[string]*expiryItem),
	}
}

// insert 插入或替换 key 的截止时间。
func (x *expiryIndex) insert(key string, deadline time.Time) {
	x.remove(key)
	x.seq++
	item := &expiryItem{deadline: deadline, seq: x.seq, key: key}
	x.tree.ReplaceOrInsert(item)
	x.byKey[key] = item
}

// remove 删除 key，不存在时返回 false。
func (x *expiryIndex) remove(key string) bool {
	item, ok := x.byKey[key]
	if !ok {
		return false
	}
	x.tree.Delete(item)
	delete(x.byKey, key)
	return true
}

func (x *expiryIndex) deadline(key string) (time.Time, bool) {
	item, ok := x.byKey[key]
	if !ok {
		return time.Time{}, false
	}
	return item.deadline, true
}

// due 按截止时间升序返回所有 deadline <= now 的记录。
func (x *expiryIndex) due(now time.Time) []*expiryItem {
	var items []*expiryItem
	pivot := &expiryItem{deadline: now, seq: math.MaxUint64}
	x.tree.AscendLessThan(pivot, func(item *expiryItem) bool {
		items = append(items, item)
		return true
	})
	return items
}

func (x *expiryIndex) len() int {
	return x.tree.Len()
}

// register 为已存在的条目登记 TTL：先写日志，再插入索引。
func (s *Store) register(ctx context.Context, key string, ttl time.Duration) error {
	deadline := s.opts.now().Add(ttl)
	if err := s.journal.PutExpiry(key, deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	s.index.insert(key, deadline)
	s.pending.Store(int64(s.index.len()))
	s.log.Debug(ctx, "expiry registered", xlog.Key(key), xlog.Duration(ttl))
	return nil
}

// unregister 删除 key 的过期记录，不存在时为空操作。日志写入失败只记录告警，
// 残留记录在到期时因文件不存在而被丢弃。
func (s *Store) unregister(ctx context.Context, key string) {
	if !s.index.remove(key) {
		return
	}
	s.pending.Store(int64(s.index.len()))
	if err := s.journal.RemoveExpiry(key); err != nil {
		s.log.Warn(ctx, "remove expiry record failed", xlog.Key(key), xlog.Err(err))
	}
}

// restore 恢复时插入索引，不写日志。
func (s *Store) restore(key string, deadline time.Time) {
	s.index.insert(key, deadline)
	s.pending.Store(int64(s.index.len()))
}
