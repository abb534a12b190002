package xfilestore

import "sync/atomic"

// ledger 已用空间账本。写操作在引擎锁内进行，读操作为原子读。
type ledger struct {
	max  int64
	used atomic.Int64
}

func newLedger(capacity int64) *ledger {
	return &ledger{max: capacity}
}

// Acquire 申请 n 字节，返回实际授予的字节数。
func (l *ledger) Acquire(n int64) int64 {
	if n <= 0 {
		return 0
	}
	for {
		used := l.used.Load()
		granted := min(n, l.max-used)
		if granted <= 0 {
			return 0
		}
		if l.used.CompareAndSwap(used, used+granted) {
			return granted
		}
	}
}

// Release 归还 n 字节，结果不低于 0。
func (l *ledger) Release(n int64) {
	if n <= 0 {
		return
	}
	for {
		used := l.used.Load()
		next := max(used-n, 0)
		if l.used.CompareAndSwap(used, next) {
			return
		}
	}
}

// reset 恢复时按磁盘统计结果重置，可能超过 max。
func (l *ledger) reset(used int64) {
	l.used.Store(used)
}

func (l *ledger) Used() int64 {
	return l.used.Load()
}

func (l *ledger) Free() int64 {
	return max(l.max-l.used.Load(), 0)
}

func (l *ledger) Max() int64 {
	return l.max
}
