package xfilestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xfilestore/internal/journal"
	"github.com/omeyang/xfilestore/internal/shardfs"
	"github.com/omeyang/xfilestore/pkg/lifecycle/xrun"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
	"github.com/omeyang/xfilestore/pkg/util/xfile"
)

const (
	componentName = "xfilestore"

	bucketsDir  = "buckets"
	metaDir     = "meta"
	journalFile = "journal.db"
)

// Store 容量受限的键值文件存储。方法可并发调用。
//
// 修改操作在同一把锁内串行执行；扩容期间（O(条目数) 次文件移动）所有操作阻塞。
type Store struct {
	mu     sync.Mutex
	closed bool
	m      int

	root     string
	opts     *options
	fs       *shardfs.FS
	journal  *journal.Journal
	ledger   *ledger
	index    *expiryIndex
	log      xlog.Logger
	observer xmetrics.Observer
	group    *xrun.Group

	entries atomic.Int64
	buckets atomic.Int64
	pending atomic.Int64
}

// EntryInfo 条目元数据。Deadline 为零值表示永久条目。
type EntryInfo struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Deadline time.Time `json:"deadline,omitzero"`
	Bucket   int       `json:"bucket"`
}

// Stats 存储统计。
type Stats struct {
	Used       int64 `json:"used"`
	Free       int64 `json:"free"`
	Max        int64 `json:"max"`
	Entries    int64 `json:"entries"`
	Buckets    int   `json:"buckets"`
	PendingTTL int   `json:"pending_ttl"`
}

// Open 打开或创建 root 处的存储，maxSpace 为容量上限（字节）。
//
// 其他进程已打开同一 root 时，等待锁超时后返回 ErrLocked。
func Open(root string, maxSpace int64, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(root, maxSpace); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}
	if o.observer == nil {
		o.observer = xmetrics.NoopObserver{}
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := xfile.MkdirAll(root, xfile.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	s := &Store{
		root:     root,
		opts:     o,
		ledger:   newLedger(maxSpace),
		index:    newExpiryIndex(),
		log:      o.logger.With(xlog.Component(componentName)),
		observer: o.observer,
	}

	ctx := context.Background()
	if s.journal, err = s.openJournal(ctx); err != nil {
		return nil, err
	}
	if s.fs, err = shardfs.New(filepath.Join(root, bucketsDir), shardfs.WithChunkSize(o.chunkSize)); err != nil {
		_ = s.journal.Close()
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := s.recover(ctx); err != nil {
		_ = s.journal.Close()
		return nil, err
	}
	s.registerGauges(ctx)

	s.group, _ = xrun.NewGroup(context.Background(),
		xrun.WithLogger(xlog.Slog(s.log)), xrun.WithName(componentName))
	s.group.GoWithName("sweeper", xrun.DelayedTicker(o.sweepDelay, o.sweepPeriod, s.sweepTick))
	return s, nil
}

// openJournal 打开过期日志；文件损坏时移走并新建。
func (s *Store) openJournal(ctx context.Context) (*journal.Journal, error) {
	path := filepath.Join(s.root, metaDir, journalFile)
	j, err := journal.Open(path, s.opts.lockTimeout)
	if err == nil {
		return j, nil
	}
	if errors.Is(err, journal.ErrLocked) {
		return nil, fmt.Errorf("%w: %w", ErrLocked, err)
	}
	if !errors.Is(err, journal.ErrCorrupt) {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	aside, derr := journal.Discard(path)
	if derr != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, errors.Join(err, derr))
	}
	s.log.Warn(ctx, "journal unreadable, starting with empty expiry index",
		xlog.Path(aside), xlog.Err(err))
	j, err = journal.Open(path, s.opts.lockTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return j, nil
}

func (s *Store) registerGauges(ctx context.Context) {
	gauges := []struct {
		name, desc, unit string
		fn               func() int64
	}{
		{"xfilestore.space.used", "Bytes used by stored entries.", "By", s.ledger.Used},
		{"xfilestore.space.free", "Bytes available before the capacity limit.", "By", s.ledger.Free},
		{"xfilestore.entries", "Entry files on disk.", "{entry}", s.entries.Load},
		{"xfilestore.buckets", "Current bucket count.", "{bucket}", s.buckets.Load},
		{"xfilestore.expiry.pending", "Entries waiting for expiry.", "{entry}", s.pending.Load},
	}
	for _, g := range gauges {
		if err := xmetrics.RegisterGauge(s.observer, g.name, g.desc, g.unit, g.fn); err != nil {
			s.log.Warn(ctx, "register gauge failed", slog.String("gauge", g.name), xlog.Err(err))
		}
	}
}

// begin 开始一次操作：加锁并检查关闭状态。返回错误时锁已释放。
func (s *Store) begin() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (s *Store) startSpan(ctx context.Context, op, key string) (context.Context, xmetrics.Span) {
	return xmetrics.Start(ctx, s.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: op,
		Kind:      xmetrics.KindInternal,
		Attrs:     []xmetrics.Attr{xmetrics.String("key", key)},
	})
}

func checkKey(key string) error {
	if err := xfile.ValidateName(key); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return nil
}

// Save 以 key 保存 r 的全部内容。
//
// key 已存在返回 ErrDuplicateKey；容量不足返回 ErrOutOfCapacity，此时不会
// 留下部分文件。
func (s *Store) Save(ctx context.Context, key string, r io.Reader) (err error) {
	ctx, span := s.startSpan(ctx, "save", key)
	defer func() { span.End(xmetrics.Result{Err: err}) }()
	return s.save(ctx, key, r, 0)
}

// SaveWithTTL 与 Save 相同，条目在 ttl 后被自动删除。ttl 必须为正。
func (s *Store) SaveWithTTL(ctx context.Context, key string, r io.Reader, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "save_ttl", key)
	defer func() { span.End(xmetrics.Result{Err: err}) }()
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidArgument, ttl)
	}
	return s.save(ctx, key, r, ttl)
}

func (s *Store) save(ctx context.Context, key string, r io.Reader, ttl time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: nil reader", ErrInvalidArgument)
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	bucket := place(key, s.m)
	written, err := s.fs.Create(bucket, key, r, s.ledger)
	if err != nil {
		s.ledger.Release(written)
		switch {
		case errors.Is(err, shardfs.ErrExists):
			return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		case errors.Is(err, shardfs.ErrQuotaExceeded):
			s.log.Warn(ctx, "save aborted, out of capacity",
				xlog.Key(key), xlog.Bytes(written), xlog.Bytes(s.ledger.Used()))
			return fmt.Errorf("%w: %q after %d bytes", ErrOutOfCapacity, key, written)
		default:
			return fmt.Errorf("%w: save %q: %w", ErrIOFailure, key, err)
		}
	}
	s.entries.Add(1)

	if ttl > 0 {
		if err := s.register(ctx, key, ttl); err != nil {
			s.rollback(ctx, bucket, key)
			return err
		}
	} else {
		// 文件刚创建，残留的过期记录只可能来自已删除的旧条目
		s.unregister(ctx, key)
	}

	s.log.Debug(ctx, "entry saved", xlog.Key(key), xlog.Bucket(bucket), xlog.Bytes(written))
	s.maybeGrow(ctx)
	return nil
}

// rollback 删除刚写入的条目。
func (s *Store) rollback(ctx context.Context, bucket int, key string) {
	size, err := s.fs.Remove(bucket, key)
	if err != nil {
		s.log.Error(ctx, "rollback entry failed", xlog.Key(key), xlog.Err(err))
		return
	}
	s.ledger.Release(size)
	s.entries.Add(-1)
}

// Read 打开 key 的内容，调用方负责关闭。读取在锁外进行。
func (s *Store) Read(ctx context.Context, key string) (rc io.ReadCloser, err error) {
	_, span := s.startSpan(ctx, "read", key)
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	f, err := s.fs.Open(place(key, s.m), key)
	if err != nil {
		return nil, s.mapNotFound(key, err)
	}
	return f, nil
}

// Delete 删除 key 及其过期记录。
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, span := s.startSpan(ctx, "delete", key)
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	size, err := s.fs.Remove(place(key, s.m), key)
	if err != nil {
		return s.mapNotFound(key, err)
	}
	s.ledger.Release(size)
	s.entries.Add(-1)
	s.unregister(ctx, key)
	s.log.Debug(ctx, "entry deleted", xlog.Key(key), xlog.Bytes(size))
	return nil
}

// Stat 返回 key 的元数据。
func (s *Store) Stat(ctx context.Context, key string) (info EntryInfo, err error) {
	_, span := s.startSpan(ctx, "stat", key)
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if err := checkKey(key); err != nil {
		return EntryInfo{}, err
	}
	if err := s.begin(); err != nil {
		return EntryInfo{}, err
	}
	defer s.mu.Unlock()

	e, err := s.fs.Stat(place(key, s.m), key)
	if err != nil {
		return EntryInfo{}, s.mapNotFound(key, err)
	}
	info = EntryInfo{Key: key, Size: e.Size, Created: e.Created, Bucket: e.Bucket}
	if d, ok := s.index.deadline(key); ok {
		info.Deadline = d
	}
	return info, nil
}

func (s *Store) mapNotFound(key string, err error) error {
	if errors.Is(err, shardfs.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}

// Stats 返回存储统计快照。
func (s *Store) Stats() Stats {
	return Stats{
		Used:       s.ledger.Used(),
		Free:       s.ledger.Free(),
		Max:        s.ledger.Max(),
		Entries:    s.entries.Load(),
		Buckets:    int(s.buckets.Load()),
		PendingTTL: int(s.pending.Load()),
	}
}

// UsedSpace 返回已用字节数。
func (s *Store) UsedSpace() int64 { return s.ledger.Used() }

// FreeSpace 返回剩余字节数。
func (s *Store) FreeSpace() int64 { return s.ledger.Free() }

// MaxSpace 返回容量上限。
func (s *Store) MaxSpace() int64 { return s.ledger.Max() }

// Root 返回存储根目录（绝对路径）。
func (s *Store) Root() string { return s.root }

// Close 停止后台清理并关闭日志。重复调用返回 nil。
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.group.Cancel(nil)
	werr := s.group.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.journal.Close(); err != nil {
		return errors.Join(werr, fmt.Errorf("%w: %w", ErrIOFailure, err))
	}
	return werr
}
