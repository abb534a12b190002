package xfilestore

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
)

// fakeClock 手动推进的时钟。
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func quietLogger(t *testing.T) xlog.Logger {
	t.Helper()
	l, cleanup, err := xlog.New().SetOutput(io.Discard).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return l
}

// openStore 打开测试用 Store。后台清理周期很长，测试通过 sweepTick 手动触发。
func openStore(t *testing.T, root string, maxSpace int64, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger(t)),
		WithSweepDelay(time.Hour),
		WithSweepPeriod(time.Hour),
		WithLockTimeout(100 * time.Millisecond),
	}
	s, err := Open(root, maxSpace, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustSave(t *testing.T, s *Store, key, data string) {
	t.Helper()
	require.NoError(t, s.Save(context.Background(), key, strings.NewReader(data)))
}

func readAll(t *testing.T, s *Store, key string) string {
	t.Helper()
	rc, err := s.Read(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

// recordingObserver 记录跨度与 gauge 注册。
type recordingObserver struct {
	mu     sync.Mutex
	ops    []string
	errs   []error
	gauges map[string]func() int64
}

func (o *recordingObserver) Start(ctx context.Context, opts xmetrics.SpanOptions) (context.Context, xmetrics.Span) {
	return ctx, &recordingSpan{o: o, op: opts.Operation}
}

func (o *recordingObserver) RegisterGauge(name, _, _ string, fn func() int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gauges == nil {
		o.gauges = make(map[string]func() int64)
	}
	o.gauges[name] = fn
	return nil
}

func (o *recordingObserver) gauge(name string) int64 {
	o.mu.Lock()
	fn := o.gauges[name]
	o.mu.Unlock()
	return fn()
}

type recordingSpan struct {
	o  *recordingObserver
	op string
}

func (s *recordingSpan) End(res xmetrics.Result) {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	s.o.ops = append(s.o.ops, s.op)
	s.o.errs = append(s.o.errs, res.Err)
}
