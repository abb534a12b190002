package xrun

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup + context 管理多个任务。
//
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 context 在任一任务出错或 Cancel 时取消。
// nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: options}, egCtx
}

// Go 启动任务，fn 应在 ctx.Done() 后尽快返回。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 与 Go 相同，并记录任务启动与退出。
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		log := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("task", name))
		log.Debug("task starting")
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("task exited with error", slog.Any("error", err))
		} else {
			log.Debug("task stopped")
		}
		return err
	})
}

// Wait 等待所有任务结束。
//
// 由 Group 取消引起的 context.Canceled 被过滤；Cancel(cause) 传入的非 Canceled
// 原因（如 *SignalError）即使所有任务返回 nil 也会被返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil && g.causeCtx.Err() == nil {
		// 任务内部产生的 Canceled，不属于 Group 取消
		return err
	}
	if g.causeCtx.Err() != nil {
		if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
			return cause
		}
	}
	return nil
}

// Cancel 取消所有任务，cause 不应包装 context.Canceled。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// DefaultSignals SIGHUP、SIGINT、SIGTERM、SIGQUIT，每次返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

type testSigChanKey struct{}

// testSigChan 测试通过 context 注入信号，生产环境返回 nil。
func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

// Run 监听信号并运行 services，收到信号时返回 *SignalError。
func Run(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)

	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}
	g.Go(func(ctx context.Context) error {
		testc := testSigChan(ctx)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)

		var sig os.Signal
		select {
		case sig = <-testc:
		case sig = <-sigCh:
		case <-ctx.Done():
			return ctx.Err()
		}
		g.opts.logger.Info("received signal",
			slog.String("group", g.opts.name),
			slog.String("signal", sig.String()),
		)
		g.cancel(&SignalError{Signal: sig})
		return nil
	})

	for _, svc := range services {
		g.Go(svc)
	}
	return g.Wait()
}

// HTTPServerInterface *http.Server 天然满足此接口。
type HTTPServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServer 将 server 包装为支持优雅关闭的任务。
// shutdownTimeout <= 0 时 Shutdown 等待所有在途请求完成。
func HTTPServer(server HTTPServerInterface, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil {
			return ErrNilServer
		}
		shutdownErr := make(chan error, 1)
		listenDone := make(chan struct{})

		go func() {
			select {
			case <-ctx.Done():
				sctx := context.Background()
				if shutdownTimeout > 0 {
					var cancel context.CancelFunc
					sctx, cancel = context.WithTimeout(sctx, shutdownTimeout)
					defer cancel()
				}
				shutdownErr <- server.Shutdown(sctx)
			case <-listenDone:
			}
		}()

		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			select {
			case e := <-shutdownErr:
				return e
			case <-ctx.Done():
				return <-shutdownErr
			default:
				// 外部直接 Shutdown，ctx 未取消
				close(listenDone)
				return nil
			}
		}
		close(listenDone)
		return err
	}
}
