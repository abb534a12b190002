// Package autopurge 按计划检查已用空间，超过高水位时回收一部分容量。
package autopurge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/xfilestore/pkg/context/xctx"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/storage/xfilestore"
)

// OriginAutoPurge 自动回收触发的操作来源。
const OriginAutoPurge = "autopurge"

var (
	// ErrInvalidConfig 配置不合法。
	ErrInvalidConfig = errors.New("autopurge: invalid config")
)

// Store 自动回收依赖的存储操作。
type Store interface {
	Stats() xfilestore.Stats
	PurgePercent(ctx context.Context, percent float64) (xfilestore.PurgeResult, error)
}

// Config 自动回收配置。
type Config struct {
	// Schedule cron 表达式，支持 "@every 1m" 等描述符。
	Schedule string `koanf:"schedule"`

	// HighWatermark 已用空间占容量的百分比达到该值时触发回收，取值 (0, 100]。
	HighWatermark int `koanf:"high_watermark"`

	// Percent 每次回收容量的百分比，取值 (0, 100]。
	Percent float64 `koanf:"percent"`
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Purger 定时回收任务。
type Purger struct {
	store    Store
	cfg      Config
	schedule cron.Schedule
	log      xlog.Logger
}

// New 校验配置并创建 Purger。log 为 nil 时使用 xlog.Default()。
func New(store Store, cfg Config, log xlog.Logger) (*Purger, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if cfg.HighWatermark <= 0 || cfg.HighWatermark > 100 {
		return nil, fmt.Errorf("%w: high_watermark must be in (0, 100], got %d", ErrInvalidConfig, cfg.HighWatermark)
	}
	if !(cfg.Percent > 0 && cfg.Percent <= 100) {
		return nil, fmt.Errorf("%w: percent must be in (0, 100], got %v", ErrInvalidConfig, cfg.Percent)
	}
	schedule, err := parser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %w", ErrInvalidConfig, cfg.Schedule, err)
	}
	if log == nil {
		log = xlog.Default()
	}
	return &Purger{
		store:    store,
		cfg:      cfg,
		schedule: schedule,
		log:      log.With(xlog.Component(OriginAutoPurge)),
	}, nil
}

// Check 执行一次检查：已用空间达到高水位时回收 Percent% 的容量。
// 返回是否触发了回收。
func (p *Purger) Check(ctx context.Context) (xfilestore.PurgeResult, bool, error) {
	st := p.store.Stats()
	if st.Max <= 0 || st.Used*100 < int64(p.cfg.HighWatermark)*st.Max {
		p.log.Debug(ctx, "below high watermark", xlog.Bytes(st.Used))
		return xfilestore.PurgeResult{}, false, nil
	}

	res, err := p.store.PurgePercent(ctx, p.cfg.Percent)
	if err != nil {
		return res, true, err
	}
	p.log.Info(ctx, "high watermark reached, purged oldest entries",
		slog.Int("high_watermark", p.cfg.HighWatermark),
		xlog.Bytes(res.Released),
		xlog.Count(int64(res.Removed)),
	)
	return res, true, nil
}

// Run 按计划执行 Check，直到 ctx 取消。可作为 xrun 任务运行。
func (p *Purger) Run(ctx context.Context) error {
	jobCtx, err := xctx.WithOrigin(ctx, OriginAutoPurge)
	if err != nil {
		return err
	}
	logger := cronLogger{l: xlog.Slog(p.log)}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(p.schedule, cron.FuncJob(func() {
		if _, _, err := p.Check(jobCtx); err != nil && !errors.Is(err, xfilestore.ErrClosed) {
			p.log.Error(jobCtx, "auto purge failed", xlog.Err(err))
		}
	}))

	c.Start()
	<-ctx.Done()
	// 等待进行中的任务结束
	<-c.Stop().Done()
	return ctx.Err()
}

// cronLogger 将 cron 的日志接口适配到 slog。
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
