package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/omeyang/xfilestore/internal/autopurge"
	"github.com/omeyang/xfilestore/internal/httpapi"
	"github.com/omeyang/xfilestore/pkg/config/xconf"
	"github.com/omeyang/xfilestore/pkg/lifecycle/xrun"
	"github.com/omeyang/xfilestore/pkg/observability/xlog"
	"github.com/omeyang/xfilestore/pkg/observability/xmetrics"
	"github.com/omeyang/xfilestore/pkg/storage/xfilestore"
)

const (
	// lockAttemptTimeout 单次打开等待日志库文件锁的时间。
	lockAttemptTimeout = 100 * time.Millisecond
	// lockRetryDelay 两次打开之间的间隔。
	lockRetryDelay = 200 * time.Millisecond
	// readHeaderTimeout serve 的请求头读取超时。
	readHeaderTimeout = 10 * time.Second
)

func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "serve",
			Usage:  "启动 HTTP 服务",
			Action: cmdServe,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "addr",
					Aliases: []string{"a"},
					Usage:   "监听地址（覆盖配置文件）",
				},
			},
		},
		{
			Name:      "put",
			Usage:     "写入条目",
			ArgsUsage: "<key> [file]",
			Action:    cmdPut,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:    "ttl",
					Aliases: []string{"t"},
					Usage:   "过期时间，0 表示永不过期",
				},
			},
		},
		{
			Name:      "get",
			Usage:     "读取条目",
			ArgsUsage: "<key>",
			Action:    cmdGet,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "输出文件，默认标准输出",
				},
			},
		},
		{
			Name:      "rm",
			Usage:     "删除条目",
			ArgsUsage: "<key>",
			Action:    cmdRemove,
		},
		{
			Name:   "purge",
			Usage:  "按创建时间从旧到新清理条目",
			Action: cmdPurge,
			MutuallyExclusiveFlags: []cli.MutuallyExclusiveFlags{
				{
					Required: true,
					Flags: [][]cli.Flag{
						{&cli.FloatFlag{Name: "percent", Aliases: []string{"p"}, Usage: "释放容量上限的百分比，可为小数"}},
						{&cli.Int64Flag{Name: "bytes", Aliases: []string{"b"}, Usage: "释放的字节数"}},
					},
				},
			},
		},
		{
			Name:      "stat",
			Usage:     "输出存储统计，指定 key 时输出条目信息",
			ArgsUsage: "[key]",
			Action:    cmdStat,
		},
	}
}

// env 单次命令执行的运行环境。
type env struct {
	cfg      Config
	src      xconf.Config
	log      xlog.LoggerWithLevel
	closeLog func() error
}

func (e *env) close() {
	if e.closeLog != nil {
		_ = e.closeLog() //nolint:errcheck // 退出路径
	}
}

// loadEnv 读取配置文件，用全局选项覆盖后构建日志器。
func loadEnv(cmd *cli.Command) (*env, error) {
	root := cmd.Root()
	cfg, src, err := loadConfig(root.String("config"))
	if err != nil {
		return nil, err
	}
	if root.IsSet("root") {
		cfg.Store.Root = root.String("root")
	}
	if root.IsSet("max-space") {
		cfg.Store.MaxSpace = root.Int64("max-space")
	}
	if root.IsSet("log-level") {
		cfg.Log.Level = root.String("log-level")
	}
	if cfg.Store.Root == "" {
		return nil, newUsageError("缺少存储根目录 (--root)")
	}
	if cfg.Store.MaxSpace <= 0 {
		return nil, newUsageError("容量上限必须为正数 (--max-space)")
	}

	b := xlog.New().
		SetOutput(root.ErrWriter).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format).
		SetEnrich(true)
	if cfg.Log.File != "" {
		b.SetRotation(cfg.Log.File)
	}
	log, closeLog, err := b.Build()
	if err != nil {
		return nil, newUsageError("日志配置无效: %v", err)
	}
	return &env{cfg: cfg, src: src, log: log, closeLog: closeLog}, nil
}

// openStore 打开存储，存储被其他进程占用时在 --lock-wait 内重试。
// extra 追加在配置生成的选项之后。
func (e *env) openStore(ctx context.Context, cmd *cli.Command, extra ...xfilestore.Option) (*xfilestore.Store, error) {
	wait := cmd.Root().Duration("lock-wait")
	attempts := uint(1)
	if wait > 0 {
		attempts += uint(wait / lockRetryDelay)
	}
	opts := append(e.cfg.Store.storeOptions(),
		xfilestore.WithLockTimeout(lockAttemptTimeout),
		xfilestore.WithLogger(e.log),
	)
	opts = append(opts, extra...)
	return retry.NewWithData[*xfilestore.Store](
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(lockRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, xfilestore.ErrLocked)
		}),
		retry.OnRetry(func(n uint, err error) {
			e.log.Debug(ctx, "store locked, retrying",
				slog.Uint64("attempt", uint64(n)+1),
				xlog.Err(err),
			)
		}),
	).Do(func() (*xfilestore.Store, error) {
		return xfilestore.Open(e.cfg.Store.Root, e.cfg.Store.MaxSpace, opts...)
	})
}

// withStore 打开存储执行 fn，结束后关闭。
func withStore(ctx context.Context, cmd *cli.Command, fn func(e *env, s *xfilestore.Store) error) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	s, err := e.openStore(ctx, cmd)
	if err != nil {
		return err
	}
	return errors.Join(fn(e, s), s.Close())
}

func requireKey(cmd *cli.Command, maxArgs int) (string, error) {
	if cmd.NArg() == 0 {
		return "", newUsageError("%s: 缺少 key", cmd.Name)
	}
	if cmd.NArg() > maxArgs {
		return "", newUsageError("%s: 参数过多", cmd.Name)
	}
	return cmd.Args().First(), nil
}

func cmdPut(ctx context.Context, cmd *cli.Command) error {
	key, err := requireKey(cmd, 2)
	if err != nil {
		return err
	}
	ttl := cmd.Duration("ttl")
	if ttl < 0 {
		return newUsageError("put: ttl 不能为负数")
	}
	return withStore(ctx, cmd, func(_ *env, s *xfilestore.Store) error {
		src := cmd.Root().Reader
		if name := cmd.Args().Get(1); name != "" && name != "-" {
			f, err := os.Open(name)
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck // 只读
			src = f
		}
		if ttl > 0 {
			return s.SaveWithTTL(ctx, key, src, ttl)
		}
		return s.Save(ctx, key, src)
	})
}

func cmdGet(ctx context.Context, cmd *cli.Command) error {
	key, err := requireKey(cmd, 1)
	if err != nil {
		return err
	}
	return withStore(ctx, cmd, func(_ *env, s *xfilestore.Store) error {
		rc, err := s.Read(ctx, key)
		if err != nil {
			return err
		}
		defer rc.Close() //nolint:errcheck // 只读

		out := cmd.Root().Writer
		if name := cmd.String("output"); name != "" {
			return writeFile(name, rc)
		}
		_, err = io.Copy(out, rc)
		return err
	})
}

// writeFile 写入 name，失败时删除不完整的文件。
func writeFile(name string, r io.Reader) (err error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(name) //nolint:errcheck // 尽力清理
		}
	}()
	_, err = io.Copy(f, r)
	return err
}

func cmdRemove(ctx context.Context, cmd *cli.Command) error {
	key, err := requireKey(cmd, 1)
	if err != nil {
		return err
	}
	return withStore(ctx, cmd, func(_ *env, s *xfilestore.Store) error {
		return s.Delete(ctx, key)
	})
}

func cmdPurge(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 0 {
		return newUsageError("purge: 不接受位置参数")
	}
	return withStore(ctx, cmd, func(_ *env, s *xfilestore.Store) error {
		var (
			res xfilestore.PurgeResult
			err error
		)
		if cmd.IsSet("percent") {
			res, err = s.PurgePercent(ctx, cmd.Float("percent"))
		} else {
			res, err = s.PurgeBytes(ctx, cmd.Int64("bytes"))
		}
		if errors.Is(err, xfilestore.ErrInvalidArgument) {
			return &usageError{msg: err.Error()}
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.Root().Writer, res)
	})
}

func cmdStat(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 1 {
		return newUsageError("stat: 参数过多")
	}
	return withStore(ctx, cmd, func(_ *env, s *xfilestore.Store) error {
		if cmd.NArg() == 0 {
			return printJSON(cmd.Root().Writer, s.Stats())
		}
		info, err := s.Stat(ctx, cmd.Args().First())
		if err != nil {
			return err
		}
		return printJSON(cmd.Root().Writer, info)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 0 {
		return newUsageError("serve: 不接受位置参数")
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	var (
		tel   *telemetry
		extra []xfilestore.Option
	)
	if e.cfg.Metrics.Enabled {
		if tel, err = newTelemetry(); err != nil {
			return err
		}
		defer tel.shutdown(e.log)
		extra = append(extra, xfilestore.WithObserver(tel.observer))
	}
	s, err := e.openStore(ctx, cmd, extra...)
	if err != nil {
		return err
	}
	return errors.Join(e.serve(ctx, cmd, s, tel), s.Close())
}

func (e *env) serve(ctx context.Context, cmd *cli.Command, s *xfilestore.Store, tel *telemetry) error {
	addr := e.cfg.HTTP.Addr
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(s, e.log, tel),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	services := []func(ctx context.Context) error{
		xrun.HTTPServer(srv, e.cfg.HTTP.ShutdownTimeout),
	}

	if e.cfg.AutoPurge.Schedule != "" {
		p, err := autopurge.New(s, e.cfg.AutoPurge, e.log)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		services = append(services, p.Run)
	}
	if e.src != nil {
		w, err := xconf.Watch(e.src, e.reloadLogLevel)
		if err != nil {
			return err
		}
		services = append(services, w.Run)
	}

	e.log.Info(ctx, "serving",
		slog.String("addr", addr),
		slog.String("root", s.Root()),
		slog.Int64("max_space", s.MaxSpace()),
		slog.Bool("metrics", tel != nil),
	)
	err := xrun.Run(ctx, []xrun.Option{
		xrun.WithName("xfsctl"),
		xrun.WithLogger(xlog.Slog(e.log)),
	}, services...)
	if errors.Is(err, xrun.ErrSignal) {
		return nil
	}
	return err
}

// newHandler 构建 serve 的 HTTP 处理器，tel 非 nil 时开启 /v1/metrics。
func newHandler(s *xfilestore.Store, log xlog.Logger, tel *telemetry) http.Handler {
	opts := []httpapi.Option{httpapi.WithLogger(log)}
	if tel != nil {
		opts = append(opts, httpapi.WithMetricsReader(tel.reader))
	}
	return httpapi.New(s, opts...)
}

// telemetry serve 进程内的指标管道。存储的操作计数与容量 gauge 写入 provider，
// 由 /v1/metrics 按需从 reader 拉取。追踪沿用全局 TracerProvider。
type telemetry struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	observer *xmetrics.OTelObserver
}

func newTelemetry() (*telemetry, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	obs, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(provider))
	if err != nil {
		_ = provider.Shutdown(context.Background()) //nolint:errcheck // 创建失败路径
		return nil, err
	}
	return &telemetry{reader: reader, provider: provider, observer: obs}, nil
}

func (t *telemetry) shutdown(log xlog.Logger) {
	ctx := context.Background()
	if err := t.provider.Shutdown(ctx); err != nil {
		log.Warn(ctx, "metrics shutdown failed", xlog.Err(err))
	}
}

// reloadLogLevel 配置文件变更后应用新的日志级别，其余配置需重启生效。
func (e *env) reloadLogLevel(cfg xconf.Config, err error) {
	ctx := context.Background()
	if err != nil {
		e.log.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	var lc LogConfig
	if err := cfg.Unmarshal("log", &lc); err != nil {
		e.log.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	if lc.Level == "" {
		return
	}
	level, err := xlog.ParseLevel(lc.Level)
	if err != nil {
		e.log.Warn(ctx, "invalid log level", slog.String("level", lc.Level))
		return
	}
	if level != e.log.GetLevel() {
		e.log.SetLevel(level)
		e.log.Info(ctx, "log level changed", slog.String("level", level.String()))
	}
}

// setupSignalHandler 第一次信号取消 ctx，第二次强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
