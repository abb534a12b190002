// xfsctl 是 xfilestore 的命令行工具，既可直接操作本地存储目录，也可作为 HTTP 服务运行。
//
// 用法:
//
//	xfsctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config     YAML/JSON 配置文件
//	-r, --root       存储根目录（覆盖配置文件）
//	-m, --max-space  容量上限，字节（覆盖配置文件）
//	-w, --lock-wait  等待其他进程释放存储锁的最长时间 (默认: 0，不等待)
//	    --log-level  日志级别 (debug/info/warn/error)
//
// 命令:
//
//	serve              启动 HTTP 服务（含 /v1/metrics），按配置定时自动清理
//	put <key> [file]   写入条目，file 省略时读取标准输入
//	get <key>          读取条目到标准输出或 -o 指定的文件
//	rm <key>           删除条目
//	purge              按百分比 (--percent) 或字节数 (--bytes) 清理最旧的条目
//	stat [key]         输出存储统计或单个条目信息 (JSON)
//
// 退出码:
//
//	0: 成功
//	1: 执行失败
//	2: 参数错误
//	3: 条目不存在
//
// 示例:
//
//	xfsctl -r /data/fs -m 1073741824 put report.csv ./report.csv --ttl 1h
//	xfsctl -r /data/fs -m 1073741824 get report.csv -o /tmp/report.csv
//	xfsctl -c /etc/xfsctl.yaml purge --percent 20
//	xfsctl -c /etc/xfsctl.yaml serve
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xfilestore/pkg/storage/xfilestore"
)

// 退出码。
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	setupSignalHandler(cancel)

	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// usageError 参数错误，映射到退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// onUsageError 将 urfave/cli 的参数解析错误统一为 usageError。
func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{msg: err.Error()}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	err := app.Run(ctx, args)
	return exitCode(stderr, err)
}

// exitCode 输出错误并返回对应退出码。
func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return exitUsage
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	if errors.Is(err, xfilestore.ErrNotFound) {
		return exitNotFound
	}
	return exitFailure
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	app := &cli.Command{
		Name:      "xfsctl",
		Usage:     "容量受限、支持过期的本地文件存储",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (YAML/JSON)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "存储根目录",
			},
			&cli.Int64Flag{
				Name:    "max-space",
				Aliases: []string{"m"},
				Usage:   "容量上限（字节）",
			},
			&cli.DurationFlag{
				Name:    "lock-wait",
				Aliases: []string{"w"},
				Usage:   "等待存储锁的最长时间",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
			},
		},
		Commands:     createCommands(),
		OnUsageError: onUsageError,
		// run 统一映射退出码，禁止 urfave/cli 直接调用 os.Exit。
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 {
				return newUsageError("未知命令: %s", cmd.Args().First())
			}
			return cli.ShowRootCommandHelp(cmd)
		},
	}
	for _, sub := range app.Commands {
		sub.OnUsageError = onUsageError
	}
	return app
}
