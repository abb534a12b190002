// Package xrun 管理进程内多个长期运行任务的并发启动与协调关闭。
//
// 基于 errgroup：任一任务返回错误或父 context 取消时，其余任务收到取消信号。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("xfsctl"))
//	g.Go(xrun.HTTPServer(srv, 5*time.Second))
//	g.Go(xrun.DelayedTicker(500*time.Millisecond, 100*time.Millisecond, sweep))
//	err := g.Wait()
//
// [Run] 额外监听 SIGHUP/SIGINT/SIGTERM/SIGQUIT，收到信号时返回 *[SignalError]。
package xrun
