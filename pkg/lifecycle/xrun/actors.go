package xrun

import (
	"context"
	"time"
)

// Ticker 每隔 interval 执行一次 fn，immediate 为 true 时启动即执行一次。
// fn 返回错误时任务结束并返回该错误。
//
//	g.Go(xrun.Ticker(time.Minute, true, func(ctx context.Context) error {
//	    return refresh(ctx)
//	}))
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return tick(ctx, 0, interval, immediate, fn)
	}
}

// DelayedTicker 等待 delay 后执行首轮 fn，此后每隔 interval 执行。
func DelayedTicker(delay, interval time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return tick(ctx, delay, interval, delay == 0, fn)
	}
}

func tick(ctx context.Context, delay, interval time.Duration, immediate bool, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if delay < 0 {
		return ErrInvalidDelay
	}
	if fn == nil {
		return ErrNilFunc
	}

	if delay > 0 {
		if err := Timer(delay, fn)(ctx); err != nil {
			return err
		}
	} else if immediate {
		// 已取消的 ctx 不触发副作用
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Timer 等待 delay 后执行一次 fn，delay 为 0 时立即执行。
func Timer(delay time.Duration, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if delay < 0 {
			return ErrInvalidDelay
		}
		if fn == nil {
			return ErrNilFunc
		}
		if delay == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx)
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return fn(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
