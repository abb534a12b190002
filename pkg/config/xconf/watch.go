package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 配置文件变更后调用，err 为 Reload 的结果。
type WatchCallback func(cfg Config, err error)

// WatchOption 监视器选项。
type WatchOption func(*Watcher)

// WithDebounce 防抖时间内的多次变更只触发一次重载，d <= 0 时忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 配置文件监视器。
type Watcher struct {
	cfg      Config
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	filename string
}

// Watch 创建监视器，调用 [Watcher.Run] 开始监视。
//
// 监视文件所在目录而非文件本身，编辑器保存时的删除重建不会丢失事件。
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNotReloadable
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(cfg.Path())
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch %s: %w", dir, err), fsw.Close())
	}
	w := &Watcher{
		cfg:      cfg,
		fs:       fsw,
		callback: callback,
		debounce: DefaultDebounce,
		filename: filepath.Base(cfg.Path()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run 阻塞直到 ctx 取消，退出时关闭底层 fsnotify watcher。
// 签名与 xrun.Group.Go 兼容，返回值恒为 nil。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close() //nolint:errcheck // 退出路径无需处理

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != w.filename || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			err := w.cfg.Reload()
			if w.callback != nil {
				w.callback(w.cfg, err)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if w.callback != nil {
				w.callback(w.cfg, fmt.Errorf("xconf: watch: %w", err))
			}
		}
	}
}
