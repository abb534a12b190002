// Package journal 持久化过期记录与扩容标记。
//
// 底层为单个 bbolt 文件，包含两个 bucket：
//
//	expiry  key -> 十进制 unix 毫秒截止时间
//	meta    "resizing" -> "1"（扩容进行中时存在）
//
// bbolt 的文件锁同时保证同一目录只被一个进程打开。
package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

var (
	// ErrLocked 日志文件被其他进程持有。
	ErrLocked = errors.New("journal: locked by another process")

	// ErrCorrupt 日志文件或其中的记录无法解析。
	ErrCorrupt = errors.New("journal: corrupt")

	// ErrClosed 日志已关闭。
	ErrClosed = errors.New("journal: closed")
)

var (
	bucketExpiry = []byte("expiry")
	bucketMeta   = []byte("meta")
	keyResizing  = []byte("resizing")
)

const filePerm = 0o600

// Record 一条过期记录。
type Record struct {
	Key      string
	Deadline time.Time
}

// Journal bbolt 支撑的过期日志。方法可并发调用。
type Journal struct {
	db *bbolt.DB
}

// Open 打开或创建 path 处的日志。
//
// 其他进程持有文件锁时，等待 timeout 后返回 ErrLocked；timeout 为 0 时
// 一直等待。文件不是合法的 bbolt 文件时返回包装了 ErrCorrupt 的错误，
// 调用方可用 [Discard] 移走后重新打开。
func Open(path string, timeout time.Duration) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	db, err := bbolt.Open(path, filePerm, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, classifyOpenError(err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketExpiry, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("journal: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, berrors.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrLocked, err)
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("journal: open: %w", err)
	}
	// 元数据页无效、校验失败、版本不符或文件过短
	return fmt.Errorf("%w: %w", ErrCorrupt, err)
}

// Discard 将损坏的日志文件改名为 <path>.corrupt-<unix 毫秒> 并返回新路径。
func Discard(path string) (string, error) {
	aside := path + ".corrupt-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := os.Rename(path, aside); err != nil {
		return "", fmt.Errorf("journal: discard: %w", err)
	}
	return aside, nil
}

// Close 关闭日志，重复调用返回 nil。
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) update(fn func(tx *bbolt.Tx) error) error {
	err := j.db.Update(fn)
	if errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func (j *Journal) view(fn func(tx *bbolt.Tx) error) error {
	err := j.db.View(fn)
	if errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// PutExpiry 写入或覆盖 key 的截止时间。
func (j *Journal) PutExpiry(key string, deadline time.Time) error {
	return j.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExpiry).Put([]byte(key), encodeDeadline(deadline))
	})
}

// RemoveExpiry 删除 key 的过期记录，不存在时为空操作。
func (j *Journal) RemoveExpiry(key string) error {
	return j.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExpiry).Delete([]byte(key))
	})
}

// LoadExpiries 读取全部过期记录（按 key 排序）。
//
// 无法解析的记录被跳过，并以包装了 ErrCorrupt 的错误汇总返回；
// 此时 records 仍包含其余可用记录。
func (j *Journal) LoadExpiries() ([]Record, error) {
	var (
		records []Record
		bad     []error
	)
	err := j.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketExpiry).ForEach(func(k, v []byte) error {
			deadline, err := decodeDeadline(v)
			if err != nil {
				bad = append(bad, fmt.Errorf("%w: key %q: %w", ErrCorrupt, k, err))
				return nil
			}
			records = append(records, Record{Key: string(k), Deadline: deadline})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, errors.Join(bad...)
}

// SetResizing 持久化扩容标记。
func (j *Journal) SetResizing(on bool) error {
	return j.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if on {
			return b.Put(keyResizing, []byte("1"))
		}
		return b.Delete(keyResizing)
	})
}

// Resizing 报告扩容标记是否存在。
func (j *Journal) Resizing() (bool, error) {
	var on bool
	err := j.view(func(tx *bbolt.Tx) error {
		on = tx.Bucket(bucketMeta).Get(keyResizing) != nil
		return nil
	})
	return on, err
}

// encodeDeadline 以毫秒保存截止时间，不足 1ms 的部分向上取整，
// 重新加载后的截止时间不早于原值。
func encodeDeadline(t time.Time) []byte {
	ms := t.UnixMilli()
	if t.Sub(time.UnixMilli(ms)) > 0 {
		ms++
	}
	return strconv.AppendInt(nil, ms, 10)
}

func decodeDeadline(v []byte) (time.Time, error) {
	ms, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
