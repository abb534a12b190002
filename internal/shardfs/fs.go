package shardfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/omeyang/xfilestore/pkg/util/xfile"
)

const (
	// DefaultChunkSize 每次向 Quota 申请的字节数。
	DefaultChunkSize = 32 * 1024

	dirPerm  = 0o750
	filePerm = 0o640
)

// Quota 写入额度。Acquire 返回实际授予的字节数（0 <= granted <= n）。
type Quota interface {
	Acquire(n int64) int64
}

// Entry 一个条目文件。
type Entry struct {
	Key     string
	Bucket  int
	Size    int64
	Created time.Time
}

// FS 以目录分片组织的条目文件集合。FS 本身不加锁，由调用方串行化。
type FS struct {
	root      string
	chunkSize int
}

// Option FS 选项。
type Option func(*FS)

// WithChunkSize 设置写入块大小，n <= 0 时忽略。
func WithChunkSize(n int) Option {
	return func(f *FS) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// New 打开 root 下的分片集合，root 不存在时创建。
func New(root string, opts ...Option) (*FS, error) {
	if err := xfile.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("shardfs: create root: %w", err)
	}
	f := &FS{root: root, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Root 返回分片根目录。
func (f *FS) Root() string {
	return f.root
}

func (f *FS) bucketDir(bucket int) (string, error) {
	return xfile.SafeJoin(f.root, strconv.Itoa(bucket))
}

func (f *FS) path(bucket int, key string) (string, error) {
	if err := xfile.ValidateName(key); err != nil {
		return "", err
	}
	return xfile.SafeJoin(f.root, strconv.Itoa(bucket), key)
}

// Create 在 bucket 中独占创建 key 并从 src 复制内容。
//
// 每个块写入前向 quota 申请额度；授予不足时写入已授予的前缀后返回
// ErrQuotaExceeded。任何失败都会删除已创建的文件，返回值 written 为已申请
// 并写入的字节数，调用方据此归还额度。
func (f *FS) Create(bucket int, key string, src io.Reader, quota Quota) (written int64, err error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm) //#nosec G304 -- 路径已校验
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, ErrExists
		}
		return 0, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(p)
		}
	}()

	buf := make([]byte, f.chunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			granted := quota.Acquire(int64(n))
			if granted > 0 {
				if _, werr := file.Write(buf[:granted]); werr != nil {
					return written + granted, werr
				}
				written += granted
			}
			if granted < int64(n) {
				return written, ErrQuotaExceeded
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// Remove 删除条目并返回其大小。
func (f *FS) Remove(bucket int, key string) (int64, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return 0, err
	}
	info, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotExist
		}
		return 0, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotExist
		}
		return 0, err
	}
	return info.Size(), nil
}

// Open 以只读方式打开条目。
func (f *FS) Open(bucket int, key string) (*os.File, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(p) //#nosec G304 -- 路径已校验
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return file, nil
}

// Stat 返回条目元数据。
func (f *FS) Stat(bucket int, key string) (Entry, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrNotExist
		}
		return Entry{}, err
	}
	return Entry{Key: key, Bucket: bucket, Size: info.Size(), Created: createdAt(p, info)}, nil
}

// Move 将 key 从 from 分片移到 to 分片。
//
// 源不存在而目标已存在时视为已完成（重复执行的迁移）。
func (f *FS) Move(from, to int, key string) error {
	if from == to {
		return nil
	}
	src, err := f.path(from, key)
	if err != nil {
		return err
	}
	dst, err := f.path(to, key)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if _, serr := os.Lstat(dst); serr == nil {
				return nil
			}
			return ErrNotExist
		}
		return err
	}
	return nil
}

// EnsureBuckets 创建 [from, to) 范围内的分片目录。
func (f *FS) EnsureBuckets(from, to int) error {
	for i := from; i < to; i++ {
		dir, err := f.bucketDir(i)
		if err != nil {
			return err
		}
		if err := xfile.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
	}
	return nil
}

// Buckets 返回磁盘上的分片目录下标（升序）。非数字目录和普通文件被忽略。
func (f *FS) Buckets() ([]int, error) {
	des, err := os.ReadDir(f.root)
	if err != nil {
		return nil, err
	}
	buckets := make([]int, 0, len(des))
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		i, err := strconv.Atoi(de.Name())
		if err != nil || i < 0 || strconv.Itoa(i) != de.Name() {
			continue
		}
		buckets = append(buckets, i)
	}
	sort.Ints(buckets)
	return buckets, nil
}

// List 枚举 bucket 中的条目，按文件名排序。分片目录不存在时返回空。
func (f *FS) List(bucket int) ([]Entry, error) {
	dir, err := f.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]Entry, 0, len(des))
	for _, de := range des {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// 枚举与删除并发时文件可能已消失
			continue
		}
		p := dir + string(os.PathSeparator) + de.Name()
		entries = append(entries, Entry{
			Key:     de.Name(),
			Bucket:  bucket,
			Size:    info.Size(),
			Created: createdAt(p, info),
		})
	}
	return entries, nil
}

// ListAll 枚举所有分片中的条目，按分片下标、文件名排序。
func (f *FS) ListAll() ([]Entry, error) {
	buckets, err := f.Buckets()
	if err != nil {
		return nil, err
	}
	var all []Entry
	for _, b := range buckets {
		entries, err := f.List(b)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}
