//go:build !linux && !darwin

package shardfs

// DiskFree 当前平台不支持。
func DiskFree(string) (uint64, error) {
	return 0, ErrUnsupported
}
