//go:build !linux && !darwin

package cache

// FreeDiskSpace is unsupported on this platform; statistics report 0.
func FreeDiskSpace(path string) uint64 {
	return 0
}
