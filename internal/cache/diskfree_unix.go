//go:build linux || darwin

package cache

import "golang.org/x/sys/unix"

// FreeDiskSpace reports the bytes available to unprivileged writers on the
// filesystem holding path, or 0 when the query fails.
func FreeDiskSpace(path string) uint64 {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0
	}
	return st.Bavail * uint64(st.Bsize)
}
