//go:build linux || darwin

package diskspace

import "golang.org/x/sys/unix"

func query(path string) (total, available uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	bsize := uint64(st.Bsize)
	total = bsize * uint64(st.Blocks)
	available = bsize * uint64(st.Bavail)
	return total, available, nil
}
