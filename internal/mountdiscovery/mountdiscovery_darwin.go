//go:build darwin

package mountdiscovery

import "golang.org/x/sys/unix"

var allowedFstypes = map[string]bool{
	"ext2":    true,
	"ext3":    true,
	"ext4":    true,
	"vfat":    true,
	"ntfs":    true,
	"fuseblk": true,
	"hfs":     true,
	"apfs":    true,
}

func availableRoots() []string {
	available, _ := readMounts()
	return available
}

func excludedMounts() []string {
	_, excluded := readMounts()
	return excluded
}

func readMounts() (available, excluded []string) {
	n, err := unix.Getfsstat(nil, unix.MNT_NOWAIT)
	if err != nil || n <= 0 {
		return nil, nil
	}
	buf := make([]unix.Statfs_t, n)
	if _, err := unix.Getfsstat(buf, unix.MNT_NOWAIT); err != nil {
		return nil, nil
	}
	for _, st := range buf {
		mountpoint := bytesToString(st.Mntonname[:])
		fstype := bytesToString(st.Fstypename[:])
		if allowedFstypes[fstype] {
			available = append(available, mountpoint)
		} else {
			excluded = append(excluded, mountpoint)
		}
	}
	return available, excluded
}

func bytesToString(b []int8) string {
	buf := make([]byte, 0, len(b))
	for _, c := range b {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}
	return string(buf)
}
