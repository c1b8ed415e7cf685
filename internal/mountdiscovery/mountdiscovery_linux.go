//go:build linux

package mountdiscovery

import (
	"bufio"
	"os"
	"strings"
)

// allowedFstypes mirrors the hardcoded allowlist separating scannable local
// filesystems from pseudo and network filesystems.
var allowedFstypes = map[string]bool{
	"ext2":    true,
	"ext3":    true,
	"ext4":    true,
	"vfat":    true,
	"ntfs":    true,
	"fuseblk": true,
}

func availableRoots() []string {
	available, _ := readMounts()
	return available
}

func excludedMounts() []string {
	_, excluded := readMounts()
	return excluded
}

// readMounts parses /proc/mounts, splitting each line on whitespace into
// (device, mountpoint, fstype, ...) and applying allowedFstypes.
func readMounts() (available, excluded []string) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountpoint, fstype := fields[1], fields[2]
		if allowedFstypes[fstype] {
			available = append(available, mountpoint)
		} else {
			excluded = append(excluded, mountpoint)
		}
	}
	return available, excluded
}
