//go:build linux

package watcher

import (
	"os"
	"strconv"
	"strings"
)

// dirLimit reads inotify's per-user watch-descriptor ceiling from procfs.
func dirLimit() int64 {
	data, err := os.ReadFile("/proc/sys/fs/inotify/max_user_watches")
	if err != nil {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
