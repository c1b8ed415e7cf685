//go:build windows

package diriter

import (
	"os"
	"syscall"
)

// isReparsePoint reports whether info carries FILE_ATTRIBUTE_REPARSE_POINT,
// the attribute shared by symlinks, junctions and mounted volumes on NTFS.
func isReparsePoint(info os.FileInfo) bool {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false
	}
	return data.FileAttributes&syscall.FILE_ATTRIBUTE_REPARSE_POINT != 0
}
