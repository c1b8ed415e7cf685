//go:build linux || darwin

package diriter

import "os"

// isReparsePoint is Windows-specific; Unix has no equivalent attribute.
func isReparsePoint(info os.FileInfo) bool {
	return false
}
