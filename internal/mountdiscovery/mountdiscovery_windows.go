//go:build windows

package mountdiscovery

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func availableRoots() []string {
	var roots []string
	mask := windows.GetLogicalDrives()
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		drive := fmt.Sprintf("%c:\\", 'A'+i)
		switch driveType(drive) {
		case windows.DRIVE_FIXED, windows.DRIVE_REMOVABLE:
			roots = append(roots, drive)
		}
	}
	return roots
}

func excludedMounts() []string {
	var excluded []string
	mask := windows.GetLogicalDrives()
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		drive := fmt.Sprintf("%c:\\", 'A'+i)
		switch driveType(drive) {
		case windows.DRIVE_FIXED, windows.DRIVE_REMOVABLE:
		default:
			excluded = append(excluded, drive)
		}
	}
	return excluded
}

func driveType(drive string) uint32 {
	ptr, err := windows.UTF16PtrFromString(drive)
	if err != nil {
		return windows.DRIVE_UNKNOWN
	}
	return windows.GetDriveType(ptr)
}
