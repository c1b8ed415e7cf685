//go:build windows

package diskspace

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

func query(path string) (total, available uint64, err error) {
	root := volumeRoot(path)
	ptr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return 0, 0, err
	}

	var freeAvailToCaller, totalBytes, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &freeAvailToCaller, &totalBytes, &totalFree); err != nil {
		return 0, 0, err
	}
	return totalBytes, freeAvailToCaller, nil
}

// volumeRoot reduces an arbitrary path to the drive root GetDiskFreeSpaceEx
// expects (e.g. "C:\").
func volumeRoot(path string) string {
	vol := filepath.VolumeName(path)
	if vol == "" {
		return path
	}
	if len(vol) > 0 && vol[len(vol)-1] == '\\' {
		return vol
	}
	return vol + `\`
}
