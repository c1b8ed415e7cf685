// Package mountdiscovery enumerates the mount points a scan is allowed to
// cross into (AvailableRoots) versus those it must treat as boundaries
// (ExcludedMounts), so the scanner never wanders onto network shares,
// pseudo-filesystems, or removable media it wasn't asked to scan.
package mountdiscovery

// AvailableRoots returns the mount points eligible for scanning on this
// platform.
func AvailableRoots() []string {
	return availableRoots()
}

// ExcludedMounts returns mount points discovered but excluded by the
// platform's fstype/drive-type policy.
func ExcludedMounts() []string {
	return excludedMounts()
}
