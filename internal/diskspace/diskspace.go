// Package diskspace queries the total and available capacity of the
// filesystem backing a given path. The syscall itself is isolated per OS
// into its own build-tagged file; this file holds only the shared contract.
package diskspace

// Query returns the total and available byte capacity of the volume backing
// path. available is the space a non-privileged caller could still write
// (matching statfs's f_bavail, not f_bfree).
func Query(path string) (total, available uint64, err error) {
	return query(path)
}
