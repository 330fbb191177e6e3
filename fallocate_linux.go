//go:build linux

package primebloom

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a new filter file so writes through
// the mapping cannot SIGBUS on a full disk. Freshly reserved blocks read as
// zero, which is the empty filter.
func fallocateFile(file *os.File, size int64) error {
	if err := unix.Fallocate(int(file.Fd()), 0, 0, size); err != nil {
		// Some filesystems (NFS, tmpfs on old kernels) lack fallocate.
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// Fallocate reserves blocks but doesn't set file size.
	return unix.Ftruncate(int(file.Fd()), size)
}
