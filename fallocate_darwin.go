//go:build darwin

package primebloom

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a new filter file so writes through
// the mapping cannot SIGBUS on a full disk. On macOS this is fcntl
// F_PREALLOCATE, which reserves space but leaves the size to Ftruncate.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	if err := unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst); err != nil {
		return unix.Ftruncate(int(file.Fd()), size)
	}
	return unix.Ftruncate(int(file.Fd()), size)
}
