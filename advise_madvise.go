//go:build linux || darwin

package primebloom

import "golang.org/x/sys/unix"

// adviseRandom tells the kernel that a mapped filter is probed at random
// offsets, which disables readahead around each faulted page.
// Best-effort: errors are silently ignored.
func adviseRandom(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}
