//go:build !linux && !darwin

package primebloom

import "os"

// fallocateFile sizes a new filter file. Without a native fallocate this only
// sets the length; disk blocks may still be allocated lazily.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
