// inspect is a diagnostic tool for primebloom filter files. It maps the file
// read-only, validates the header and partition table, prints the sizing, and
// verifies the checksum of the partition bits.
//
// Usage Examples
// ==============
//
// Basic validation:
//
//	inspect -file users.pblm
//
// Verbose mode (fill ratio, estimated false positive rate, user prefix):
//
//	inspect -file users.pblm -v
//
// Membership queries for the remaining arguments:
//
//	inspect -file users.pblm alice bob
//
// Exit Codes
// ==========
//
// 0: The file is valid.
// 1: The file is corrupted or unreadable (checksum mismatch, truncated, etc.)
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tamirms/primebloom"
)

func main() {
	filePath := flag.String("file", "filter.pblm", "Path to the filter file")
	verbose := flag.Bool("v", false, "Verbose mode (print estimates and user prefix)")
	debug := flag.Bool("debug", false, "Log file mapping details to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(os.Stdout, logger, *filePath, *verbose, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "[err] %v\n", err)
		os.Exit(1)
	}
}

// run inspects the file at path and reports to w. Keys, if any, are tested
// for membership after the file has been verified.
func run(w io.Writer, logger *slog.Logger, path string, verbose bool, keys []string) error {
	fmt.Fprintf(w, "Checking primebloom file %s\n", path)

	ff, err := primebloom.Open(path, primebloom.WithReadOnly(), primebloom.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = ff.Close() }()

	f := ff.Filter()
	fmt.Fprint(w, f.Describe())
	fmt.Fprintf(w, "Hash: %s (seed %d)\n", f.Hash(), f.Seed())
	fmt.Fprintf(w, "File size: %d bytes (%d metadata, %d user prefix)\n",
		f.TotalSize(), f.PrefixLen()-uint64(len(ff.UserPrefix())), len(ff.UserPrefix()))

	if verbose {
		s := f.Stats()
		fmt.Fprintf(w, "Bits per element: %.3f\n", s.BitsPerElement)
		fmt.Fprintf(w, "Fill ratio: %.4f\n", s.FillRatio)
		fmt.Fprintf(w, "Estimated false positive rate: %.10f\n", s.EstimatedFalsePositiveRate)
		if len(ff.UserPrefix()) > 0 {
			fmt.Fprintf(w, "User prefix: %q\n", ff.UserPrefix())
		}
	}

	if err := ff.Verify(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	fmt.Fprintln(w, "Checksum: OK")

	for _, key := range keys {
		ok, err := f.Test([]byte(key))
		if err != nil {
			return fmt.Errorf("test %q: %w", key, err)
		}
		verdict := "absent"
		if ok {
			verdict = "maybe present"
		}
		fmt.Fprintf(w, "%s: %s\n", key, verdict)
	}
	return nil
}
