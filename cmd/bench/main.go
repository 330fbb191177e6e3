// Bench is a benchmarking tool for measuring primebloom insert and lookup
// throughput, memory usage and the observed false positive rate.
//
// Usage:
//
//	go run ./cmd/bench -n 1000 -p 0.01 -lookups 9000000
//
// Flags:
//
//	-n         Number of elements to insert (default: 1,000)
//	-p         Target false positive probability (default: 0.01)
//	-lookups   Number of absent keys to probe (default: 9,000,000)
//	-keysize   Key size in bytes (default: 32)
//	-workers   Number of parallel workers for lookups (default: GOMAXPROCS)
//	-hash      Digest: xxh64, xxh3 or murmur3 (default: xxh64)
//	-file      Build the filter in a memory-mapped file instead of the heap
//	-v         Log filter sizing to stderr
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/tamirms/primebloom"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// randomKeys returns n keys of size bytes backed by one allocation. The first
// byte is forced to tag so key sets generated with different tags never
// overlap.
func randomKeys(n, size int, tag byte) [][]byte {
	backing := make([]byte, n*size)
	_, _ = rand.Read(backing) // crypto/rand.Read error is fatal system issue; ignore for benchmark
	keys := make([][]byte, n)
	for i := range keys {
		k := backing[i*size : (i+1)*size : (i+1)*size]
		k[0] = tag
		keys[i] = k
	}
	return keys
}

func main() {
	nFlag := flag.Uint64("n", 1000, "number of elements to insert")
	pFlag := flag.Float64("p", 0.01, "target false positive probability")
	lookupsFlag := flag.Int("lookups", 9_000_000, "number of absent keys to probe")
	keySizeFlag := flag.Int("keysize", 32, "key size in bytes")
	workersFlag := flag.Int("workers", runtime.GOMAXPROCS(0), "number of parallel workers for lookups")
	hashFlag := flag.String("hash", "xxh64", "digest: xxh64, xxh3 or murmur3")
	fileFlag := flag.Bool("file", false, "build the filter in a memory-mapped file")
	verbose := flag.Bool("v", false, "log filter sizing to stderr")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (insert phase only)")
	flag.Parse()

	if *keySizeFlag < 1 {
		fmt.Println("keysize must be at least 1")
		os.Exit(2)
	}
	algo, err := primebloom.ParseHashAlgorithm(*hashFlag)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	numKeys := int(*nFlag)
	fmt.Println("Generating keys...")
	keys := randomKeys(numKeys, *keySizeFlag, 0x00)
	absent := randomKeys(*lookupsFlag, *keySizeFlag, 0xFF)

	fmt.Println("Hashing keys...")
	var hashDurations [3]time.Duration
	var sink uint64
	for i, a := range []primebloom.HashAlgorithm{primebloom.HashXXH64, primebloom.HashXXH3, primebloom.HashMurmur3} {
		start := time.Now()
		for _, key := range keys {
			sink ^= a.Sum64(key, 0x1234)
		}
		hashDurations[i] = time.Since(start)
	}
	_ = sink

	opts := []primebloom.Option{
		primebloom.WithHash(algo),
		primebloom.WithLogger(logger),
	}

	var (
		filter *primebloom.Filter
		closer func() error
	)
	if *fileFlag {
		tmpDir, err := os.MkdirTemp("", "bench-")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			return
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()
		ff, err := primebloom.Create(filepath.Join(tmpDir, "bench.pblm"), *pFlag, *nFlag, opts...)
		if err != nil {
			fmt.Printf("Create failed: %v\n", err)
			return
		}
		filter, closer = ff.Filter(), ff.Close
	} else {
		filter, err = primebloom.New(*pFlag, *nFlag, opts...)
		if err != nil {
			fmt.Printf("New failed: %v\n", err)
			return
		}
		closer = filter.Close
	}
	defer func() { _ = closer() }()

	fmt.Print(filter.Describe())

	runtime.GC()
	baselineRSS := getMaxRSS()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Println("Inserting keys...")
	insertStart := time.Now()
	for _, key := range keys {
		if err := filter.Add(key); err != nil {
			fmt.Printf("Add failed: %v\n", err)
			return
		}
	}
	insertDuration := time.Since(insertStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}

	ctx := context.Background()
	fmt.Println("Checking inserted keys...")
	present, err := filter.CountMembers(ctx, keys, *workersFlag)
	if err != nil {
		fmt.Printf("CountMembers failed: %v\n", err)
		return
	}

	fmt.Println("Probing absent keys...")
	lookupStart := time.Now()
	falsePositives, err := filter.CountMembers(ctx, absent, *workersFlag)
	if err != nil {
		fmt.Printf("CountMembers failed: %v\n", err)
		return
	}
	lookupDuration := time.Since(lookupStart)

	fmt.Println("Benchmarking single-threaded lookups...")
	numQueries := min(1_000_000, len(absent))
	queryStart := time.Now()
	for i := 0; i < numQueries; i++ {
		_, _ = filter.Test(absent[i]) // Benchmark: measuring throughput, not correctness
	}
	queryDuration := time.Since(queryStart)
	ctStart := time.Now()
	for i := 0; i < numQueries; i++ {
		_, _ = filter.TestConstantTime(absent[i])
	}
	ctDuration := time.Since(ctStart)

	peakRSSMem := getMaxRSS() - baselineRSS
	stats := filter.Stats()

	fpRate := 0.0
	if len(absent) > 0 {
		fpRate = float64(falsePositives) / float64(len(absent))
	}
	perQuery := func(d time.Duration) float64 {
		if numQueries == 0 {
			return 0
		}
		return float64(d.Nanoseconds()) / float64(numQueries)
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦══════════════════╗\n")
	fmt.Printf("║ Hash: %-14s║ k: %-11d ║                  ║\n", algo, stats.NumPartitions)
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Metric              ║ Value          ║ Target           ║\n")
	fmt.Printf("╠═════════════════════╬════════════════╬══════════════════╣\n")
	fmt.Printf("║ Bits per element    ║ %6.3f bits/key║ -                ║\n", stats.BitsPerElement)
	fmt.Printf("║ Filter size         ║ %8.2f MB    ║ -                ║\n", float64(stats.SizeBytes)/1_000_000)
	fmt.Printf("║ Inserted found      ║ %8d/%-6s║ all              ║\n", present, shortCount(numKeys))
	fmt.Printf("║ False positive rate ║ %10.6f     ║ %-16g ║\n", fpRate, *pFlag)
	fmt.Printf("║ Estimated FP rate   ║ %10.6f     ║ -                ║\n", stats.EstimatedFalsePositiveRate)
	fmt.Printf("║ Fill ratio          ║ %10.4f     ║ ~0.5             ║\n", stats.FillRatio)
	fmt.Printf("║ Insert throughput   ║ %6.2f M/sec   ║ -                ║\n", float64(numKeys)/insertDuration.Seconds()/1_000_000)
	fmt.Printf("║ Parallel lookups    ║ %6.2f M/sec   ║ (%d workers)     ║\n", float64(len(absent))/lookupDuration.Seconds()/1_000_000, *workersFlag)
	fmt.Printf("║ Test latency        ║ %6.1f ns      ║ -                ║\n", perQuery(queryDuration))
	fmt.Printf("║ Constant-time test  ║ %6.1f ns      ║ -                ║\n", perQuery(ctDuration))
	fmt.Printf("║ Hash xxh64          ║ %6.2f sec     ║ -                ║\n", hashDurations[0].Seconds())
	fmt.Printf("║ Hash xxh3           ║ %6.2f sec     ║ -                ║\n", hashDurations[1].Seconds())
	fmt.Printf("║ Hash murmur3        ║ %6.2f sec     ║ -                ║\n", hashDurations[2].Seconds())
	fmt.Printf("║ Peak RSS growth     ║ %6.1f MB      ║ -                ║\n", float64(peakRSSMem)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╩══════════════════╝\n")
}

func shortCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dK", n/1_000)
	}
	return fmt.Sprintf("%d", n)
}
