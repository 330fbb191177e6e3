package primebloom

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a PCG generator seeded from the test name, so every test
// sees its own reproducible stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// fillFromRNG fills buf with pseudo-random bytes from rng.
func fillFromRNG(rng *rand.Rand, buf []byte) {
	for i := 0; i+8 <= len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], rng.Uint64())
	}
	if tail := len(buf) % 8; tail > 0 {
		v := rng.Uint64()
		start := len(buf) - tail
		for j := 0; j < tail; j++ {
			buf[start+j] = byte(v >> (j * 8))
		}
	}
}

// generateRandomKeys creates n pseudo-random keys of keySize bytes, backed by
// one allocation.
func generateRandomKeys(rng *rand.Rand, n, keySize int) [][]byte {
	backing := make([]byte, n*keySize)
	fillFromRNG(rng, backing)
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = backing[i*keySize : (i+1)*keySize : (i+1)*keySize]
	}
	return keys
}

// mustNew builds a filter or fails the test.
func mustNew(t testing.TB, p float64, n uint64, opts ...Option) *Filter {
	t.Helper()
	f, err := New(p, n, opts...)
	if err != nil {
		t.Fatalf("New(%g, %d): %v", p, n, err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// mustAdd inserts every key or fails the test.
func mustAdd(t testing.TB, f *Filter, keys [][]byte) {
	t.Helper()
	for i, key := range keys {
		if err := f.Add(key); err != nil {
			t.Fatalf("Add(key %d): %v", i, err)
		}
	}
}

// mustTest runs Test and TestConstantTime, fails if they disagree, and
// returns the shared answer.
func mustTest(t testing.TB, f *Filter, key []byte) bool {
	t.Helper()
	a, err := f.Test(key)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	b, err := f.TestConstantTime(key)
	if err != nil {
		t.Fatalf("TestConstantTime: %v", err)
	}
	if a != b {
		t.Fatalf("Test=%v but TestConstantTime=%v for key %x", a, b, key)
	}
	return a
}
