package primes

import (
	"errors"
	"testing"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

// naivePrimes returns all primes below max by trial division against the
// primes found so far.
func naivePrimes(max uint64) []uint64 {
	var out []uint64
	for n := uint64(2); n < max; n++ {
		prime := true
		for _, p := range out {
			if p*p > n {
				break
			}
			if n%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			out = append(out, n)
		}
	}
	return out
}

func TestGenerateMatchesTrialDivision(t *testing.T) {
	for _, max := range []uint64{2, 3, 4, 5, 10, 11, 100, 301, 1669, 5000} {
		got, err := Generate(max)
		if err != nil {
			t.Fatalf("Generate(%d): %v", max, err)
		}
		want := naivePrimes(max)
		if len(got) != len(want) {
			t.Fatalf("Generate(%d): got %d primes, want %d", max, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Generate(%d)[%d] = %d, want %d", max, i, got[i], want[i])
			}
		}
	}
}

func TestGenerateStrictlyBelowBound(t *testing.T) {
	// 11 and 13 are prime; a bound equal to a prime must exclude it.
	got, err := Generate(13)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{2, 3, 5, 7, 11}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestGenerateAscendingAndPrime(t *testing.T) {
	got, err := Generate(200_000)
	if err != nil {
		t.Fatal(err)
	}
	// pi(200000) = 17984
	if len(got) != 17984 {
		t.Errorf("got %d primes below 200000, want 17984", len(got))
	}
	for i, p := range got {
		if !IsPrime(p) {
			t.Fatalf("table[%d] = %d is not prime", i, p)
		}
		if i > 0 && got[i-1] >= p {
			t.Fatalf("table not strictly ascending at %d: %d >= %d", i, got[i-1], p)
		}
	}
	if cap(got) != len(got) {
		t.Errorf("table not trimmed: len %d cap %d", len(got), cap(got))
	}
}

func TestGenerateEmptyTable(t *testing.T) {
	got, err := Generate(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Generate(2) = %v, want empty", got)
	}
}

func TestGenerateInvalidBound(t *testing.T) {
	for _, max := range []uint64{0, 1} {
		if _, err := Generate(max); !errors.Is(err, bloomerrors.ErrInvalidBound) {
			t.Errorf("Generate(%d) error = %v, want ErrInvalidBound", max, err)
		}
	}
	if _, err := Generate(maxBound + 1); !errors.Is(err, bloomerrors.ErrAllocation) {
		t.Errorf("Generate(maxBound+1) error = %v, want ErrAllocation", err)
	}
}

// TestApproxCountIsUpperBound verifies the pre-size estimate never undercounts.
func TestApproxCountIsUpperBound(t *testing.T) {
	for _, max := range []uint64{2, 3, 10, 100, 1000, 9586, 65536, 1 << 20} {
		got, err := Generate(max)
		if err != nil {
			t.Fatal(err)
		}
		if approx := ApproxCount(max); approx < len(got) {
			t.Errorf("ApproxCount(%d) = %d < actual %d", max, approx, len(got))
		}
	}
	if ApproxCount(1) != 0 {
		t.Errorf("ApproxCount(1) = %d, want 0", ApproxCount(1))
	}
}

func TestIsPrime(t *testing.T) {
	tests := []struct {
		n    uint64
		want bool
	}{
		{0, false}, {1, false}, {2, true}, {3, true}, {4, false},
		{25, false}, {29, true}, {1327, true}, {1369, false},
		{1409, true}, {4294967291, true}, {18446744073709551615, false},
	}
	for _, tt := range tests {
		if got := IsPrime(tt.n); got != tt.want {
			t.Errorf("IsPrime(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestIsqrt(t *testing.T) {
	for _, n := range []uint64{0, 1, 2, 3, 4, 15, 16, 17, 1 << 32, 1<<62 + 12345, ^uint64(0)} {
		r := isqrt(n)
		if r*r > n {
			t.Errorf("isqrt(%d) = %d too large", n, r)
		}
		if r+1 <= n/(r+1) {
			t.Errorf("isqrt(%d) = %d too small", n, r)
		}
	}
}
