package primebloom_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/tamirms/primebloom"
)

func Example() {
	f, err := primebloom.New(0.01, 1000)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := f.Add([]byte("alice")); err != nil {
		log.Fatal(err)
	}
	ok, _ := f.Test([]byte("alice"))
	fmt.Println("alice:", ok)
	fmt.Println("partitions:", f.PartitionLengths())
	fmt.Println("bytes:", f.Size())
	// Output:
	// alice: true
	// partitions: [1327 1361 1367 1373 1381 1399 1409]
	// bytes: 1205
}

func ExampleWithBuffer() {
	// Reserve 8 bytes of caller metadata ahead of the filter bits.
	buf := make([]byte, 8+1205)
	f, err := primebloom.New(0.01, 1000,
		primebloom.WithBuffer(buf),
		primebloom.WithPrefixLen(8))
	if err != nil {
		log.Fatal(err)
	}
	copy(f.Prefix(), "v1-users")
	_ = f.Add([]byte("bob"))
	f.Close()

	// buf now holds the whole layout and can be persisted or re-mounted.
	g, _ := primebloom.New(0.01, 1000,
		primebloom.WithBuffer(buf),
		primebloom.WithPrefixLen(8))
	defer g.Close()
	ok, _ := g.Test([]byte("bob"))
	fmt.Println(string(buf[:8]), ok)
	// Output:
	// v1-users true
}

func ExampleCreate() {
	dir, err := os.MkdirTemp("", "primebloom")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "users.pblm")

	ff, err := primebloom.Create(path, 0.001, 10000)
	if err != nil {
		log.Fatal(err)
	}
	_ = ff.Filter().Add([]byte("carol"))
	if err := ff.Close(); err != nil {
		log.Fatal(err)
	}

	ff, err = primebloom.Open(path, primebloom.WithReadOnly())
	if err != nil {
		log.Fatal(err)
	}
	defer ff.Close()
	ok, _ := ff.Filter().Test([]byte("carol"))
	fmt.Println(ok, ff.Filter().K(), ff.Filter().Count(), ff.Verify())
	// Output:
	// true 10 1 <nil>
}
