package primebloom

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

// contextCheckInterval is how often workers check for context cancellation.
const contextCheckInterval = 10000

// CountMembers tests every key and returns how many are possibly present.
//
// Keys are split into contiguous chunks, one per worker, and tested in
// parallel. This is read-only and safe only while no Add is in flight.
// The first error (an empty key, or ctx cancellation) stops all workers.
func (f *Filter) CountMembers(ctx context.Context, keys [][]byte, workers int) (uint64, error) {
	if f.closed {
		return 0, bloomerrors.ErrFilterClosed
	}
	if workers < 1 {
		return 0, bloomerrors.ErrInvalidWorkers
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	var total atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(keys) + workers - 1) / workers
	for start := 0; start < len(keys); start += chunk {
		part := keys[start:min(start+chunk, len(keys))]
		g.Go(func() error {
			var hits uint64
			for i, key := range part {
				if i%contextCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				ok, err := f.Test(key)
				if err != nil {
					return err
				}
				if ok {
					hits++
				}
			}
			total.Add(hits)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total.Load(), nil
}
