package parserutil

import (
	"context"
	"sync"
)

// DefaultParallelism bounds concurrent outbound page fetches per request
const DefaultParallelism = 4

// RunEach calls fn for every index in [0, n) with at most limit calls in flight
// and returns once all of them have finished. fn owns slot i of whatever result
// slice the caller keeps, so order is preserved without extra locking.
// Indexes not yet started when ctx is cancelled are skipped.
func RunEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}
	if limit <= 0 {
		limit = DefaultParallelism
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, i)
		}()
	}
	wg.Wait()
}
