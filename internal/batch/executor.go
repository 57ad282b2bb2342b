// Package batch runs ordered task lists in fixed-size concurrency windows.
//
// Items are partitioned into consecutive windows of at most the configured
// limit. All items of a window run concurrently and the executor waits for
// the whole window to settle before starting the next, so peak concurrent
// work never exceeds the limit.
package batch

import (
	"context"
	"sync"
)

// Result is the settled outcome of one item. Exactly one Result is produced
// per input item; a failed worker never aborts the batch.
type Result[T any] struct {
	Item T
	Err  error
}

// Success reports whether the item's worker returned without error.
func (r Result[T]) Success() bool {
	return r.Err == nil
}

// Run executes items in windows of at most limit concurrent workers,
// recording each outcome into stats. Results are returned in settle order,
// one per item. A limit below 1 is treated as 1. An empty item list returns
// immediately with no results.
//
// Once ctx is cancelled no further window starts; the remaining items settle
// as failures carrying the context error.
func Run[T any](ctx context.Context, items []T, limit int, stats *Stats, worker func(context.Context, T) error) []Result[T] {
	if limit < 1 {
		limit = 1
	}

	results := make([]Result[T], 0, len(items))
	var mu sync.Mutex

	settle := func(item T, err error) {
		mu.Lock()
		results = append(results, Result[T]{Item: item, Err: err})
		mu.Unlock()
		if err != nil {
			stats.RecordFailure()
		} else {
			stats.RecordSuccess()
		}
	}

	for start := 0; start < len(items); start += limit {
		end := start + limit
		if end > len(items) {
			end = len(items)
		}
		window := items[start:end]

		if err := ctx.Err(); err != nil {
			for _, item := range items[start:] {
				settle(item, err)
			}
			break
		}

		var wg sync.WaitGroup
		for _, item := range window {
			wg.Add(1)
			go func(item T) {
				defer wg.Done()
				settle(item, worker(ctx, item))
			}(item)
		}
		wg.Wait()
	}

	return results
}
