package concurrency

import (
	"context"
	"errors"
	"sync"
)

// Options bounds a parallel fan-out.
type Options struct {
	// Workers is the maximum number of items in flight. <= 0 means DefaultWorkers.
	Workers int
}

const DefaultWorkers = 4

// ForEach runs fn for every item with at most opts.Workers running at once.
// Items not yet started when ctx is cancelled are skipped. The returned error
// joins every item failure plus ctx.Err() if anything was skipped.
func ForEach[T any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, index int, item T) error) error {
	if len(items) == 0 {
		return nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int)
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = fn(ctx, i, items[i])
			}
		}()
	}

	var skipped bool
feed:
	for i := range items {
		if ctx.Err() != nil {
			skipped = true
			break
		}
		select {
		case <-ctx.Done():
			skipped = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if skipped {
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}
