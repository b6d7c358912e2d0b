package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// mapConcurrent applies fn to every item, bounded by limit in-flight calls,
// and returns results in input order. It stops (and returns the first
// error) as soon as any call fails, cancelling the others via errgroup's
// derived context — grounded on the pack's golang.org/x/sync usage for
// bounded per-project LLM fan-out (stages 1-4 are order-invariant, so
// issuing their calls concurrently never changes the result).
func mapConcurrent[T, R any](ctx context.Context, limit int64, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(limit)
	results := make([]R, len(items))

	for i, item := range items {
		i, item := i, item
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
