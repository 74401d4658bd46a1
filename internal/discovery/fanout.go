package discovery

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut runs fn for indices [0, n). With parallelism <= 1 the calls run
// sequentially in index order. Results are slotted by index, so callers merge
// in the same order either way. The only error returned is ctx's.
func fanOut[T any](ctx context.Context, n, parallelism int, fn func(ctx context.Context, i int) T) ([]T, error) {
	results := make([]T, n)
	if parallelism <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = fn(ctx, i)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// chunkCount is ceil(n/size).
func chunkCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}
