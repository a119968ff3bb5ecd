// Package fanout provides the two concurrency combinators used when a request
// fans out to an upstream once per item: All fails on the first error, Settled
// keeps whatever succeeded.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// All calls fn for every index in [0, n) concurrently and returns the results in
// index order. The first error cancels the context handed to the other calls and
// is returned; no partial results are returned with it.
func All[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := fn(gctx, i)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Settled calls fn for every index in [0, n) concurrently and returns the
// successful results in index order. Failures are dropped from the result and
// reported to onErr, in index order, after all calls have returned. onErr may be nil.
func Settled[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error), onErr func(i int, err error)) []T {
	type outcome struct {
		value T
		err   error
	}

	outcomes := make([]outcome, n)
	done := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			v, err := fn(ctx, i)
			outcomes[i] = outcome{value: v, err: err}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}

	results := make([]T, 0, n)
	for i, o := range outcomes {
		if o.err != nil {
			if onErr != nil {
				onErr(i, o.err)
			}
			continue
		}
		results = append(results, o.value)
	}
	return results
}
