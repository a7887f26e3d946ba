package fn

import (
	"context"
	"fmt"
	"sync"
)

// ParMapResult applies f with bounded concurrency, returning Results in order.
func ParMapResult[T, U any](items []T, workers int, f func(T) Result[U]) []Result[U] {
	return ParMapCtx(context.Background(), items, workers, func(_ context.Context, v T) Result[U] {
		return f(v)
	})
}

// ParMapCtx applies f to each item with at most workers in flight and returns
// the Results in input order. Each goroutine writes only its own slot.
//
// Items not yet started when ctx is done are not run; their slot holds
// ctx.Err(). A panic inside f is recovered into that item's Result.
func ParMapCtx[T, U any](ctx context.Context, items []T, workers int, f func(context.Context, T) Result[U]) []Result[U] {
	out := make([]Result[U], len(items))
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}
	if workers == 0 {
		return out
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, v := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			for j := i; j < len(items); j++ {
				out[j] = Err[U](ctx.Err())
			}
			wg.Wait()
			return out
		}
		wg.Add(1)
		go func(i int, v T) {
			defer func() { <-sem; wg.Done() }()
			defer func() {
				if p := recover(); p != nil {
					out[i] = Err[U](fmt.Errorf("panic: %v", p))
				}
			}()
			out[i] = f(ctx, v)
		}(i, v)
	}
	wg.Wait()
	return out
}

// FanOut runs functions concurrently and returns results in order.
func FanOut[T any](fns ...func() T) []T {
	out := make([]T, len(fns))
	var wg sync.WaitGroup
	for i, f := range fns {
		wg.Add(1)
		go func(i int, f func() T) {
			defer wg.Done()
			out[i] = f()
		}(i, f)
	}
	wg.Wait()
	return out
}
