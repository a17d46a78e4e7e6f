/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package async

import "context"

// Future is the pending result of an operation running in the background.
// A Future is resolved exactly once and may be awaited any number of
// times, from any goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Await blocks until the result is ready or ctx is done. Cancelling the
// await abandons the wait only; the underlying operation keeps running on
// the context it was started with.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
		return f.val, f.err
	}
}

// Wait is Await for callers that only need the error.
func (f *Future[T]) Wait(ctx context.Context) error {
	_, err := f.Await(ctx)
	return err
}

// Done returns a channel that is closed once the result is ready.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Go runs fn in a new goroutine and returns its future result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		f.complete(fn())
	}()
	return f
}

// Do runs fn in a new goroutine and returns a future that resolves when
// it finishes.
func Do(fn func() error) *Future[struct{}] {
	return Go(func() (struct{}, error) {
		return struct{}{}, fn()
	})
}
