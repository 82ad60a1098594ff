package stream

import (
	"context"
	"sync"
)

// Await subscribes to src and blocks until its first value, an error, or
// completion. The subscription is released before Await returns.
func Await[T any](ctx context.Context, src Stream[T]) (T, error) {
	var (
		zero T
		once sync.Once
		done = make(chan struct{})
		val  T
		err  error
	)
	finish := func(v T, e error) {
		once.Do(func() {
			val, err = v, e
			close(done)
		})
	}

	sub := First(src).SubscribeObserver(Observer[T]{
		Next:     func(v T) { finish(v, nil) },
		Error:    func(e error) { finish(zero, e) },
		Complete: func() { finish(zero, ErrEmpty) },
	})
	defer sub.Unsubscribe()

	select {
	case <-done:
		return val, err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Collect gathers every value until src completes. On error or context
// cancellation the values received so far are returned with the error.
func Collect[T any](ctx context.Context, src Stream[T]) ([]T, error) {
	var (
		mu     sync.Mutex
		values []T
		once   sync.Once
		done   = make(chan struct{})
		err    error
	)
	finish := func(e error) {
		once.Do(func() {
			err = e
			close(done)
		})
	}

	sub := src.SubscribeObserver(Observer[T]{
		Next: func(v T) {
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
		},
		Error:    finish,
		Complete: func() { finish(nil) },
	})
	defer sub.Unsubscribe()

	select {
	case <-done:
	case <-ctx.Done():
		finish(ctx.Err())
	}

	mu.Lock()
	defer mu.Unlock()
	return values, err
}
