package stream

import "context"

// Of emits values in order and completes.
func Of[T any](values ...T) Stream[T] {
	return func(out *Sink[T]) {
		for _, v := range values {
			if out.Closed() {
				return
			}
			out.Next(v)
		}
		out.Complete()
	}
}

// Empty completes without emitting.
func Empty[T any]() Stream[T] {
	return func(out *Sink[T]) {
		out.Complete()
	}
}

// Fail terminates every subscription with err.
func Fail[T any](err error) Stream[T] {
	return func(out *Sink[T]) {
		out.Error(err)
	}
}

// FromFunc runs fn on its own goroutine for each subscription and emits its
// single result. The context passed to fn is cancelled on unsubscribe, and a
// result arriving after that is dropped.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Stream[T] {
	return func(out *Sink[T]) {
		ctx, cancel := context.WithCancel(context.Background())
		out.Add(cancel)

		go func() {
			v, err := fn(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				out.Error(err)
				return
			}
			out.Next(v)
			out.Complete()
		}()
	}
}
