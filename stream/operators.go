package stream

import "context"

// Map projects every value through fn.
func Map[T, R any](src Stream[T], fn func(T) R) Stream[R] {
	return func(out *Sink[R]) {
		pipe(src, out, func(v T) { out.Next(fn(v)) }, nil)
	}
}

// Filter forwards values for which keep returns true.
func Filter[T any](src Stream[T], keep func(T) bool) Stream[T] {
	return func(out *Sink[T]) {
		pipe(src, out, func(v T) {
			if keep(v) {
				out.Next(v)
			}
		}, nil)
	}
}

// DistinctUntilChanged drops values equal to the previously forwarded one.
func DistinctUntilChanged[T any](src Stream[T], equal func(a, b T) bool) Stream[T] {
	return func(out *Sink[T]) {
		var (
			prev T
			seen bool
		)
		pipe(src, out, func(v T) {
			if seen && equal(prev, v) {
				return
			}
			prev, seen = v, true
			out.Next(v)
		}, nil)
	}
}

// SkipWhile drops values until skip first returns false, then forwards
// everything.
func SkipWhile[T any](src Stream[T], skip func(T) bool) Stream[T] {
	return func(out *Sink[T]) {
		skipping := true
		pipe(src, out, func(v T) {
			if skipping && skip(v) {
				return
			}
			skipping = false
			out.Next(v)
		}, nil)
	}
}

// Skip drops the first n values.
func Skip[T any](src Stream[T], n int) Stream[T] {
	return func(out *Sink[T]) {
		skipped := 0
		pipe(src, out, func(v T) {
			if skipped < n {
				skipped++
				return
			}
			out.Next(v)
		}, nil)
	}
}

// Take forwards the first n values and completes.
func Take[T any](src Stream[T], n int) Stream[T] {
	return func(out *Sink[T]) {
		if n <= 0 {
			out.Complete()
			return
		}
		taken := 0
		pipe(src, out, func(v T) {
			if taken >= n {
				return
			}
			taken++
			out.Next(v)
			if taken == n {
				out.Complete()
			}
		}, nil)
	}
}

// First is Take(src, 1).
func First[T any](src Stream[T]) Stream[T] {
	return Take(src, 1)
}

// Tap calls fn for every value before forwarding it.
func Tap[T any](src Stream[T], fn func(T)) Stream[T] {
	return func(out *Sink[T]) {
		pipe(src, out, func(v T) {
			fn(v)
			out.Next(v)
		}, nil)
	}
}

// WithContext completes the subscription when ctx is done.
func WithContext[T any](ctx context.Context, src Stream[T]) Stream[T] {
	return func(out *Sink[T]) {
		if ctx.Err() != nil {
			out.Complete()
			return
		}
		stop := context.AfterFunc(ctx, out.Complete)
		out.Add(func() { stop() })
		pipe(src, out, out.Next, nil)
	}
}
