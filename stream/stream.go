package stream

import "sync"

// Observer receives the notifications of a subscription. Nil callbacks are
// skipped.
type Observer[T any] struct {
	Next     func(T)
	Error    func(error)
	Complete func()
}

// Subscription is the handle returned by Subscribe. Unsubscribe is idempotent
// and never panics.
type Subscription interface {
	Unsubscribe()
	Closed() bool
}

// Stream is a cold push sequence. Calling the function with a Sink starts the
// producer for that sink.
type Stream[T any] func(sink *Sink[T])

// Subscribe starts the stream and delivers values to next.
func (s Stream[T]) Subscribe(next func(T)) Subscription {
	return s.SubscribeObserver(Observer[T]{Next: next})
}

// SubscribeObserver starts the stream with a full observer.
func (s Stream[T]) SubscribeObserver(o Observer[T]) Subscription {
	sink := NewSink(o)
	s(sink)
	return sink
}

// Sink is the producer side of a subscription. It drops notifications once
// the subscription is closed, and runs registered teardowns exactly once.
// Producers must not call Next concurrently on the same Sink.
type Sink[T any] struct {
	mu        sync.Mutex
	closed    bool
	teardowns []func()
	observer  Observer[T]
}

// NewSink wraps an observer.
func NewSink[T any](o Observer[T]) *Sink[T] {
	return &Sink[T]{observer: o}
}

// Next delivers a value unless the sink is closed.
func (s *Sink[T]) Next(v T) {
	if s.Closed() {
		return
	}
	if s.observer.Next != nil {
		s.observer.Next(v)
	}
}

// Error terminates the subscription with err.
func (s *Sink[T]) Error(err error) {
	teardowns, ok := s.close()
	if !ok {
		return
	}
	if s.observer.Error != nil {
		s.observer.Error(err)
	}
	runTeardowns(teardowns)
}

// Complete terminates the subscription normally.
func (s *Sink[T]) Complete() {
	teardowns, ok := s.close()
	if !ok {
		return
	}
	if s.observer.Complete != nil {
		s.observer.Complete()
	}
	runTeardowns(teardowns)
}

// Add registers a teardown. When the sink is already closed the teardown runs
// immediately.
func (s *Sink[T]) Add(teardown func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		teardown()
		return
	}
	s.teardowns = append(s.teardowns, teardown)
	s.mu.Unlock()
}

// Unsubscribe closes the sink without notifying the observer.
func (s *Sink[T]) Unsubscribe() {
	if teardowns, ok := s.close(); ok {
		runTeardowns(teardowns)
	}
}

// Closed reports whether the subscription has ended.
func (s *Sink[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Sink[T]) close() ([]func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}
	s.closed = true
	teardowns := s.teardowns
	s.teardowns = nil
	return teardowns, true
}

func runTeardowns(teardowns []func()) {
	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
}

// pipe subscribes src with an inner sink whose lifetime is bound to out.
// A nil complete forwards completion to out.
func pipe[T, R any](src Stream[T], out *Sink[R], next func(T), complete func()) {
	if complete == nil {
		complete = out.Complete
	}
	in := NewSink(Observer[T]{
		Next:     next,
		Error:    out.Error,
		Complete: complete,
	})
	out.Add(in.Unsubscribe)
	src(in)
}
