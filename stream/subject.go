package stream

import (
	"slices"
	"sync"
)

type delivery[T any] struct {
	value    T
	target   *Sink[T]
	replay   bool
	complete bool
}

// hub is the broadcast core shared by Subject and Publisher. Commits are
// queued under mu and drained by a single goroutine at a time, which keeps
// delivery ordered and lets observers emit from inside callbacks.
type hub[T any] struct {
	mu        sync.Mutex
	sinks     []*Sink[T]
	queue     []delivery[T]
	draining  bool
	completed bool
}

// subscribe queues the registration of sink behind pending deliveries. When
// current is non-nil it is called with mu held and its result is replayed to
// the new sink.
func (h *hub[T]) subscribe(sink *Sink[T], current func() T) {
	h.mu.Lock()
	if h.completed {
		h.mu.Unlock()
		sink.Complete()
		return
	}
	d := delivery[T]{target: sink}
	if current != nil {
		d.value = current()
		d.replay = true
	}
	h.enqueue(d)
	h.mu.Unlock()

	sink.Add(func() { h.remove(sink) })
	h.drain()
}

func (h *hub[T]) remove(sink *Sink[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sinks = slices.DeleteFunc(h.sinks, func(s *Sink[T]) bool { return s == sink })
}

// enqueue must be called with mu held.
func (h *hub[T]) enqueue(d delivery[T]) {
	h.queue = append(h.queue, d)
}

func (h *hub[T]) drain() {
	h.mu.Lock()
	if h.draining {
		h.mu.Unlock()
		return
	}
	h.draining = true
	h.mu.Unlock()

	finished := false
	defer func() {
		if !finished {
			h.mu.Lock()
			h.draining = false
			h.mu.Unlock()
		}
	}()

	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.draining = false
			finished = true
			h.mu.Unlock()
			return
		}
		d := h.queue[0]
		h.queue = h.queue[1:]

		var targets []*Sink[T]
		switch {
		case d.target != nil:
			if !d.target.Closed() {
				h.sinks = append(h.sinks, d.target)
				if d.replay {
					targets = []*Sink[T]{d.target}
				}
			}
		default:
			targets = slices.Clone(h.sinks)
		}
		if d.complete {
			h.sinks = nil
		}
		h.mu.Unlock()

		for _, sink := range targets {
			if d.complete {
				sink.Complete()
			} else {
				sink.Next(d.value)
			}
		}
	}
}

func (h *hub[T]) observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sinks)
}

// Subject holds a current value and replays it to new subscribers.
// The zero value is not usable; construct with NewSubject.
type Subject[T any] struct {
	hub   hub[T]
	write sync.Mutex
	value T
}

// NewSubject creates a Subject holding initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.value
}

// Next commits v and notifies subscribers. It panics with ErrCompleted when
// the subject has completed.
func (s *Subject[T]) Next(v T) {
	if !s.TryNext(v) {
		panic(ErrCompleted)
	}
}

// TryNext is Next that reports false instead of panicking after Complete.
func (s *Subject[T]) TryNext(v T) bool {
	return s.Modify(func(T) (T, bool) { return v, true })
}

// Modify computes the next value from the current one while holding the
// subject's write lock, so concurrent modifications never interleave. When fn
// returns false nothing is committed. fn must not call Modify, Next, or
// TryNext on the same subject. Modify reports false if the subject has
// completed.
func (s *Subject[T]) Modify(fn func(current T) (T, bool)) bool {
	committed, ok := s.modify(fn)
	if committed {
		s.hub.drain()
	}
	return ok
}

func (s *Subject[T]) modify(fn func(current T) (T, bool)) (committed, ok bool) {
	s.write.Lock()
	defer s.write.Unlock()

	s.hub.mu.Lock()
	if s.hub.completed {
		s.hub.mu.Unlock()
		return false, false
	}
	current := s.value
	s.hub.mu.Unlock()

	next, commit := fn(current)
	if !commit {
		return false, true
	}

	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.hub.completed {
		return false, false
	}
	s.value = next
	s.hub.enqueue(delivery[T]{value: next})
	return true, true
}

// Complete notifies subscribers of completion. Later subscribers complete
// immediately. Calling Complete more than once is a no-op.
func (s *Subject[T]) Complete() {
	s.hub.mu.Lock()
	if s.hub.completed {
		s.hub.mu.Unlock()
		return
	}
	s.hub.completed = true
	s.hub.enqueue(delivery[T]{complete: true})
	s.hub.mu.Unlock()

	s.hub.drain()
}

// Completed reports whether Complete has been called.
func (s *Subject[T]) Completed() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.hub.completed
}

// Stream exposes the subject as a Stream. Each subscription first receives
// the value current at subscription time.
func (s *Subject[T]) Stream() Stream[T] {
	return func(sink *Sink[T]) {
		s.hub.subscribe(sink, func() T { return s.value })
	}
}

// Subscribe is shorthand for s.Stream().Subscribe(next).
func (s *Subject[T]) Subscribe(next func(T)) Subscription {
	return s.Stream().Subscribe(next)
}

// Observers returns the number of live subscriptions.
func (s *Subject[T]) Observers() int {
	return s.hub.observers()
}

// Publisher broadcasts values to current subscribers without replay.
type Publisher[T any] struct {
	hub hub[T]
}

// NewPublisher creates an empty Publisher.
func NewPublisher[T any]() *Publisher[T] {
	return &Publisher[T]{}
}

// Publish delivers v to current subscribers. It reports false after Complete.
func (p *Publisher[T]) Publish(v T) bool {
	p.hub.mu.Lock()
	if p.hub.completed {
		p.hub.mu.Unlock()
		return false
	}
	p.hub.enqueue(delivery[T]{value: v})
	p.hub.mu.Unlock()

	p.hub.drain()
	return true
}

// Complete ends every subscription. Calling it more than once is a no-op.
func (p *Publisher[T]) Complete() {
	p.hub.mu.Lock()
	if p.hub.completed {
		p.hub.mu.Unlock()
		return
	}
	p.hub.completed = true
	p.hub.enqueue(delivery[T]{complete: true})
	p.hub.mu.Unlock()

	p.hub.drain()
}

// Stream exposes the publisher as a Stream.
func (p *Publisher[T]) Stream() Stream[T] {
	return func(sink *Sink[T]) {
		p.hub.subscribe(sink, nil)
	}
}

// Subscribe is shorthand for p.Stream().Subscribe(next).
func (p *Publisher[T]) Subscribe(next func(T)) Subscription {
	return p.Stream().Subscribe(next)
}
