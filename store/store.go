package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/stream"
)

// Store is a reactive container for a single value of type T.
type Store[T any] struct {
	id       string
	name     string
	initial  T
	clone    func(T) T
	maxDepth int
	observer observability.Observer

	subject    *stream.Subject[T]
	dispatcher dispatcher

	ctx      context.Context
	cancel   context.CancelFunc
	disposed atomic.Bool
	once     sync.Once

	mu        sync.Mutex
	onDispose []func()
}

// New creates a store holding initial. The initial value is retained (as a
// deep copy) for Reset.
func New[T any](initial T, opts ...Option[T]) *Store[T] {
	o := options[T]{
		name:     "store",
		parent:   context.Background(),
		observer: observability.NewSlogObserver(slog.Default()),
		clone:    Clone[T],
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[T]{
		id:       uuid.Must(uuid.NewV7()).String(),
		name:     o.name,
		clone:    o.clone,
		maxDepth: o.maxDepth,
		observer: o.observer,
	}
	s.initial = s.clone(initial)
	s.subject = stream.NewSubject(s.clone(initial))
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(o.parent))

	if o.parent.Done() != nil {
		stop := context.AfterFunc(o.parent, s.Dispose)
		s.OnDispose(func() { stop() })
	}

	s.emit(EventCreate, observability.LevelVerbose, map[string]any{"store_id": s.id})

	for _, r := range o.reducers {
		s.RegisterReducers(r)
	}
	for _, e := range o.effects {
		s.RegisterEffects(e)
	}
	return s
}

// ID returns the store's unique identifier.
func (s *Store[T]) ID() string { return s.id }

// Name returns the store name.
func (s *Store[T]) Name() string { return s.name }

// Observer returns the store's observer.
func (s *Store[T]) Observer() observability.Observer { return s.observer }

// Context is cancelled when the store is disposed.
func (s *Store[T]) Context() context.Context { return s.ctx }

// Done is closed when the store is disposed.
func (s *Store[T]) Done() <-chan struct{} { return s.ctx.Done() }

// Disposed reports whether Dispose has been called.
func (s *Store[T]) Disposed() bool { return s.disposed.Load() }

// Snapshot returns a deep copy of the current state.
func (s *Store[T]) Snapshot() T {
	return s.clone(s.subject.Value())
}

// Update applies patch to a deep copy of the current state and publishes the
// result. The patch runs under the store write lock: it must not call
// Update, Set, Reset or Dispatch on the same store, or it deadlocks.
func (s *Store[T]) Update(patch Patch[T]) {
	if patch == nil {
		return
	}
	if !s.commit(patch) {
		s.warn("update after dispose", nil)
		return
	}
	s.emit(EventUpdate, observability.LevelVerbose, nil)
}

// Set replaces the state with v.
func (s *Store[T]) Set(v T) {
	s.Update(Replace(v))
}

// Reset restores the value the store was created with.
func (s *Store[T]) Reset() {
	if !s.commit(Replace(s.clone(s.initial))) {
		s.warn("reset after dispose", nil)
		return
	}
	s.emit(EventReset, observability.LevelVerbose, nil)
}

func (s *Store[T]) commit(patch Patch[T]) bool {
	if s.disposed.Load() {
		return false
	}
	return s.subject.Modify(func(current T) (T, bool) {
		return patch(s.clone(current)), true
	})
}

// Changes emits a deep copy of the state on subscribe and on every commit,
// including commits that do not change the value.
func (s *Store[T]) Changes() stream.Stream[T] {
	return stream.Map(s.subject.Stream(), s.clone)
}

// Select emits the current state and then every distinct successor.
func (s *Store[T]) Select() stream.Stream[T] {
	return Select(s, func(v T) T { return v })
}

// WaitFor emits the state once it is no longer empty, see IsEmpty.
func (s *Store[T]) WaitFor() stream.Stream[T] {
	return WaitFor(s, func(v T) T { return v })
}

// Observers returns the number of live subscriptions to the state.
func (s *Store[T]) Observers() int { return s.subject.Observers() }

// Select emits project(state) on subscribe and whenever the projection
// changes, compared with Equal.
func Select[T, R any](s *Store[T], project func(T) R) stream.Stream[R] {
	return SelectBy(s, project, nil)
}

// SelectBy is Select with a custom comparator over consecutive states. Only
// states for which compare reports false are projected and emitted. A nil
// compare compares projections with Equal.
func SelectBy[T, R any](s *Store[T], project func(T) R, compare func(prev, next T) bool) stream.Stream[R] {
	if compare == nil {
		compare = func(prev, next T) bool { return Equal(project(prev), project(next)) }
	}
	return stream.Map(stream.DistinctUntilChanged(s.Changes(), compare), project)
}

// WaitFor is Select that skips projections while they are empty.
func WaitFor[T, R any](s *Store[T], project func(T) R) stream.Stream[R] {
	return WaitForBy(s, project, nil)
}

// WaitForBy is SelectBy that skips projections while they are empty.
func WaitForBy[T, R any](s *Store[T], project func(T) R, compare func(prev, next T) bool) stream.Stream[R] {
	return stream.SkipWhile(SelectBy(s, project, compare), func(v R) bool { return IsEmpty(v) })
}

// Transaction runs fn against a snapshot and returns a stream that commits
// the first value fn's stream produces and then emits the resulting snapshot
// once. Errors from fn's stream are forwarded without committing. Nothing is
// committed until the returned stream is subscribed.
func (s *Store[T]) Transaction(fn func(state T) stream.Stream[T]) stream.Stream[T] {
	src := stream.WithContext(s.ctx, stream.First(fn(s.Snapshot())))
	return func(out *stream.Sink[T]) {
		in := stream.NewSink(stream.Observer[T]{
			Next: func(v T) {
				if !s.commit(Replace(v)) {
					out.Error(ErrDisposed)
					return
				}
				s.emit(EventUpdate, observability.LevelVerbose, map[string]any{"transaction": true})
				out.Next(s.Snapshot())
			},
			Error:    out.Error,
			Complete: out.Complete,
		})
		out.Add(in.Unsubscribe)
		src(in)
	}
}

// Commit runs fn against a snapshot, commits its result, and returns the new
// snapshot. ctx bounds fn.
func (s *Store[T]) Commit(ctx context.Context, fn func(ctx context.Context, state T) (T, error)) (T, error) {
	v, err := stream.Await(ctx, s.Transaction(func(state T) stream.Stream[T] {
		return stream.FromFunc(func(c context.Context) (T, error) {
			c, cancel := mergeCancel(ctx, c)
			defer cancel()
			return fn(c, state)
		})
	}))
	if errors.Is(err, stream.ErrEmpty) && s.Disposed() {
		err = ErrDisposed
	}
	return v, err
}

// OnDispose registers fn to run during Dispose, before streams complete. On
// a disposed store fn runs immediately.
func (s *Store[T]) OnDispose(fn func()) {
	s.mu.Lock()
	if !s.disposed.Load() {
		s.onDispose = append(s.onDispose, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Dispose releases the store. It is safe to call more than once.
func (s *Store[T]) Dispose() {
	s.once.Do(func() {
		s.mu.Lock()
		s.disposed.Store(true)
		hooks := s.onDispose
		s.onDispose = nil
		s.mu.Unlock()

		s.cancel()
		for _, l := range s.dispatcher.close() {
			if l.stop != nil {
				l.stop()
			}
		}
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
		s.subject.Complete()

		s.emit(EventDispose, observability.LevelVerbose, nil)
	})
}

func (s *Store[T]) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["store"] = s.name
	observability.Emit(s.ctx, s.observer, typ, level, "store", data)
}

func (s *Store[T]) warn(reason string, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["reason"] = reason
	s.emit(EventWarning, observability.LevelWarning, data)
}

// mergeCancel returns a context derived from a that is also cancelled when b
// is done.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(a)
	stop := context.AfterFunc(b, func() { cancel(context.Cause(b)) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}
