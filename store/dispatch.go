package store

import (
	"context"
	"sync"

	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/stream"
)

// Dispatch delivers action to every reducer and effect registered for its
// type, in registration order, on the calling goroutine. Actions with no
// registered listener are ignored.
func (s *Store[T]) Dispatch(action Action) {
	s.dispatch(action, 0)
}

func (s *Store[T]) dispatch(action Action, depth int) {
	if action == nil {
		return
	}
	if s.disposed.Load() {
		s.warn("dispatch after dispose", map[string]any{"action": action.ActionType()})
		return
	}
	if s.maxDepth > 0 && depth > s.maxDepth {
		s.warn("dispatch depth exceeded", map[string]any{
			"action": action.ActionType(),
			"depth":  depth,
		})
		return
	}

	s.emit(EventDispatch, observability.LevelVerbose, map[string]any{
		"action": action.ActionType(),
		"depth":  depth,
	})

	for _, l := range s.dispatcher.matching(action.ActionType()) {
		l.handle(action, depth)
	}
}

// RegisterReducer subscribes fn to actions tagged tag. The returned function
// removes the registration.
func (s *Store[T]) RegisterReducer(tag string, fn ReducerFunc[T]) (remove func()) {
	l := &listener{
		tag: tag,
		handle: func(action Action, _ int) {
			s.Update(fn(s.Snapshot(), action))
		},
	}
	return s.listen(l)
}

// RegisterReducers registers and drains every entry of r.
func (s *Store[T]) RegisterReducers(r *Reducers[T]) {
	for _, b := range r.c.drain() {
		s.RegisterReducer(b.tag, b.handler)
	}
}

// RegisterEffect subscribes fn to actions tagged tag. Each matching action
// cancels the stream produced for the previous one, and every action the new
// stream emits is dispatched through the store. Stream errors are reported
// to the observer and leave the registration in place.
func (s *Store[T]) RegisterEffect(tag string, fn EffectFunc[T]) (remove func()) {
	var (
		mu      sync.Mutex
		current stream.Subscription
		cancel  context.CancelFunc
		gen     uint64
	)

	stop := func() {
		mu.Lock()
		sub, c := current, cancel
		current, cancel = nil, nil
		gen++
		mu.Unlock()

		if sub != nil {
			sub.Unsubscribe()
		}
		if c != nil {
			c()
		}
	}

	handle := func(action Action, depth int) {
		stop()

		ctx, c := context.WithCancel(s.ctx)
		mu.Lock()
		gen++
		mine := gen
		cancel = c
		mu.Unlock()

		out := fn(ctx, s.Snapshot(), action)
		if out == nil {
			return
		}

		sub := out.SubscribeObserver(stream.Observer[Action]{
			Next: func(next Action) {
				s.dispatch(next, depth+1)
			},
			Error: func(err error) {
				s.emit(EventEffectError, observability.LevelError, map[string]any{
					"action": action.ActionType(),
					"error":  err.Error(),
				})
			},
		})

		mu.Lock()
		if gen != mine {
			mu.Unlock()
			sub.Unsubscribe()
			return
		}
		current = sub
		mu.Unlock()
	}

	return s.listen(&listener{tag: tag, handle: handle, stop: stop})
}

// RegisterEffects registers and drains every entry of e.
func (s *Store[T]) RegisterEffects(e *Effects[T]) {
	for _, b := range e.c.drain() {
		s.RegisterEffect(b.tag, b.handler)
	}
}

// Listeners returns the number of active reducer and effect registrations.
func (s *Store[T]) Listeners() int { return s.dispatcher.count() }

func (s *Store[T]) listen(l *listener) func() {
	if !s.dispatcher.add(l) {
		s.warn("register after dispose", map[string]any{"action": l.tag})
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.dispatcher.remove(l)
			if l.stop != nil {
				l.stop()
			}
		})
	}
}
