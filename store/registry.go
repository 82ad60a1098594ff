package store

import (
	"context"
	"sync"

	"github.com/rmrevin/ngrm/stream"
)

// ReducerFunc computes a state change for an action. Returning nil leaves the
// state untouched.
type ReducerFunc[T any] func(state T, action Action) Patch[T]

// EffectFunc maps an action to a stream of follow-up actions. ctx is
// cancelled when a newer action for the same registration arrives or the
// store is disposed.
type EffectFunc[T any] func(ctx context.Context, state T, action Action) stream.Stream[Action]

type binding[F any] struct {
	tag     string
	handler F
}

type collection[F any] struct {
	mu       sync.Mutex
	bindings []binding[F]
}

func (c *collection[F]) add(tag string, handler F) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.bindings {
		if c.bindings[i].tag == tag {
			c.bindings[i].handler = handler
			return
		}
	}
	c.bindings = append(c.bindings, binding[F]{tag: tag, handler: handler})
}

func (c *collection[F]) remove(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.bindings {
		if c.bindings[i].tag == tag {
			c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
			return
		}
	}
}

func (c *collection[F]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bindings)
}

func (c *collection[F]) drain() []binding[F] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.bindings
	c.bindings = nil
	return out
}

// Reducers is an ordered tag-to-reducer collection. Registering it with a
// store drains it, so each entry is registered at most once.
type Reducers[T any] struct {
	c collection[ReducerFunc[T]]
}

// NewReducers creates an empty collection.
func NewReducers[T any]() *Reducers[T] {
	return &Reducers[T]{}
}

// On binds fn to tag, replacing any existing binding for that tag.
func (r *Reducers[T]) On(tag string, fn ReducerFunc[T]) *Reducers[T] {
	r.c.add(tag, fn)
	return r
}

// Delete removes the binding for tag.
func (r *Reducers[T]) Delete(tag string) { r.c.remove(tag) }

// Len returns the number of pending bindings.
func (r *Reducers[T]) Len() int { return r.c.len() }

// Effects is an ordered tag-to-effect collection, drained on registration.
type Effects[T any] struct {
	c collection[EffectFunc[T]]
}

// NewEffects creates an empty collection.
func NewEffects[T any]() *Effects[T] {
	return &Effects[T]{}
}

// On binds fn to tag, replacing any existing binding for that tag.
func (e *Effects[T]) On(tag string, fn EffectFunc[T]) *Effects[T] {
	e.c.add(tag, fn)
	return e
}

// Delete removes the binding for tag.
func (e *Effects[T]) Delete(tag string) { e.c.remove(tag) }

// Len returns the number of pending bindings.
func (e *Effects[T]) Len() int { return e.c.len() }
