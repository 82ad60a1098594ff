package store

import (
	"context"

	"github.com/rmrevin/ngrm/observability"
)

type options[T any] struct {
	name     string
	parent   context.Context
	observer observability.Observer
	clone    func(T) T
	maxDepth int
	reducers []*Reducers[T]
	effects  []*Effects[T]
}

// Option configures a Store.
type Option[T any] func(*options[T])

// WithName sets the store name used in events.
func WithName[T any](name string) Option[T] {
	return func(o *options[T]) { o.name = name }
}

// WithContext ties the store lifetime to ctx: the store is disposed when ctx
// is done.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(o *options[T]) { o.parent = ctx }
}

// WithObserver sets the event observer.
func WithObserver[T any](obs observability.Observer) Option[T] {
	return func(o *options[T]) { o.observer = obs }
}

// WithCloner overrides the deep copy used for snapshots and drafts.
func WithCloner[T any](clone func(T) T) Option[T] {
	return func(o *options[T]) { o.clone = clone }
}

// WithMaxDispatchDepth bounds chains of effect-emitted actions.
func WithMaxDispatchDepth[T any](depth int) Option[T] {
	return func(o *options[T]) { o.maxDepth = depth }
}

// WithReducers registers the collection at construction.
func WithReducers[T any](r *Reducers[T]) Option[T] {
	return func(o *options[T]) { o.reducers = append(o.reducers, r) }
}

// WithEffects registers the collection at construction.
func WithEffects[T any](e *Effects[T]) Option[T] {
	return func(o *options[T]) { o.effects = append(o.effects, e) }
}
