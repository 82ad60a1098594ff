package persist

import (
	"context"
	"errors"
	"sync"

	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/store"
	"github.com/rmrevin/ngrm/stream"
)

// CacheItem reads and writes a single persisted value.
type CacheItem[T any] interface {
	// Get returns the stored value and whether one exists.
	Get(ctx context.Context) (T, bool, error)
	// Set stores v and returns the stored value.
	Set(ctx context.Context, v T) (T, error)
	// Remove deletes the stored value.
	Remove(ctx context.Context) error
}

// flusher is implemented by cache items that buffer writes.
type flusher interface {
	Flush(ctx context.Context) error
}

type options[T any] struct {
	autoload  bool
	autosave  bool
	storeOpts []store.Option[T]
}

// Option configures a Store.
type Option[T any] func(*options[T])

// WithAutoload toggles loading from the cache item on construction.
func WithAutoload[T any](on bool) Option[T] {
	return func(o *options[T]) { o.autoload = on }
}

// WithAutosave toggles saving every state change.
func WithAutosave[T any](on bool) Option[T] {
	return func(o *options[T]) { o.autosave = on }
}

// WithStoreOptions passes options to the embedded state store.
func WithStoreOptions[T any](opts ...store.Option[T]) Option[T] {
	return func(o *options[T]) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithConfig applies the autoload and autosave settings of cfg.
func WithConfig[T any](cfg *Config) Option[T] {
	return func(o *options[T]) {
		o.autoload = cfg.AutoloadEnabled()
		o.autosave = cfg.AutosaveEnabled()
	}
}

// Store is a state store persisted through a CacheItem.
type Store[T any] struct {
	*store.Store[T]

	item   CacheItem[T]
	loaded *stream.Publisher[T]
	ready  chan struct{}

	mu       sync.Mutex
	autosave stream.Subscription
}

// New creates a persisted store holding initial until a load replaces it.
// Autoload and autosave default to on.
func New[T any](initial T, item CacheItem[T], opts ...Option[T]) *Store[T] {
	o := options[T]{autoload: true, autosave: true}
	for _, opt := range opts {
		opt(&o)
	}

	storeOpts := append([]store.Option[T]{store.WithName[T]("persist")}, o.storeOpts...)
	s := &Store[T]{
		Store:  store.New(initial, storeOpts...),
		item:   item,
		loaded: stream.NewPublisher[T](),
		ready:  make(chan struct{}),
	}
	s.OnDispose(s.teardown)

	switch {
	case o.autoload:
		go func() {
			defer close(s.ready)
			_, _, _ = s.LoadState(s.Context())
			if o.autosave {
				s.EnableAutosave()
			}
		}()
	case o.autosave:
		s.EnableAutosave()
		close(s.ready)
	default:
		close(s.ready)
	}
	return s
}

// Ready is closed once the initial load attempt has settled and autosave,
// if configured, is active.
func (s *Store[T]) Ready() <-chan struct{} { return s.ready }

// Loaded emits each value applied by LoadState. It does not replay.
func (s *Store[T]) Loaded() stream.Stream[T] { return s.loaded.Stream() }

// LoadState reads the cache item and replaces the state when a non-empty
// value is found. The boolean reports whether the state was replaced.
func (s *Store[T]) LoadState(ctx context.Context) (T, bool, error) {
	v, ok, err := s.item.Get(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) && s.Disposed() {
			return v, false, err
		}
		s.emit(EventError, observability.LevelError, map[string]any{"op": "load", "error": err.Error()})
		return v, false, err
	}
	if !ok || store.IsEmpty(v) || s.Disposed() {
		return v, false, nil
	}

	s.Set(v)
	s.loaded.Publish(s.Snapshot())
	s.emit(EventLoad, observability.LevelVerbose, nil)
	return v, true, nil
}

// SaveState writes v to the cache item.
func (s *Store[T]) SaveState(ctx context.Context, v T) (T, error) {
	saved, err := s.item.Set(ctx, v)
	if err != nil {
		s.emit(EventError, observability.LevelError, map[string]any{"op": "save", "error": err.Error()})
		return saved, err
	}
	s.emit(EventSave, observability.LevelVerbose, nil)
	return saved, nil
}

// Remove deletes the persisted value. The in-memory state is kept.
func (s *Store[T]) Remove(ctx context.Context) error {
	if err := s.item.Remove(ctx); err != nil {
		s.emit(EventError, observability.LevelError, map[string]any{"op": "remove", "error": err.Error()})
		return err
	}
	return nil
}

// EnableAutosave saves every distinct state committed from now on. The
// current state is not saved. Calling it again is a no-op.
func (s *Store[T]) EnableAutosave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autosave != nil || s.Disposed() {
		return
	}
	s.autosave = stream.Skip(s.Select(), 1).Subscribe(func(v T) {
		_, _ = s.SaveState(s.Context(), v)
	})
}

// DisableAutosave stops saving state changes.
func (s *Store[T]) DisableAutosave() {
	s.mu.Lock()
	sub := s.autosave
	s.autosave = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// AutosaveEnabled reports whether autosave is active.
func (s *Store[T]) AutosaveEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autosave != nil
}

func (s *Store[T]) teardown() {
	s.DisableAutosave()
	s.loaded.Complete()

	if f, ok := s.item.(flusher); ok {
		if err := f.Flush(context.Background()); err != nil {
			s.emit(EventError, observability.LevelError, map[string]any{"op": "flush", "error": err.Error()})
		}
	}
}

func (s *Store[T]) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 1)
	}
	data["store"] = s.Name()
	observability.Emit(s.Context(), s.Observer(), typ, level, "persist", data)
}
