package cache

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Buffer is a write-back Store. Reads are served from memory once a key has
// been loaded; writes and deletes stay in memory until Flush.
type Buffer struct {
	backend Store
	cache   map[string][]byte
	index   map[string]bool
	dirty   map[string]bool
	removed map[string]bool
	indexed bool
	mu      sync.RWMutex
}

// NewBuffer creates a Buffer over backend.
func NewBuffer(backend Store) *Buffer {
	return &Buffer{
		backend: backend,
		cache:   make(map[string][]byte),
		index:   make(map[string]bool),
		dirty:   make(map[string]bool),
		removed: make(map[string]bool),
	}
}

// List returns buffered keys merged with the backend index, which is read
// once.
func (b *Buffer) List(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	indexed := b.indexed
	b.mu.RUnlock()

	if !indexed {
		keys, err := b.backend.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list index: %w", err)
		}
		b.mu.Lock()
		for _, key := range keys {
			if !b.removed[key] {
				b.index[key] = true
			}
		}
		b.indexed = true
		b.mu.Unlock()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.index))
	for key := range b.index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Load serves cached keys and loads the rest from the backend.
func (b *Buffer) Load(ctx context.Context, keys ...string) ([]Entry, error) {
	b.mu.RLock()
	var toLoad []string
	for _, key := range keys {
		if b.removed[key] {
			b.mu.RUnlock()
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		if _, cached := b.cache[key]; !cached {
			toLoad = append(toLoad, key)
		}
	}
	b.mu.RUnlock()

	if len(toLoad) > 0 {
		entries, err := b.backend.Load(ctx, toLoad...)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		for _, e := range entries {
			if _, cached := b.cache[e.Key]; !cached {
				b.cache[e.Key] = e.Value
				b.index[e.Key] = true
			}
		}
		b.mu.Unlock()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		val, ok := b.cache[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		out = append(out, Entry{Key: key, Value: slices.Clone(val)})
	}
	return out, nil
}

// Save buffers entries until Flush.
func (b *Buffer) Save(_ context.Context, entries ...Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range entries {
		b.cache[e.Key] = slices.Clone(e.Value)
		b.index[e.Key] = true
		b.dirty[e.Key] = true
		delete(b.removed, e.Key)
	}
	return nil
}

// Delete buffers removals until Flush.
func (b *Buffer) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range keys {
		delete(b.cache, key)
		delete(b.index, key)
		delete(b.dirty, key)
		b.removed[key] = true
	}
	return nil
}

// Dirty reports whether there are unflushed changes.
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.dirty) > 0 || len(b.removed) > 0
}

// Flush writes buffered saves and deletes to the backend.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.RLock()
	var toSave []Entry
	for key := range b.dirty {
		if val, ok := b.cache[key]; ok {
			toSave = append(toSave, Entry{Key: key, Value: slices.Clone(val)})
		}
	}
	var toDelete []string
	for key := range b.removed {
		toDelete = append(toDelete, key)
	}
	b.mu.RUnlock()

	if len(toSave) > 0 {
		if err := b.backend.Save(ctx, toSave...); err != nil {
			return fmt.Errorf("flush save: %w", err)
		}
	}
	if len(toDelete) > 0 {
		if err := b.backend.Delete(ctx, toDelete...); err != nil {
			return fmt.Errorf("flush delete: %w", err)
		}
	}

	b.mu.Lock()
	for _, e := range toSave {
		if slices.Equal(b.cache[e.Key], e.Value) {
			delete(b.dirty, e.Key)
		}
	}
	for _, key := range toDelete {
		if _, saved := b.cache[key]; !saved {
			delete(b.removed, key)
		}
	}
	b.mu.Unlock()

	return nil
}

// Close flushes and closes the backend when it supports closing.
func (b *Buffer) Close() error {
	err := b.Flush(context.Background())
	if c, ok := b.backend.(interface{ Close() error }); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
