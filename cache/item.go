package cache

import (
	"context"
	"errors"
	"fmt"
)

// Item is a single typed value stored under one key.
type Item[T any] struct {
	store Store
	key   string
	codec Codec[T]
}

// NewItem binds key of store to codec.
func NewItem[T any](store Store, key string, codec Codec[T]) *Item[T] {
	return &Item[T]{store: store, key: key, codec: codec}
}

// Key returns the item key.
func (i *Item[T]) Key() string { return i.key }

// Get loads and decodes the value. A missing key reports false without error.
func (i *Item[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T

	entries, err := i.store.Load(ctx, i.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}
	if len(entries) == 0 {
		return zero, false, nil
	}

	v, err := i.codec.Unmarshal(entries[0].Value)
	if err != nil {
		return zero, false, fmt.Errorf("%w: %s: decode: %v", ErrLoadFailed, i.key, err)
	}
	return v, true, nil
}

// Set encodes and saves v, returning the stored value.
func (i *Item[T]) Set(ctx context.Context, v T) (T, error) {
	data, err := i.codec.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("%w: %s: encode: %v", ErrSaveFailed, i.key, err)
	}
	if err := i.store.Save(ctx, Entry{Key: i.key, Value: data}); err != nil {
		return v, err
	}
	return v, nil
}

// Remove deletes the value.
func (i *Item[T]) Remove(ctx context.Context) error {
	return i.store.Delete(ctx, i.key)
}

// Flush writes buffered changes when the store is a Buffer.
func (i *Item[T]) Flush(ctx context.Context) error {
	if b, ok := i.store.(*Buffer); ok {
		return b.Flush(ctx)
	}
	return nil
}
