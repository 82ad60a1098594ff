// Package cache provides key-value storage backends and typed cache items
// for persisted store state.
//
// A Store moves raw entries in and out of a backend. An Item binds one key
// of a Store to a Codec so that a single typed value can be read, written
// and removed; it is the adapter handed to persist.Store.
package cache

import "context"

// Store translates between a storage backend and a flat key-value namespace.
type Store interface {
	// List returns all available keys in the store.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Entry is a key-value pair. Keys are /-separated paths and values are raw
// bytes.
type Entry struct {
	Key   string
	Value []byte
}
