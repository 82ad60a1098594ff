package store

import "errors"

// ErrDisposed is returned by blocking calls on a disposed store.
var ErrDisposed = errors.New("store disposed")
