package cache

import "errors"

var (
	// ErrKeyNotFound is returned by Load when a requested key has no entry.
	ErrKeyNotFound = errors.New("cache: key not found")
	// ErrLoadFailed wraps backend read and decode failures.
	ErrLoadFailed = errors.New("cache: load failed")
	// ErrSaveFailed wraps backend write and encode failures.
	ErrSaveFailed = errors.New("cache: save failed")
	// ErrInvalidKey rejects keys that are empty or leave the store root.
	ErrInvalidKey = errors.New("cache: invalid key")
)
