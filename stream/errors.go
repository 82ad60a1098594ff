package stream

import "errors"

var (
	// ErrCompleted is the panic value raised when a completed holder is
	// asked to emit.
	ErrCompleted = errors.New("stream: emit after complete")

	// ErrEmpty is returned by Await when the stream completes without
	// emitting a value.
	ErrEmpty = errors.New("stream: completed without a value")
)
