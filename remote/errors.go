package remote

import "errors"

var (
	// ErrAborted is returned by a request superseded by a later Fetch or
	// cancelled with Abort.
	ErrAborted = errors.New("remote request aborted")

	// ErrClosed is returned by requests on a closed Source.
	ErrClosed = errors.New("remote source closed")
)

// DefaultFailMessage is the error text used by MakeFail when none is given.
const DefaultFailMessage = "fake fail emitted"
