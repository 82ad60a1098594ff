package remote

import "github.com/rmrevin/ngrm/transport"

// Action types dispatched by a Store.
const (
	ActionStart   = "[remote] start"
	ActionSuccess = "[remote] success"
	ActionError   = "[remote] error"
	ActionFinish  = "[remote] finish"
)

// Start marks a request as sent.
type Start struct {
	RequestID string
}

func (Start) ActionType() string { return ActionStart }

// Success carries a response body and its metadata.
type Success[R any] struct {
	RequestID string
	Data      R
	Meta      *transport.Meta
}

func (Success[R]) ActionType() string { return ActionSuccess }

// Error carries a request failure and, when the transport reported it, its
// metadata.
type Error struct {
	RequestID string
	Err       error
	Meta      *transport.Meta
}

func (Error) ActionType() string { return ActionError }

// Finish marks a request as settled, whatever its outcome.
type Finish struct {
	RequestID string
}

func (Finish) ActionType() string { return ActionFinish }
