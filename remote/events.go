package remote

import "github.com/rmrevin/ngrm/observability"

// Request event types.
const (
	EventRequestStart   observability.EventType = "remote.request.start"
	EventRequestSuccess observability.EventType = "remote.request.success"
	EventRequestError   observability.EventType = "remote.request.error"
	EventRequestAbort   observability.EventType = "remote.request.abort"
)
