// Package remote provides request-lifecycle stores.
//
// A Store wraps a transport function and tracks the outcome of its requests
// as State: the stage (new, pending, failed, success), an in-progress flag,
// the last response body, the last error, and response metadata. Stage
// transitions are driven by actions dispatched through the embedded
// store.Store:
//
//	start    -> Pending, InProgress, Error cleared
//	success  -> Success, Data and Meta set
//	error    -> Failed, Error and Meta set
//	finish   -> InProgress cleared
//
// Fetch is single-flight: it aborts the previous Fetch before starting. Send
// runs alongside other requests. Both block until the request settles and
// return its result, so callers observe transport failures directly while
// subscribers observe them as state.
//
// Source offers the same request control without state.
package remote
