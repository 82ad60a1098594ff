package remote

import (
	"github.com/rmrevin/ngrm/stream"
	"github.com/rmrevin/ngrm/transport"
)

// Stage is the lifecycle phase of a request.
type Stage string

const (
	StageNew     Stage = "new"
	StagePending Stage = "pending"
	StageFailed  Stage = "failed"
	StageSuccess Stage = "success"
)

// Completed reports whether the stage is Success or Failed.
func (s Stage) Completed() bool {
	return s == StageSuccess || s == StageFailed
}

// State is the state of a request-lifecycle store.
type State[R any] struct {
	Stage      Stage           `json:"stage"`
	InProgress bool            `json:"in_progress"`
	Data       R               `json:"data"`
	Error      error           `json:"-"`
	Meta       *transport.Meta `json:"meta,omitempty"`
}

// NewState returns the initial state: stage New, nothing in progress.
func NewState[R any]() State[R] {
	return State[R]{Stage: StageNew}
}

// OnStage forwards only states in the given stage.
func OnStage[R any](src stream.Stream[State[R]], stage Stage) stream.Stream[State[R]] {
	return stream.Filter(src, func(s State[R]) bool { return s.Stage == stage })
}
