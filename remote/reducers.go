package remote

import "github.com/rmrevin/ngrm/store"

// reducers builds the request lifecycle reducers. Actions for which skip
// reports true are ignored; the check runs again inside the patch so a
// request aborted while its reducer runs cannot commit.
func reducers[R any](skip func(requestID string, finish bool) bool) *store.Reducers[State[R]] {
	guard := func(id string, finish bool, patch store.Patch[State[R]]) store.Patch[State[R]] {
		if skip(id, finish) {
			return nil
		}
		return func(draft State[R]) State[R] {
			if skip(id, finish) {
				return draft
			}
			return patch(draft)
		}
	}

	return store.NewReducers[State[R]]().
		On(ActionStart, func(_ State[R], a store.Action) store.Patch[State[R]] {
			act, _ := a.(Start)
			return guard(act.RequestID, false, store.Mutate(func(d *State[R]) {
				d.Stage = StagePending
				d.InProgress = true
				d.Error = nil
			}))
		}).
		On(ActionError, func(_ State[R], a store.Action) store.Patch[State[R]] {
			act, _ := a.(Error)
			return guard(act.RequestID, false, store.Mutate(func(d *State[R]) {
				d.Stage = StageFailed
				d.Error = act.Err
				d.Meta = store.Clone(act.Meta)
			}))
		}).
		On(ActionSuccess, func(_ State[R], a store.Action) store.Patch[State[R]] {
			act, ok := a.(Success[R])
			if !ok {
				return nil
			}
			return guard(act.RequestID, false, store.Mutate(func(d *State[R]) {
				d.Stage = StageSuccess
				d.Data = store.Clone(act.Data)
				d.Meta = store.Clone(act.Meta)
			}))
		}).
		On(ActionFinish, func(_ State[R], a store.Action) store.Patch[State[R]] {
			act, _ := a.(Finish)
			return guard(act.RequestID, true, store.Mutate(func(d *State[R]) {
				d.InProgress = false
			}))
		})
}
