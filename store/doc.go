// Package store implements a reactive state container with action dispatch.
//
// A Store holds exactly one value of its state type. Reads go through
// Snapshot, which returns a deep copy, and through streams built on the
// store's replay-latest holder:
//
//	s := store.New(Counter{})
//	sub := store.Select(s, func(c Counter) int { return c.Count }).
//		Subscribe(func(n int) { fmt.Println(n) })
//	s.Update(store.Merge[Counter](map[string]any{"Count": 1}))
//
// Writes are Patch values applied to a fresh deep copy of the current state,
// so a patch that mutates its draft can never reach a snapshot an observer
// already holds.
//
// # Actions
//
// Dispatch delivers an Action to every reducer and effect registered for its
// type. Reducers return a Patch; effects return a stream of follow-up actions
// which are dispatched through the same store:
//
//	reducers := store.NewReducers[UI]().
//		On("reload.done", func(s UI, a store.Action) store.Patch[UI] {
//			return store.Mutate(func(d *UI) { d.Loading = false })
//		})
//	s := store.New(UI{}, store.WithReducers(reducers))
//	s.Dispatch(store.NewAction("reload.done", nil))
//
// Reducers and effects run synchronously on the goroutine that dispatched the
// action. A panicking reducer is a programming error and is not recovered.
//
// # Lifetime
//
// The owner of a store calls Dispose when done with it. Dispose cancels the
// store context (aborting effect streams and pending requests of embedding
// stores), removes every listener, and completes all streams. Mutating or
// dispatching after Dispose is reported to the observer as a warning and
// otherwise ignored.
package store
