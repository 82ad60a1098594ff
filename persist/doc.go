// Package persist layers load-on-start and save-on-change behavior over a
// state store.
//
// A Store reads its initial state from a CacheItem when autoload is on and
// writes every later state change back when autosave is on. With both on,
// autosave starts only after the initial load settles, so the loaded value
// is not written straight back.
//
//	item := cache.NewItem(cache.NewFileStore(dir), "counter", cache.JSONCodec[Counter]{})
//	s := persist.New(Counter{}, item)
//	defer s.Dispose()
//	<-s.Ready()
package persist
