// Package stream provides the push-based primitives the stores are built on.
//
// A Stream is a cold sequence of values: nothing runs until Subscribe is
// called, and every subscription gets its own run of the producer. Values,
// errors, and completion are pushed synchronously to an Observer on the
// goroutine that produced them.
//
// # Holders
//
// Subject holds a current value and replays it to every new subscriber before
// any later emission. Publisher broadcasts without replay. Both deliver in
// commit order: an emission triggered from inside an observer callback is
// queued and delivered after the current callback returns, so observers never
// see values out of order.
//
//	s := stream.NewSubject(0)
//	sub := s.Subscribe(func(v int) { fmt.Println(v) }) // prints 0
//	s.Next(1)                                          // prints 1
//	sub.Unsubscribe()
//
// # Operators
//
// Operators are plain functions over Stream values (Map, Filter,
// DistinctUntilChanged, SkipWhile, Skip, Take, WithContext). Sources cover the
// three shapes a computation may take: a plain value (Of), a future
// (FromFunc), or another Stream. Await and Collect bridge back to blocking
// Go code.
package stream
