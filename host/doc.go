// Package host models the dynamically-typed calling environment.
//
// Host values are plain Go values restricted to a small set of kinds:
//
//	Undefined            absent argument / no result
//	nil                  null
//	bool                 boolean
//	float64              number (other Go numeric kinds are accepted and normalised)
//	string               string
//	[]byte               buffer
//	Array ([]any)        array
//	Record (map[string]any) plain object or options bag
//	Function             callable host function
//	Wrapped              object identity bound to a native handle
//	error                error object handed to callbacks
//
// JSON decoded with encoding/json already fits this model, which is how the
// command line tools feed values in.
//
// # Loop
//
// Loop is the host thread: a single-consumer queue that async completions are
// posted to. Host values produced by background work are only created inside
// functions run by the loop.
//
//	loop := host.NewLoop()
//	release := loop.Hold()   // an async call is in flight
//	go func() {
//	    loop.Post(func() { ...; release() })
//	}()
//	loop.RunUntilIdle(ctx)
package host
