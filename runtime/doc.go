// Package runtime assembles a ready-to-use binding environment.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Synchronous call
//	polar, err := rt.Call(ctx, "cartToPolar", x, y)
//
//	// Async call with a node-style callback, delivered by RunUntilIdle
//	_, err = rt.Call(ctx, "cartToPolarAsync", x, y, func(args ...host.Value) (host.Value, error) {
//	    fmt.Println(args[0], args[1])
//	    return host.Undefined, nil
//	})
//	err = rt.RunUntilIdle(ctx)
//
//	// Or as a task
//	task, err := rt.Go(ctx, "cartToPolar", x, y)
//	v, err := task.Wait(ctx)
//
// # Threads
//
// The worker pool follows the process-wide thread count: setNumThreads, or
// config.SetNumThreads, resizes it while calls are in flight.
//
// # Thread Safety
//
// Call and Go may be used from any goroutine. Callbacks and task results
// are delivered on the goroutine running RunUntilIdle.
package runtime
