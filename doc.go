// Package nativebind binds native image and numeric routines to a
// callback-driven host environment.
//
// Every operation is a worker that moves through a fixed lifecycle:
// arguments are unwrapped and validated on the calling goroutine, the
// native work runs either inline (sync) or on a worker pool (async), and the
// result is converted back to host values. Async results are delivered
// exactly once through a node-style callback on the host loop.
//
// # Architecture Overview
//
//	nativebind/
//	├── runtime/         Assembles loop, pool, object table and registry
//	├── binding/         Worker lifecycle, sync/async dispatch, registry, TryCatch
//	├── convert/         Host <-> native converters and argument lists
//	├── host/            Host value model and the callback loop
//	├── resource/        Handle table backing wrapped objects
//	├── pool/            Resizable worker pool
//	├── config/          Thread count and build information
//	├── errors/          Structured errors tagged with the failing operation
//	├── native/          Pure Go native routines
//	├── modules/         core, imgproc, features2d, tracking and dnn bindings
//	└── cmd/nbrun/       Command line and interactive runner
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	polar, err := rt.Call(ctx, "cartToPolar", x, y)
//
// # Errors
//
// Failures are *errors.Error values that carry the operation, the phase,
// the kind and, for argument errors, the parameter and path:
//
//	Core::CartToPolar: [validate] argument at arg 0: expected Mat, got number
package nativebind
