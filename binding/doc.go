// Package binding drives native calls from host arguments to host results.
//
// Every operation is implemented by a Worker that moves through
//
//	Constructed -> Validated -> Executed -> ResultProduced
//
// with any phase able to end in Failed. Unwrap reads the host arguments,
// Execute runs the native routine and Result builds the host value.
//
// Sync runs all three phases on the calling goroutine. Async validates on
// the caller, executes on the worker pool and delivers the result through
// a host callback on the host loop. Either way an error reaches the host
// exactly once, tagged with the operation name.
//
// # Registry
//
// Operations are registered per module namespace. Binding registers the
// sync and async forms together:
//
//	core := reg.Namespace("Core")
//	core.Binding("kmeans", func() binding.Worker { return &kmeansWorker{} })
//	// host names: kmeans, kmeansAsync
//	// error tags: Core::Kmeans, Core::KmeansAsync
//
// Class methods unwrap their receiver before reading arguments:
//
//	binding.Method(core, mats, "sum", func(m *native.Mat) binding.Worker { ... })
//	// host names: Mat.sum, Mat.sumAsync
package binding
