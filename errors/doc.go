// Package errors provides the structured error taxonomy shared by every binding.
//
// Errors are categorized by Phase (which step of a call failed) and Kind (error category).
// The Error type carries the qualified operation name, the offending parameter, the
// host/native type names and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindArgument).
//		Op("Core::Kmeans").
//		Param("arg 1").
//		HostType("string").
//		NativeType("int").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch("arg 1", "int", "string")
//	err := errors.InvalidHandle("Mat", "object was released")
//
// Errors match by kind through errors.Is against the exported sentinels:
//
//	if errors.Is(err, errors.ErrInvalidHandle) { ... }
//
// Tag attaches an operation name to an error exactly once; errors that already
// carry an operation keep it.
package errors
