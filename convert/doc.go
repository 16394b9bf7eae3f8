// Package convert moves values between the host and native types.
//
// A Converter[T] knows one native type: it validates and converts a host
// value into T and builds the host value for a T. Scalars, arrays,
// structural records and wrapped handles are covered:
//
//	convert.Int                     number, integral, int32 range
//	convert.Double                  any number, NaN included
//	convert.Array(convert.Point2)   homogeneous array of {x, y} records
//	convert.Handle(matClass)        wrapped Mat object
//
// # Argument lists
//
// Args reads positional arguments and named options of one call. Every read
// helper returns true once a failure has been recorded, so a chain of reads
// stops at the first failure:
//
//	if convert.Arg(a, 0, convert.Int, &w.k) ||
//	    convert.OptArg(a, 1, convert.Int, &w.attempts) {
//	    return a.Err()
//	}
//
// Only the first failure is kept; later reads are no-ops.
package convert
