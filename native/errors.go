package native

import "errors"

var (
	ErrEmpty         = errors.New("empty matrix")
	ErrSizeMismatch  = errors.New("sizes of input arguments do not match")
	ErrChannels      = errors.New("unsupported number of channels")
	ErrOutOfRange    = errors.New("index out of range")
	ErrBadArgument   = errors.New("bad argument")
	ErrSingular      = errors.New("matrix is singular")
	ErrUnsupported   = errors.New("unsupported option")
	ErrTooFewSamples = errors.New("not enough samples")
)
