package binding

import (
	"fmt"

	"github.com/wippyai/nativebind/errors"
)

// TryCatch collects the failure of one operation and hands it to the host
// tagged with the operation name. The first reported failure wins.
type TryCatch struct {
	err *errors.Error
	op  string
}

// NewTryCatch creates a scope for op, e.g. "Core::Kmeans".
func NewTryCatch(op string) *TryCatch {
	return &TryCatch{op: op}
}

// Op returns the qualified operation name.
func (tc *TryCatch) Op() string { return tc.op }

// Report records err. It returns true when err is non-nil.
func (tc *TryCatch) Report(err error) bool {
	if err == nil {
		return false
	}
	if tc.err == nil {
		tc.err = errors.Tag(err, tc.op)
	}
	return true
}

// Throw records an argument error with a formatted message and returns the
// recorded failure.
func (tc *TryCatch) Throw(format string, args ...any) error {
	tc.Report(errors.Argument("", format, args...))
	return tc.Err()
}

// Rethrow records err and returns the recorded failure.
func (tc *TryCatch) Rethrow(err error) error {
	tc.Report(err)
	return tc.Err()
}

// Recover turns a panic into a native error. Use it directly with defer:
//
//	defer tc.Recover(&err)
func (tc *TryCatch) Recover(errp *error) {
	if r := recover(); r != nil {
		tc.Report(errors.Native(fmt.Errorf("panic: %v", r)))
		*errp = tc.Err()
	}
}

// Failed reports whether a failure was recorded.
func (tc *TryCatch) Failed() bool { return tc.err != nil }

// Err returns the recorded failure or nil.
func (tc *TryCatch) Err() error {
	if tc.err == nil {
		return nil
	}
	return tc.err
}
