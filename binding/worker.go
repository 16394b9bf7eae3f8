package binding

import (
	"context"
	"fmt"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

// Worker carries one native call. A worker is used for exactly one call.
type Worker interface {
	// Unwrap reads the host arguments into the worker.
	Unwrap(a *convert.Args) error
	// Execute runs the native routine. It must not touch host values.
	Execute(ctx context.Context) error
	// Result converts the native outputs into a host value.
	Result() (host.Value, error)
}

// Validator is implemented by workers with preconditions beyond argument
// conversion. Validate runs after Unwrap and before Execute.
type Validator interface {
	Validate() error
}

// State is the lifecycle position of a call.
type State uint8

const (
	StateConstructed State = iota
	StateValidated
	StateExecuted
	StateResultProduced
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateValidated:
		return "validated"
	case StateExecuted:
		return "executed"
	case StateResultProduced:
		return "result_produced"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", s)
}

// call drives one worker through its states.
type call struct {
	worker Worker
	err    error
	result host.Value
	op     string
	state  State
}

func newCall(op string, w Worker) *call {
	return &call{op: op, worker: w, state: StateConstructed}
}

func (c *call) fail(err error) bool {
	if c.err == nil {
		c.err = err
	}
	c.state = StateFailed
	return false
}

func (c *call) expect(s State) bool {
	if c.state == s {
		return true
	}
	return c.fail(errors.New(errors.PhaseDispatch, errors.KindInternalConversion).
		Detail("worker is %s, expected %s", c.state, s).
		Build())
}

func (c *call) validate(args []host.Value) bool {
	if !c.expect(StateConstructed) {
		return false
	}

	a := convert.NewArgs(c.op, args)
	err := c.worker.Unwrap(a)
	if err == nil {
		err = a.Err()
	}
	if err != nil {
		return c.fail(classify(err, errors.PhaseValidate, errors.KindArgument))
	}

	if v, ok := c.worker.(Validator); ok {
		if err := v.Validate(); err != nil {
			return c.fail(classify(err, errors.PhaseValidate, errors.KindPrecondition))
		}
	}

	c.state = StateValidated
	return true
}

func (c *call) execute(ctx context.Context) (ok bool) {
	if !c.expect(StateValidated) {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			ok = c.fail(errors.Native(fmt.Errorf("native routine panicked: %v", r)))
		}
	}()

	if err := c.worker.Execute(ctx); err != nil {
		return c.fail(classify(err, errors.PhaseExecute, errors.KindNative))
	}
	c.state = StateExecuted
	return true
}

func (c *call) produce() (ok bool) {
	if !c.expect(StateExecuted) {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			ok = c.fail(errors.InternalConversion(nil, "result conversion panicked: %v", r))
		}
	}()

	v, err := c.worker.Result()
	if err != nil {
		return c.fail(classify(err, errors.PhaseResult, errors.KindInternalConversion))
	}
	c.result = v
	c.state = StateResultProduced
	return true
}

// classify keeps structured errors as they are and wraps foreign ones
// into kind.
func classify(err error, phase errors.Phase, kind errors.Kind) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return err
	}
	return errors.New(phase, kind).Cause(err).Build()
}
