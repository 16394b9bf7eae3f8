package binding

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/pool"
	"github.com/wippyai/nativebind/resource"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	p := pool.New(2)
	table := resource.NewTable()
	t.Cleanup(func() {
		p.Close()
		_ = table.Close()
	})
	return NewEnv(host.NewLoop(), p, table)
}

func drain(t *testing.T, env *Env) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.Loop.RunUntilIdle(ctx))
}

func asError(t *testing.T, err error) *errors.Error {
	t.Helper()
	require.Error(t, err)
	var e *errors.Error
	require.True(t, errors.As(err, &e), "expected *errors.Error, got %T", err)
	return e
}

// addWorker sums two numbers and counts native executions.
type addWorker struct {
	runs *atomic.Int32
	a, b float64
	sum  float64
}

func (w *addWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Double, &w.a) ||
		convert.Arg(a, 1, convert.Double, &w.b) {
		return a.Err()
	}
	return nil
}

func (w *addWorker) Execute(context.Context) error {
	if w.runs != nil {
		w.runs.Add(1)
	}
	w.sum = w.a + w.b
	return nil
}

func (w *addWorker) Result() (host.Value, error) { return w.sum, nil }

type panicWorker struct{}

func (panicWorker) Unwrap(*convert.Args) error {
	return nil
}

func (panicWorker) Execute(context.Context) error {
	panic("boom")
}

func (panicWorker) Result() (host.Value, error) {
	return nil, nil
}

type badResultWorker struct{}

func (badResultWorker) Unwrap(*convert.Args) error {
	return nil
}

func (badResultWorker) Execute(context.Context) error {
	return nil
}

func (badResultWorker) Result() (host.Value, error) {
	return nil, errors.InternalConversion(nil, "cannot represent result")
}

type nativeFailWorker struct{}

func (nativeFailWorker) Unwrap(*convert.Args) error {
	return nil
}

func (nativeFailWorker) Execute(context.Context) error {
	return errTestNative
}

func (nativeFailWorker) Result() (host.Value, error) {
	return nil, nil
}

var errTestNative = fmt.Errorf("device lost")

// callback records node-style callback invocations.
type callback struct {
	calls int
	err   error
	value host.Value
}

func (c *callback) fn() host.Function {
	return func(args ...host.Value) (host.Value, error) {
		c.calls++
		if e, ok := args[0].(error); ok && e != nil {
			c.err = e
		}
		if len(args) > 1 {
			c.value = args[1]
		}
		return host.Undefined, nil
	}
}
