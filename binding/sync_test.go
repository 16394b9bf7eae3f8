package binding

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

func TestSync_Success(t *testing.T) {
	var runs atomic.Int32
	v, err := Sync(context.Background(), "Core::Add", &addWorker{runs: &runs}, []host.Value{1.5, 2.0})
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
	assert.Equal(t, int32(1), runs.Load())
}

func TestSync_MissingArgumentSkipsNative(t *testing.T) {
	var runs atomic.Int32
	_, err := Sync(context.Background(), "Core::Add", &addWorker{runs: &runs}, []host.Value{1.0})

	e := asError(t, err)
	assert.Equal(t, errors.KindArgument, e.Kind)
	assert.Equal(t, "Core::Add", e.Op)
	assert.Equal(t, "arg 1", e.Param)
	assert.True(t, errors.Is(err, errors.ErrArgument))
	assert.Equal(t, int32(0), runs.Load())
}

func TestSync_FirstArgumentErrorWins(t *testing.T) {
	_, err := Sync(context.Background(), "Core::Add", &addWorker{}, []host.Value{"x", "y"})

	e := asError(t, err)
	assert.Equal(t, "arg 0", e.Param)
	assert.Equal(t, "string", e.HostType)
}

func TestSync_PanicBecomesNative(t *testing.T) {
	_, err := Sync(context.Background(), "Core::Boom", panicWorker{}, nil)

	e := asError(t, err)
	assert.Equal(t, errors.KindNative, e.Kind)
	assert.Equal(t, errors.PhaseExecute, e.Phase)
	assert.Contains(t, err.Error(), "boom")
}

func TestSync_ForeignExecuteErrorIsNative(t *testing.T) {
	_, err := Sync(context.Background(), "Core::Fail", nativeFailWorker{}, nil)

	e := asError(t, err)
	assert.Equal(t, errors.KindNative, e.Kind)
	assert.ErrorIs(t, err, errTestNative)
}

func TestSync_ResultFailure(t *testing.T) {
	_, err := Sync(context.Background(), "Core::Bad", badResultWorker{}, nil)

	e := asError(t, err)
	assert.Equal(t, errors.KindInternalConversion, e.Kind)
	assert.Equal(t, "Core::Bad", e.Op)
}

func TestCall_StateOrder(t *testing.T) {
	c := newCall("Core::Add", &addWorker{})
	assert.False(t, c.execute(context.Background()))
	assert.Equal(t, StateFailed, c.state)

	e := asError(t, c.err)
	assert.Equal(t, errors.KindInternalConversion, e.Kind)
	assert.Contains(t, e.Detail, "expected validated")
}

func TestCall_Phases(t *testing.T) {
	c := newCall("Core::Add", &addWorker{})
	require.True(t, c.validate([]host.Value{1.0, 2.0}))
	assert.Equal(t, StateValidated, c.state)
	require.True(t, c.execute(context.Background()))
	assert.Equal(t, StateExecuted, c.state)
	require.True(t, c.produce())
	assert.Equal(t, StateResultProduced, c.state)
	assert.Equal(t, 3.0, c.result)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "result_produced", StateResultProduced.String())
	assert.Equal(t, "state(42)", State(42).String())
}
