package binding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/resource"
)

type counter struct {
	n float64
}

// incWorker adds an optional step to a counter receiver.
type incWorker struct {
	self *counter
	step float64
}

func (w *incWorker) Unwrap(a *convert.Args) error {
	w.step = 1
	a.UseOptions(0)
	convert.Opt(a, 0, "step", convert.Double, &w.step)
	return nil
}

func (w *incWorker) Execute(context.Context) error {
	w.self.n += w.step
	return nil
}

func (w *incWorker) Result() (host.Value, error) { return w.self.n, nil }

type incOptions struct {
	Step float64 `json:"step,omitempty"`
}

func newTestRegistry(t *testing.T, opts ...RegistryOption) (*Registry, *resource.Class[*counter]) {
	t.Helper()
	reg := NewRegistry(newTestEnv(t), opts...)
	ns := reg.Namespace("Core")

	require.NoError(t, ns.Binding("add", func() Worker { return &addWorker{} }, WithDoc("adds two numbers")))

	counters := resource.NewClass[*counter](reg.Env().Table, "Counter")
	require.NoError(t, ns.Constructor("Counter", func(_ context.Context, a *convert.Args) (host.Value, error) {
		var start float64
		if convert.OptArg(a, 0, convert.Double, &start) {
			return nil, a.Err()
		}
		return counters.Wrap(&counter{n: start}), nil
	}))
	require.NoError(t, Method(ns, counters, "inc", func(c *counter) Worker {
		return &incWorker{self: c}
	}, WithOptions(0, &incOptions{})))
	require.NoError(t, SyncMethod(ns, counters, "value", func(_ context.Context, c *counter, _ *convert.Args) (host.Value, error) {
		return c.n, nil
	}))
	return reg, counters
}

func TestRegistry_BindingNames(t *testing.T) {
	reg, _ := newTestRegistry(t)

	assert.Equal(t, []string{"Counter", "Counter.inc", "Counter.incAsync", "Counter.value", "add", "addAsync"}, reg.Names())

	op, ok := reg.Lookup("addAsync")
	require.True(t, ok)
	assert.Equal(t, "Core::AddAsync", op.Qualified)
	assert.True(t, op.Async)

	op, ok = reg.Lookup("Counter.inc")
	require.True(t, ok)
	assert.Equal(t, "Counter::Inc", op.Qualified)
	assert.Equal(t, OpMethod, op.Kind)
}

func TestRegistry_DuplicateInStrictMode(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.Namespace("Core").Binding("add", func() Worker { return &addWorker{} })
	assert.Equal(t, errors.KindRegistration, asError(t, err).Kind)

	lax, _ := newTestRegistry(t, WithStrictMode(false))
	assert.NoError(t, lax.Namespace("Core").Binding("add", func() Worker { return &addWorker{} }))
}

func TestRegistry_CallSync(t *testing.T) {
	reg, _ := newTestRegistry(t)

	v, err := reg.Call(context.Background(), "add", 1.0, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = reg.Call(context.Background(), "add", 1.0)
	e := asError(t, err)
	assert.Equal(t, "Core::Add", e.Op)
	assert.Equal(t, errors.KindArgument, e.Kind)
}

func TestRegistry_CallUnknown(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Call(context.Background(), "nope")
	assert.Equal(t, errors.KindNotFound, asError(t, err).Kind)
}

func TestRegistry_CallAsync(t *testing.T) {
	reg, _ := newTestRegistry(t)
	cb := &callback{}

	v, err := reg.Call(context.Background(), "addAsync", 2.0, 2.0, cb.fn())
	require.NoError(t, err)
	assert.Equal(t, host.Undefined, v)

	drain(t, reg.Env())
	require.Equal(t, 1, cb.calls)
	assert.Equal(t, 4.0, cb.value)
}

func TestRegistry_Methods(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	obj, err := reg.Call(ctx, "Counter", 10.0)
	require.NoError(t, err)

	v, err := reg.CallMethod(ctx, obj, "inc")
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)

	v, err = reg.Call(ctx, "Counter.inc", obj, host.Record{"step": 4.0})
	require.NoError(t, err)
	assert.Equal(t, 15.0, v)

	v, err = reg.CallMethod(ctx, obj, "value")
	require.NoError(t, err)
	assert.Equal(t, 15.0, v)
}

func TestRegistry_OptionsSchema(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	obj, err := reg.Call(ctx, "Counter")
	require.NoError(t, err)

	_, err = reg.CallMethod(ctx, obj, "inc", host.Record{"stride": 2.0})
	e := asError(t, err)
	assert.Equal(t, errors.KindArgument, e.Kind)
	assert.Equal(t, "Counter::Inc", e.Op)
	assert.Equal(t, "arg 0", e.Param)

	_, err = reg.CallMethod(ctx, obj, "inc", host.Record{"step": "two"})
	assert.Equal(t, errors.KindArgument, asError(t, err).Kind)

	v, err := reg.CallMethod(ctx, obj, "value")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v, "rejected options must not reach the native routine")
}

func TestRegistry_OptionsSchemaAsync(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	obj, err := reg.Call(ctx, "Counter")
	require.NoError(t, err)

	cb := &callback{}
	_, err = reg.CallMethod(ctx, obj, "incAsync", host.Record{"stride": 2.0}, cb.fn())
	require.NoError(t, err)
	drain(t, reg.Env())

	require.Equal(t, 1, cb.calls)
	assert.Equal(t, "Counter::IncAsync", asError(t, cb.err).Op)
}

func TestRegistry_ReleasedReceiver(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	obj, err := reg.Call(ctx, "Counter")
	require.NoError(t, err)
	require.NoError(t, obj.(*resource.Object).Release())

	_, err = reg.CallMethod(ctx, obj, "inc")
	e := asError(t, err)
	assert.Equal(t, errors.KindInvalidHandle, e.Kind)
	assert.Equal(t, "Counter::Inc", e.Op)

	_, err = reg.Call(ctx, "Counter.inc", 3.0)
	assert.Equal(t, errors.KindInvalidHandle, asError(t, err).Kind)

	_, err = reg.CallMethod(ctx, 3.0, "inc")
	assert.Equal(t, errors.KindInvalidHandle, asError(t, err).Kind)
}

func TestRegistry_ReleasedReceiverAsync(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	obj, err := reg.Call(ctx, "Counter")
	require.NoError(t, err)
	require.NoError(t, obj.(*resource.Object).Release())

	cb := &callback{}
	_, err = reg.CallMethod(ctx, obj, "incAsync", cb.fn())
	require.NoError(t, err, "receiver errors of async calls go to the callback")
	_, err = reg.Call(ctx, "Counter.incAsync", 3.0, cb.fn())
	require.NoError(t, err)
	drain(t, reg.Env())

	require.Equal(t, 2, cb.calls)
	e := asError(t, cb.err)
	assert.Equal(t, errors.KindInvalidHandle, e.Kind)
	assert.Equal(t, "Counter::IncAsync", e.Op)
	assert.Equal(t, host.Undefined, cb.value)
	assert.Empty(t, reg.Env().Pending())

	_, err = reg.CallMethod(ctx, obj, "incAsync")
	assert.Equal(t, errors.KindArgument, asError(t, err).Kind, "a missing callback stays synchronous")

	task, err := reg.Go(ctx, "Counter.inc", obj)
	require.NoError(t, err)
	drain(t, reg.Env())
	_, err = task.Result()
	assert.Equal(t, errors.KindInvalidHandle, asError(t, err).Kind)
}

func TestRegistry_Go(t *testing.T) {
	reg, _ := newTestRegistry(t)

	task, err := reg.Go(context.Background(), "add", 5.0, 6.0)
	require.NoError(t, err)
	assert.Equal(t, "Core::AddAsync", task.Op())

	drain(t, reg.Env())
	v, err := task.Result()
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)

	_, err = reg.Go(context.Background(), "Counter.value")
	assert.Equal(t, errors.KindNotFound, asError(t, err).Kind)
}

func TestRegistry_Describe(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var inc, add *Descriptor
	descs := reg.Describe()
	for i := range descs {
		switch descs[i].Name {
		case "Counter.inc":
			inc = &descs[i]
		case "add":
			add = &descs[i]
		}
	}
	require.NotNil(t, inc)
	require.NotNil(t, add)

	assert.Equal(t, "adds two numbers", add.Doc)
	assert.Nil(t, add.Options)
	require.NotNil(t, inc.Options)
	_, ok := inc.Options.Properties.Get("step")
	assert.True(t, ok)
}

func TestRegistry_FuncHandlerPanic(t *testing.T) {
	reg := NewRegistry(newTestEnv(t))
	require.NoError(t, reg.Namespace("Core").Func("explode", func(context.Context, *convert.Args) (host.Value, error) {
		panic("kaboom")
	}))

	_, err := reg.Call(context.Background(), "explode")
	e := asError(t, err)
	assert.Equal(t, errors.KindNative, e.Kind)
	assert.Equal(t, "Core::Explode", e.Op)
}

func TestRegistry_Release(t *testing.T) {
	reg, counters := newTestRegistry(t)
	require.NoError(t, Release(reg.Namespace("Core"), counters))
	ctx := context.Background()

	obj, err := reg.Call(ctx, "Counter")
	require.NoError(t, err)

	_, err = reg.CallMethod(ctx, obj, "release")
	require.NoError(t, err)
	assert.False(t, counters.Is(obj))

	_, err = reg.CallMethod(ctx, obj, "release")
	assert.Equal(t, errors.KindInvalidHandle, asError(t, err).Kind)
}
