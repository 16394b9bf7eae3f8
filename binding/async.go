package binding

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/pool"
	"github.com/wippyai/nativebind/resource"
)

// Env is the execution environment shared by all bindings: the host loop
// results are delivered on, the pool native work runs on and the table
// wrapped objects live in.
type Env struct {
	Loop    *host.Loop
	Pool    *pool.Pool
	Table   *resource.Table
	pending map[uuid.UUID]*PendingCall
	mu      sync.Mutex
}

// NewEnv assembles an environment.
func NewEnv(loop *host.Loop, p *pool.Pool, table *resource.Table) *Env {
	return &Env{
		Loop:    loop,
		Pool:    p,
		Table:   table,
		pending: make(map[uuid.UUID]*PendingCall),
	}
}

// PendingCall describes an async call that has not completed.
type PendingCall struct {
	CreatedAt time.Time
	Op        string
	ID        uuid.UUID
	State     State
}

// Pending returns the in-flight async calls, oldest first.
func (e *Env) Pending() []PendingCall {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]PendingCall, 0, len(e.pending))
	for _, p := range e.pending {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (e *Env) track(id uuid.UUID, op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[id] = &PendingCall{ID: id, Op: op, CreatedAt: time.Now(), State: StateConstructed}
}

func (e *Env) setState(id uuid.UUID, s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pending[id]; ok {
		p.State = s
	}
}

func (e *Env) untrack(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, id)
}

// Task is the handle of an async call.
type Task struct {
	value host.Value
	err   error
	then  func(host.Value, error)
	done  chan struct{}
	op    string
	id    uuid.UUID
}

// ID identifies the call.
func (t *Task) ID() uuid.UUID { return t.id }

// Op returns the qualified operation name.
func (t *Task) Op() string { return t.op }

// Done is closed after the result has been delivered on the host loop.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result returns the outcome. It is valid once Done is closed.
func (t *Task) Result() (host.Value, error) {
	select {
	case <-t.done:
		return t.value, t.err
	default:
		return nil, errors.New(errors.PhaseDispatch, errors.KindInternalConversion).
			Op(t.op).
			Detail("result read before completion").
			Build()
	}
}

// Wait blocks until the task completes. Someone else must be driving the
// host loop.
func (t *Task) Wait(ctx context.Context) (host.Value, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go starts w asynchronously. Validation runs now; execution runs on the
// pool; the result is produced on the host loop.
func Go(ctx context.Context, env *Env, op string, w Worker, args []host.Value) *Task {
	return start(ctx, env, op, w, args, nil)
}

// Async runs w with a node-style callback taken from the last argument.
// Only a missing callback is reported synchronously; every other failure,
// validation included, reaches the callback exactly once.
func Async(ctx context.Context, env *Env, op string, w Worker, args []host.Value) error {
	if len(args) == 0 {
		return errors.Tag(errors.Missing("callback", "function"), op)
	}
	cb, ok := host.AsFunction(args[len(args)-1])
	if !ok {
		return errors.Tag(errors.TypeMismatch("callback", "function", host.TypeName(args[len(args)-1])), op)
	}

	start(ctx, env, op, w, args[:len(args)-1], func(v host.Value, err error) {
		var cbErr error
		if err != nil {
			_, cbErr = cb(err, host.Undefined)
		} else {
			_, cbErr = cb(nil, v)
		}
		if cbErr != nil {
			Logger().Warn("async callback returned an error",
				zap.String("op", op),
				zap.Error(cbErr))
		}
	})
	return nil
}

func start(ctx context.Context, env *Env, op string, w Worker, args []host.Value, then func(host.Value, error)) *Task {
	t := &Task{
		id:   uuid.New(),
		op:   op,
		then: then,
		done: make(chan struct{}),
	}
	c := newCall(op, w)
	release := env.Loop.Hold()
	env.track(t.id, op)

	finish := func() {
		defer release()
		defer close(t.done)

		if c.state == StateExecuted {
			c.produce()
		}
		if c.err != nil {
			t.err = errors.Tag(c.err, op)
		} else {
			t.value = c.result
		}

		env.untrack(t.id)
		Logger().Debug("async call completed",
			zap.String("op", op),
			zap.String("id", t.id.String()),
			zap.Stringer("state", c.state))

		if t.then != nil {
			t.then(t.value, t.err)
		}
	}

	if !c.validate(args) {
		env.Loop.Post(finish)
		return t
	}
	env.setState(t.id, StateValidated)

	err := env.Pool.Submit(context.WithoutCancel(ctx), func(ctx context.Context) {
		c.execute(ctx)
		env.setState(t.id, c.state)
		env.Loop.Post(finish)
	})
	if err != nil {
		c.fail(errors.Native(err))
		env.Loop.Post(finish)
	}
	return t
}
