package runtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/config"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/modules/core"
	"github.com/wippyai/nativebind/modules/dnn"
	"github.com/wippyai/nativebind/modules/features2d"
	"github.com/wippyai/nativebind/modules/imgproc"
	"github.com/wippyai/nativebind/modules/tracking"
	"github.com/wippyai/nativebind/pool"
	"github.com/wippyai/nativebind/resource"
)

// Options configure a Runtime.
type Options struct {
	// Logger replaces the binding and pool loggers when set.
	Logger *zap.Logger
	// NumThreads overrides the process-wide thread count when non-nil.
	NumThreads *int
	// StrictMode rejects duplicate registrations. Defaults to true.
	StrictMode *bool
	// SkipOptionChecks disables options-bag schema validation.
	SkipOptionChecks bool
	// CloseTimeout bounds draining the host loop on Close.
	CloseTimeout time.Duration
}

// Runtime owns a host loop, a worker pool sized by config.NumThreads, an
// object table and a registry holding every module.
type Runtime struct {
	loop        *host.Loop
	pool        *pool.Pool
	table       *resource.Table
	registry    *binding.Registry
	core        *core.Module
	unsubscribe func()
	unobserve   func()
	closeWait   time.Duration
}

// New builds a runtime with all modules registered.
func New(ctx context.Context, opts ...Options) (*Runtime, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Logger != nil {
		binding.SetLogger(o.Logger)
		pool.SetLogger(o.Logger)
	}
	if o.NumThreads != nil {
		config.SetNumThreads(*o.NumThreads)
	}

	var regOpts []binding.RegistryOption
	if o.StrictMode != nil {
		regOpts = append(regOpts, binding.WithStrictMode(*o.StrictMode))
	}
	if o.SkipOptionChecks {
		regOpts = append(regOpts, binding.WithOptionChecks(false))
	}

	r := &Runtime{
		loop:      host.NewLoop(),
		pool:      pool.New(config.NumThreads()),
		table:     resource.NewTable(),
		closeWait: o.CloseTimeout,
	}
	if r.closeWait <= 0 {
		r.closeWait = 5 * time.Second
	}
	r.unsubscribe = config.Subscribe(r.pool.Resize)
	r.unobserve = r.table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		binding.Logger().Debug("object "+e.Type.String(),
			zap.String("class", e.Class),
			zap.Uint32("handle", uint32(e.Handle)))
	}))
	r.registry = binding.NewRegistry(binding.NewEnv(r.loop, r.pool, r.table), regOpts...)

	if err := r.registerModules(); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}

	binding.Logger().Debug("runtime ready",
		zap.Int("threads", r.pool.Size()),
		zap.Int("operations", len(r.registry.Names())))
	return r, nil
}

func (r *Runtime) registerModules() error {
	c, err := core.Register(r.registry)
	if err != nil {
		return err
	}
	r.core = c
	if err := imgproc.Register(r.registry, c); err != nil {
		return err
	}
	if err := features2d.Register(r.registry, c); err != nil {
		return err
	}
	if err := tracking.Register(r.registry, c); err != nil {
		return err
	}
	return dnn.Register(r.registry)
}

// Registry returns the operation registry.
func (r *Runtime) Registry() *binding.Registry { return r.registry }

// Core returns the core module, which owns the Mat class.
func (r *Runtime) Core() *core.Module { return r.core }

// Call invokes an operation by name. Async operations return immediately;
// their callbacks run during RunUntilIdle.
func (r *Runtime) Call(ctx context.Context, name string, args ...host.Value) (host.Value, error) {
	return r.registry.Call(ctx, name, args...)
}

// CallMethod invokes a method on a wrapped object.
func (r *Runtime) CallMethod(ctx context.Context, self host.Value, method string, args ...host.Value) (host.Value, error) {
	return r.registry.CallMethod(ctx, self, method, args...)
}

// Go starts the async variant of name and returns its task. The task
// completes once the host loop has run its completion.
func (r *Runtime) Go(ctx context.Context, name string, args ...host.Value) (*binding.Task, error) {
	return r.registry.Go(ctx, name, args...)
}

// RunUntilIdle delivers completions until no async call is outstanding.
func (r *Runtime) RunUntilIdle(ctx context.Context) error {
	return r.loop.RunUntilIdle(ctx)
}

// Pending lists async calls that have not completed.
func (r *Runtime) Pending() []binding.PendingCall {
	return r.registry.Env().Pending()
}

// Objects returns the number of live wrapped objects.
func (r *Runtime) Objects() int { return r.table.Len() }

// Close drains outstanding async calls, stops the pool and releases every
// live object.
func (r *Runtime) Close(ctx context.Context) error {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}

	drainCtx, cancel := context.WithTimeout(ctx, r.closeWait)
	defer cancel()
	drainErr := r.loop.RunUntilIdle(drainCtx)
	if drainErr != nil {
		binding.Logger().Warn("closing with pending async calls",
			zap.Int("pending", len(r.Pending())),
			zap.Error(drainErr))
	}

	if err := r.pool.Close(); err != nil {
		return err
	}
	if err := r.table.Close(); err != nil {
		return err
	}
	if r.unobserve != nil {
		r.unobserve()
		r.unobserve = nil
	}
	return drainErr
}
