package binding

import (
	"context"
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/resource"
)

// Factory creates a fresh worker per call.
type Factory func() Worker

// Handler implements a plain function that needs no worker.
type Handler func(ctx context.Context, a *convert.Args) (host.Value, error)

// OpKind distinguishes registered operation shapes.
type OpKind string

const (
	OpBinding     OpKind = "binding"
	OpMethod      OpKind = "method"
	OpFunction    OpKind = "function"
	OpConstructor OpKind = "constructor"
)

// Operation is one host-callable entry.
type Operation struct {
	options    any
	newWorker  func(self host.Value) (Worker, error)
	handler    Handler
	Name       string
	Qualified  string
	Class      string
	Doc        string
	Kind       OpKind
	optionsPos int
	Async      bool
}

// Descriptor is the introspection view of an Operation.
type Descriptor struct {
	Options   *jsonschema.Schema `json:"options,omitempty"`
	Name      string             `json:"name"`
	Qualified string             `json:"qualified"`
	Class     string             `json:"class,omitempty"`
	Kind      OpKind             `json:"kind"`
	Doc       string             `json:"doc,omitempty"`
	Async     bool               `json:"async"`
}

// OpOption configures a registered operation.
type OpOption func(*Operation)

// WithDoc attaches a one-line description.
func WithDoc(doc string) OpOption {
	return func(o *Operation) { o.Doc = doc }
}

// WithOptions declares that the argument at pos may be an options record
// shaped like model. Records passed there are checked against the schema
// reflected from model before the worker sees them.
func WithOptions(pos int, model any) OpOption {
	return func(o *Operation) {
		o.optionsPos = pos
		o.options = model
	}
}

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	strictMode   bool
	checkOptions bool
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{strictMode: true, checkOptions: true}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithStrictMode makes duplicate registrations fail. Default is true;
// disabled, later registrations replace earlier ones.
func WithStrictMode(enabled bool) RegistryOption {
	return func(c *registryConfig) { c.strictMode = enabled }
}

// WithOptionChecks toggles schema checks of options records.
func WithOptionChecks(enabled bool) RegistryOption {
	return func(c *registryConfig) { c.checkOptions = enabled }
}

// Registry maps host names to operations.
type Registry struct {
	env     *Env
	ops     map[string]*Operation
	schemas *optionSchemas
	config  registryConfig
	mu      sync.RWMutex
}

// NewRegistry creates a registry dispatching into env.
func NewRegistry(env *Env, opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		env:     env,
		ops:     make(map[string]*Operation),
		schemas: newOptionSchemas(),
		config:  cfg,
	}
}

// Env returns the execution environment.
func (r *Registry) Env() *Env { return r.env }

func (r *Registry) add(op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[op.Name]; exists && r.config.strictMode {
		return errors.Registration(op.Name, "already registered")
	}
	r.ops[op.Name] = op
	Logger().Debug("registered operation",
		zap.String("name", op.Name),
		zap.String("qualified", op.Qualified),
		zap.String("kind", string(op.Kind)))
	return nil
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (*Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Names returns all host names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns descriptors for all operations in name order.
func (r *Registry) Describe() []Descriptor {
	names := r.Names()
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		op, _ := r.Lookup(name)
		d := Descriptor{
			Name:      op.Name,
			Qualified: op.Qualified,
			Class:     op.Class,
			Kind:      op.Kind,
			Doc:       op.Doc,
			Async:     op.Async,
		}
		if op.options != nil {
			d.Options = reflectOptions(op.options)
		}
		out = append(out, d)
	}
	return out
}

// Call invokes the operation registered under name. For methods, names
// like "Mat.sum", the first argument is the receiver.
func (r *Registry) Call(ctx context.Context, name string, args ...host.Value) (host.Value, error) {
	op, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NotFound("operation", name)
	}

	self := host.Undefined
	if op.Kind == OpMethod {
		if len(args) == 0 {
			return nil, errors.Tag(errors.InvalidHandle(op.Class, "missing receiver"), op.Qualified)
		}
		self, args = args[0], args[1:]
	}
	return r.invoke(ctx, op, self, args)
}

// CallMethod invokes method on the class of self.
func (r *Registry) CallMethod(ctx context.Context, self host.Value, method string, args ...host.Value) (host.Value, error) {
	w, ok := self.(host.Wrapped)
	if !ok {
		return nil, errors.InvalidHandle("", "receiver is "+host.TypeName(self)+", not an object")
	}
	op, ok := r.Lookup(w.ClassName() + "." + method)
	if !ok {
		return nil, errors.NotFound("method", w.ClassName()+"."+method)
	}
	return r.invoke(ctx, op, self, args)
}

// Go starts an async operation without a callback; the result is read from
// the returned Task. The name may be given with or without the Async
// suffix.
func (r *Registry) Go(ctx context.Context, name string, args ...host.Value) (*Task, error) {
	op, ok := r.Lookup(name)
	if ok && !op.Async {
		op, ok = r.Lookup(name + "Async")
	}
	if !ok || op.newWorker == nil {
		return nil, errors.NotFound("async operation", name)
	}

	self := host.Undefined
	if op.Kind == OpMethod {
		if len(args) == 0 {
			return nil, errors.Tag(errors.InvalidHandle(op.Class, "missing receiver"), op.Qualified)
		}
		self, args = args[0], args[1:]
	}
	return Go(ctx, r.env, op.Qualified, r.prepare(op, self, args), args), nil
}

func (r *Registry) invoke(ctx context.Context, op *Operation, self host.Value, args []host.Value) (result host.Value, err error) {
	Logger().Debug("dispatch",
		zap.String("op", op.Qualified),
		zap.Bool("async", op.Async),
		zap.Int("args", len(args)))

	if op.handler != nil {
		tc := NewTryCatch(op.Qualified)
		defer tc.Recover(&err)
		if err := r.checkOptions(op, args); err != nil {
			return nil, tc.Rethrow(err)
		}
		v, err := op.handler(ctx, convert.NewArgs(op.Qualified, args))
		if err != nil {
			return nil, tc.Rethrow(classify(err, errors.PhaseExecute, errors.KindNative))
		}
		return v, nil
	}

	if !op.Async {
		w, err := op.newWorker(self)
		if err == nil {
			err = r.checkOptions(op, args)
		}
		if err != nil {
			return nil, errors.Tag(err, op.Qualified)
		}
		return Sync(ctx, op.Qualified, w, args)
	}

	var params []host.Value
	if len(args) > 0 {
		params = args[:len(args)-1]
	}
	return host.Undefined, Async(ctx, r.env, op.Qualified, r.prepare(op, self, params), args)
}

// prepare builds the worker of an async call. A receiver or options failure
// yields a worker that fails validation, so the error takes the same route
// to the callback or Task as any other validation error.
func (r *Registry) prepare(op *Operation, self host.Value, params []host.Value) Worker {
	w, err := op.newWorker(self)
	if err == nil {
		err = r.checkOptions(op, params)
	}
	if err != nil {
		return &rejectedWorker{err: err}
	}
	return w
}

// rejectedWorker reports err from Unwrap and never reaches Execute.
type rejectedWorker struct {
	err error
}

func (w *rejectedWorker) Unwrap(*convert.Args) error {
	return w.err
}

func (w *rejectedWorker) Execute(context.Context) error {
	return nil
}

func (w *rejectedWorker) Result() (host.Value, error) {
	return host.Undefined, nil
}

func (r *Registry) checkOptions(op *Operation, args []host.Value) error {
	if !r.config.checkOptions || op.options == nil || op.optionsPos != len(args)-1 {
		return nil
	}
	rec, ok := args[op.optionsPos].(host.Record)
	if !ok {
		return nil
	}
	return r.schemas.check(op.Qualified, convert.Param(op.optionsPos), op.options, rec)
}

// Namespace registers operations of one module.
type Namespace struct {
	r      *Registry
	module string
}

// Namespace returns a registration view for module, e.g. "Core".
func (r *Registry) Namespace(module string) *Namespace {
	return &Namespace{r: r, module: module}
}

// Registry returns the registry the namespace writes to.
func (n *Namespace) Registry() *Registry { return n.r }

// Env returns the execution environment.
func (n *Namespace) Env() *Env { return n.r.env }

func (n *Namespace) qualify(scope, name string) string {
	return scope + "::" + upperFirst(name)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func apply(op *Operation, opts []OpOption) *Operation {
	op.optionsPos = -1
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// Binding registers name and nameAsync backed by the same worker.
func (n *Namespace) Binding(name string, f Factory, opts ...OpOption) error {
	if f == nil || name == "" {
		return errors.Registration(name, "binding needs a name and a factory")
	}
	newWorker := func(host.Value) (Worker, error) { return f(), nil }
	for _, async := range []bool{false, true} {
		op := apply(&Operation{
			Name:      name,
			Qualified: n.qualify(n.module, name),
			Kind:      OpBinding,
			newWorker: newWorker,
			Async:     async,
		}, opts)
		if async {
			op.Name += "Async"
			op.Qualified += "Async"
		}
		if err := n.r.add(op); err != nil {
			return err
		}
	}
	return nil
}

// SyncBinding registers name without an async form.
func (n *Namespace) SyncBinding(name string, f Factory, opts ...OpOption) error {
	if f == nil || name == "" {
		return errors.Registration(name, "binding needs a name and a factory")
	}
	return n.r.add(apply(&Operation{
		Name:      name,
		Qualified: n.qualify(n.module, name),
		Kind:      OpBinding,
		newWorker: func(host.Value) (Worker, error) { return f(), nil },
	}, opts))
}

// Func registers a plain function.
func (n *Namespace) Func(name string, h Handler, opts ...OpOption) error {
	if h == nil || name == "" {
		return errors.Registration(name, "function needs a name and a handler")
	}
	return n.r.add(apply(&Operation{
		Name:      name,
		Qualified: n.qualify(n.module, name),
		Kind:      OpFunction,
		handler:   h,
	}, opts))
}

// Constructor registers the host constructor of class under the class name.
func (n *Namespace) Constructor(class string, h Handler, opts ...OpOption) error {
	if h == nil || class == "" {
		return errors.Registration(class, "constructor needs a class and a handler")
	}
	return n.r.add(apply(&Operation{
		Name:      class,
		Qualified: class + "::New",
		Class:     class,
		Kind:      OpConstructor,
		handler:   h,
	}, opts))
}

// Method registers Class.name and Class.nameAsync. The receiver is
// unwrapped before any argument is read.
func Method[T any](n *Namespace, class *resource.Class[T], name string, f func(self T) Worker, opts ...OpOption) error {
	if f == nil || name == "" {
		return errors.Registration(name, "method needs a name and a factory")
	}
	newWorker := func(self host.Value) (Worker, error) {
		native, err := class.Unwrap(self)
		if err != nil {
			return nil, err
		}
		return f(native), nil
	}
	for _, async := range []bool{false, true} {
		op := apply(&Operation{
			Name:      class.Name() + "." + name,
			Qualified: n.qualify(class.Name(), name),
			Class:     class.Name(),
			Kind:      OpMethod,
			newWorker: newWorker,
			Async:     async,
		}, opts)
		if async {
			op.Name += "Async"
			op.Qualified += "Async"
		}
		if err := n.r.add(op); err != nil {
			return err
		}
	}
	return nil
}

// SyncMethod registers Class.name without an async form.
func SyncMethod[T any](n *Namespace, class *resource.Class[T], name string, h func(ctx context.Context, self T, a *convert.Args) (host.Value, error), opts ...OpOption) error {
	if h == nil || name == "" {
		return errors.Registration(name, "method needs a name and a handler")
	}
	op := apply(&Operation{
		Name:      class.Name() + "." + name,
		Qualified: n.qualify(class.Name(), name),
		Class:     class.Name(),
		Kind:      OpMethod,
	}, opts)
	op.newWorker = func(self host.Value) (Worker, error) {
		native, err := class.Unwrap(self)
		if err != nil {
			return nil, err
		}
		return &handlerWorker[T]{self: native, h: h}, nil
	}
	return n.r.add(op)
}

// handlerWorker runs a synchronous method handler as a worker so it goes
// through the same state machine.
type handlerWorker[T any] struct {
	self   T
	h      func(ctx context.Context, self T, a *convert.Args) (host.Value, error)
	args   *convert.Args
	result host.Value
}

func (w *handlerWorker[T]) Unwrap(a *convert.Args) error {
	w.args = a
	return nil
}

func (w *handlerWorker[T]) Execute(ctx context.Context) error {
	v, err := w.h(ctx, w.self, w.args)
	if err != nil {
		return err
	}
	w.result = v
	return nil
}

func (w *handlerWorker[T]) Result() (host.Value, error) { return w.result, nil }

// Release registers Class.release. Releasing drops the native value;
// releasing twice is an invalid handle error.
func Release[T any](n *Namespace, class *resource.Class[T]) error {
	op := &Operation{
		Name:       class.Name() + ".release",
		Qualified:  n.qualify(class.Name(), "release"),
		Class:      class.Name(),
		Kind:       OpMethod,
		optionsPos: -1,
	}
	op.newWorker = func(self host.Value) (Worker, error) {
		obj, ok := self.(*resource.Object)
		if !ok || obj.ClassName() != class.Name() {
			return nil, errors.InvalidHandle(class.Name(), "expected instance of "+class.Name()+", got "+host.TypeName(self))
		}
		return &releaseWorker{obj: obj}, nil
	}
	return n.r.add(op)
}

type releaseWorker struct {
	obj *resource.Object
}

func (w *releaseWorker) Unwrap(*convert.Args) error { return nil }

func (w *releaseWorker) Execute(context.Context) error { return w.obj.Release() }

func (w *releaseWorker) Result() (host.Value, error) { return host.Undefined, nil }
