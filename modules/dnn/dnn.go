// Package dnn binds networks compiled to WebAssembly. Every numeric export
// of the module is a layer; forward runs one layer on a vector of inputs.
package dnn

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

// Namespace is the qualifier of dnn operations in error tags.
const Namespace = "Dnn"

// NetOptions configure readNetFromWasm.
type NetOptions struct {
	MemoryLimitPages int `json:"memoryLimitPages,omitempty" validate:"gte=0,lte=65536"`
}

// network is the native value behind a host Net: the loaded module and the
// input set by setInput.
type network struct {
	net   *native.Net
	input []float64
	mu    sync.Mutex
}

func (n *network) setInput(v []float64) {
	n.mu.Lock()
	n.input = append([]float64(nil), v...)
	n.mu.Unlock()
}

func (n *network) currentInput() []float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.input
}

func (n *network) Drop() { n.net.Drop() }

type module struct {
	nets *resource.Class[*network]
}

// Register adds readNetFromWasm and the Net class to reg.
func Register(reg *binding.Registry) error {
	ns := reg.Namespace(Namespace)
	m := &module{nets: resource.NewClass[*network](reg.Env().Table, "Net")}

	if err := ns.Binding("readNetFromWasm", func() binding.Worker { return &readNetWorker{nets: m.nets} },
		binding.WithOptions(1, &NetOptions{}),
		binding.WithDoc("load a network from wasm bytes or a file path")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.nets, "getLayerNames", func(n *network) binding.Worker {
		return &layerNamesWorker{net: n}
	}, binding.WithDoc("sorted layer names")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.nets, "setInput", func(n *network) binding.Worker {
		return &setInputWorker{net: n}
	}, binding.WithDoc("input vector used by forward calls without inputs")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.nets, "forward", func(n *network) binding.Worker {
		return &forwardWorker{net: n}
	}, binding.WithDoc("run layer on inputs, or on the vector given to setInput")); err != nil {
		return err
	}
	return binding.Release(ns, m.nets)
}

type readNetWorker struct {
	nets   *resource.Class[*network]
	net    *native.Net
	path   string
	wasm   []byte
	pages  int
	isPath bool
}

func (w *readNetWorker) Unwrap(a *convert.Args) error {
	w.isPath = host.KindOf(a.Get(0)) == host.KindString
	var failed bool
	if w.isPath {
		failed = convert.Arg(a, 0, convert.String, &w.path)
	} else {
		failed = convert.Arg(a, 0, convert.Bytes, &w.wasm)
	}
	if failed {
		return a.Err()
	}
	if a.UseOptions(1) {
		convert.Opt(a, 1, "memoryLimitPages", convert.Int, &w.pages)
	}
	return a.Err()
}

func (w *readNetWorker) Validate() error {
	if w.isPath && w.path == "" {
		return errors.Precondition(convert.Param(0), "path is empty")
	}
	if !w.isPath && len(w.wasm) == 0 {
		return errors.Precondition(convert.Param(0), "module is empty")
	}
	return binding.ValidateStruct(convert.Param(1), NetOptions{MemoryLimitPages: w.pages})
}

func (w *readNetWorker) Execute(ctx context.Context) error {
	wasm := w.wasm
	if w.isPath {
		data, err := os.ReadFile(w.path)
		if err != nil {
			return fmt.Errorf("failed to read network: %w", err)
		}
		wasm = data
	}

	net, err := native.LoadNet(ctx, wasm, &native.NetConfig{MemoryLimitPages: uint32(w.pages)})
	if err != nil {
		return err
	}
	w.net = net
	binding.Logger().Debug("network loaded",
		zap.String("module", Namespace),
		zap.Int("bytes", len(wasm)),
		zap.Strings("layers", net.LayerNames()))
	return nil
}

func (w *readNetWorker) Result() (host.Value, error) {
	return w.nets.Wrap(&network{net: w.net}), nil
}

type layerNamesWorker struct {
	net   *network
	names []string
}

func (w *layerNamesWorker) Unwrap(*convert.Args) error { return nil }

func (w *layerNamesWorker) Execute(context.Context) error {
	w.names = w.net.net.LayerNames()
	return nil
}

func (w *layerNamesWorker) Result() (host.Value, error) {
	return convert.Array(convert.String).ToHost(w.names), nil
}

type setInputWorker struct {
	net   *network
	input []float64
}

func (w *setInputWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Array(convert.Double), &w.input) {
		return a.Err()
	}
	return nil
}

func (w *setInputWorker) Execute(context.Context) error {
	w.net.setInput(w.input)
	return nil
}

func (w *setInputWorker) Result() (host.Value, error) { return host.Undefined, nil }

type forwardWorker struct {
	net    *network
	layer  string
	input  []float64
	output []float64
}

func (w *forwardWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.String, &w.layer) ||
		convert.OptArg(a, 1, convert.Array(convert.Double), &w.input) {
		return a.Err()
	}
	if !a.Has(1) {
		w.input = w.net.currentInput()
	}
	return nil
}

func (w *forwardWorker) Validate() error {
	in, _, ok := w.net.net.Signature(w.layer)
	if !ok {
		return errors.Precondition(convert.Param(0), "unknown layer %q", w.layer)
	}
	if len(w.input) != in {
		return errors.Precondition(convert.Param(1), "layer %q takes %d inputs, got %d", w.layer, in, len(w.input))
	}
	for i, v := range w.input {
		if err := w.net.net.CheckInput(w.layer, i, v); err != nil {
			return errors.New(errors.PhaseValidate, errors.KindArgument).
				Param(convert.Param(1)).
				Path(fmt.Sprintf("[%d]", i)).
				Value(v).
				Cause(err).
				Build()
		}
	}
	return nil
}

func (w *forwardWorker) Execute(ctx context.Context) (err error) {
	w.output, err = w.net.net.Forward(ctx, w.layer, w.input)
	return err
}

func (w *forwardWorker) Result() (host.Value, error) {
	return convert.Array(convert.Double).ToHost(w.output), nil
}
