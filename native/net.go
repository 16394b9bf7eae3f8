package native

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// NetConfig bounds the network runtime.
type NetConfig struct {
	MemoryLimitPages uint32
}

// Net is a network whose layers are the exported functions of a wasm
// module. Forward passes are serialised; a Net is safe for concurrent use.
type Net struct {
	runtime wazero.Runtime
	module  api.Module
	layers  map[string]api.FunctionDefinition
	mu      sync.Mutex
	closed  bool
}

// LoadNet compiles and instantiates a network module.
func LoadNet(ctx context.Context, wasm []byte, cfg *NetConfig) (*Net, error) {
	if len(wasm) == 0 {
		return nil, fmt.Errorf("%w: empty network module", ErrBadArgument)
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	layers := make(map[string]api.FunctionDefinition)
	for name, def := range compiled.ExportedFunctions() {
		if numeric(def.ParamTypes()) && numeric(def.ResultTypes()) {
			layers[name] = def
		}
	}
	if len(layers) == 0 {
		rt.Close(ctx)
		return nil, fmt.Errorf("%w: module exports no numeric layers", ErrBadArgument)
	}

	return &Net{runtime: rt, module: mod, layers: layers}, nil
}

func numeric(types []api.ValueType) bool {
	for _, t := range types {
		switch t {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

// LayerNames returns the layer names in sorted order.
func (n *Net) LayerNames() []string {
	names := make([]string, 0, len(n.layers))
	for name := range n.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature returns the input and output widths of a layer.
func (n *Net) Signature(layer string) (inputs, outputs int, ok bool) {
	def, ok := n.layers[layer]
	if !ok {
		return 0, 0, false
	}
	return len(def.ParamTypes()), len(def.ResultTypes()), true
}

// CheckInput reports whether v can be passed as input i of layer without
// truncation or overflow.
func (n *Net) CheckInput(layer string, i int, v float64) error {
	def, ok := n.layers[layer]
	if !ok {
		return fmt.Errorf("%w: unknown layer %q", ErrBadArgument, layer)
	}
	params := def.ParamTypes()
	if i < 0 || i >= len(params) {
		return fmt.Errorf("%w: layer %q has no input %d", ErrOutOfRange, layer, i)
	}
	if !representable(params[i], v) {
		return inputError(layer, i, params[i], v)
	}
	return nil
}

// Forward runs one layer.
func (n *Net) Forward(ctx context.Context, layer string, inputs []float64) ([]float64, error) {
	def, ok := n.layers[layer]
	if !ok {
		return nil, fmt.Errorf("%w: unknown layer %q", ErrBadArgument, layer)
	}
	params := def.ParamTypes()
	if len(inputs) != len(params) {
		return nil, fmt.Errorf("%w: layer %q takes %d inputs, got %d", ErrSizeMismatch, layer, len(params), len(inputs))
	}

	stack := make([]uint64, len(inputs))
	for i, v := range inputs {
		if !representable(params[i], v) {
			return nil, inputError(layer, i, params[i], v)
		}
		stack[i] = encodeValue(params[i], v)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, fmt.Errorf("%w: network released", ErrEmpty)
	}
	fn := n.module.ExportedFunction(layer)
	results, err := fn.Call(ctx, stack...)
	if err != nil {
		return nil, fmt.Errorf("layer %q failed: %w", layer, err)
	}

	out := make([]float64, len(results))
	for i, t := range def.ResultTypes() {
		out[i] = decodeValue(t, results[i])
	}
	return out, nil
}

// Drop closes the runtime.
func (n *Net) Drop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	n.runtime.Close(context.Background())
}

func inputError(layer string, i int, t api.ValueType, v float64) error {
	return fmt.Errorf("%w: input %d of layer %q is %s, %v does not fit",
		ErrBadArgument, i, layer, api.ValueTypeName(t), v)
}

// representable reports whether encodeValue keeps v intact for t. Integer
// types need an integral value in range; f32 accepts rounding but not
// overflow of a finite value.
func representable(t api.ValueType, v float64) bool {
	switch t {
	case api.ValueTypeI32:
		return integral(v) && v >= math.MinInt32 && v <= math.MaxInt32
	case api.ValueTypeI64:
		return integral(v) && v >= -(1<<63) && v < 1<<63
	case api.ValueTypeF32:
		return math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) <= math.MaxFloat32
	default:
		return true
	}
}

func integral(v float64) bool {
	return !math.IsInf(v, 0) && v == math.Trunc(v)
}

func encodeValue(t api.ValueType, v float64) uint64 {
	switch t {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(v))
	case api.ValueTypeI64:
		return api.EncodeI64(int64(v))
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v))
	default:
		return api.EncodeF64(v)
	}
}

func decodeValue(t api.ValueType, raw uint64) float64 {
	switch t {
	case api.ValueTypeI32:
		return float64(api.DecodeI32(raw))
	case api.ValueTypeI64:
		return float64(int64(raw))
	case api.ValueTypeF32:
		return float64(api.DecodeF32(raw))
	default:
		return api.DecodeF64(raw)
	}
}
