package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/runtime"
)

// Argument objects with one of these keys are materialised before the call:
//
//	{"$mat": {"rows": 2, "cols": 2, "channels": 1, "data": [...]}}  -> Mat
//	{"$file": "model.wasm"}                                         -> buffer
const (
	matKey  = "$mat"
	fileKey = "$file"
)

// decodeArgs parses a JSON array of arguments into host values.
func decodeArgs(ctx context.Context, rt *runtime.Runtime, raw string) ([]host.Value, error) {
	if raw == "" {
		return nil, nil
	}
	var values []any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("args must be a JSON array: %w", err)
	}
	out := make([]host.Value, len(values))
	for i, v := range values {
		hv, err := toHost(ctx, rt, v)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		out[i] = hv
	}
	return out, nil
}

func toHost(ctx context.Context, rt *runtime.Runtime, v any) (host.Value, error) {
	switch t := v.(type) {
	case []any:
		arr := make(host.Array, len(t))
		for i, e := range t {
			hv, err := toHost(ctx, rt, e)
			if err != nil {
				return nil, err
			}
			arr[i] = hv
		}
		return arr, nil
	case map[string]any:
		if m, ok := t[matKey]; ok && len(t) == 1 {
			return rt.Call(ctx, "Mat", m)
		}
		if path, ok := t[fileKey].(string); ok && len(t) == 1 {
			return os.ReadFile(path)
		}
		rec := make(host.Record, len(t))
		for k, e := range t {
			hv, err := toHost(ctx, rt, e)
			if err != nil {
				return nil, err
			}
			rec[k] = hv
		}
		return rec, nil
	default:
		return v, nil
	}
}

// fromHost turns a result into something encoding/json can print. Mats are
// expanded to their data; other objects print as their class.
func fromHost(ctx context.Context, rt *runtime.Runtime, v host.Value) any {
	switch t := v.(type) {
	case host.Array:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromHost(ctx, rt, e)
		}
		return out
	case host.Record:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fromHost(ctx, rt, e)
		}
		return out
	case host.Wrapped:
		if !t.Alive() {
			return map[string]any{"$object": t.ClassName(), "released": true}
		}
		if t.ClassName() == "Mat" {
			if data, err := rt.CallMethod(ctx, t, "getData"); err == nil {
				return map[string]any{matKey: fromHost(ctx, rt, data)}
			}
		}
		return map[string]any{"$object": t.ClassName()}
	case []byte:
		return map[string]any{"$bytes": len(t)}
	default:
		if host.IsUndefined(v) {
			return nil
		}
		return v
	}
}

func render(v any, indent bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
