package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/runtime"
)

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

func TestDecodeArgs(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	args, err := decodeArgs(ctx, rt, `[1, "a", [true, null], {"k": 2}, {"$file": "`+path+`"},
		{"$mat": {"rows": 1, "cols": 2, "channels": 1, "data": [3, 4]}}]`)
	require.NoError(t, err)
	require.Len(t, args, 6)

	assert.Equal(t, host.Value(1.0), args[0])
	assert.Equal(t, host.Value("a"), args[1])
	assert.Equal(t, host.Array{true, nil}, args[2])
	assert.Equal(t, host.Record{"k": 2.0}, args[3])
	assert.Equal(t, []byte{1, 2, 3}, args[4])
	assert.Equal(t, "Mat", args[5].(host.Wrapped).ClassName())

	_, err = decodeArgs(ctx, rt, `{"not": "an array"}`)
	assert.Error(t, err)

	none, err := decodeArgs(ctx, rt, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCall_PrintsMatsAsData(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	mat := `{"$mat": {"rows": 1, "cols": 1, "channels": 1, "data": [0]}}`
	out, err := call(ctx, rt, "cartToPolar", "["+mat+","+mat+"]", false, time.Second)
	require.NoError(t, err)

	rec := out.(map[string]any)
	assert.Contains(t, rec["magnitude"], matKey)

	text, err := render(out, false)
	require.NoError(t, err)
	assert.Contains(t, text, `"magnitude":{"$mat":{`)
}

func TestCall_Async(t *testing.T) {
	rt := newRuntime(t)

	out, err := call(context.Background(), rt, "Mat.sum",
		`[{"$mat": {"rows": 1, "cols": 3, "channels": 1, "data": [1, 2, 3]}}]`, true, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []any{6.0}, out)
}

func TestFromHost_Undefined(t *testing.T) {
	rt := newRuntime(t)
	assert.Nil(t, fromHost(context.Background(), rt, host.Undefined))
	assert.Equal(t, map[string]any{"$bytes": 2}, fromHost(context.Background(), rt, []byte{1, 2}))
}
