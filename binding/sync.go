package binding

import (
	"context"

	"github.com/wippyai/nativebind/host"
)

// Sync runs w to completion on the calling goroutine.
func Sync(ctx context.Context, op string, w Worker, args []host.Value) (host.Value, error) {
	tc := NewTryCatch(op)
	c := newCall(op, w)

	if !c.validate(args) || !c.execute(ctx) || !c.produce() {
		return nil, tc.Rethrow(c.err)
	}
	return c.result, nil
}
