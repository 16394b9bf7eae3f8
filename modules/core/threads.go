package core

import (
	"context"

	"github.com/wippyai/nativebind/config"
	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/host"
)

func getBuildInformation(context.Context, *convert.Args) (host.Value, error) {
	return config.BuildInformation(), nil
}

func getNumThreads(context.Context, *convert.Args) (host.Value, error) {
	return convert.Int.ToHost(config.NumThreads()), nil
}

func setNumThreads(_ context.Context, a *convert.Args) (host.Value, error) {
	var n int
	if convert.Arg(a, 0, convert.Int, &n) {
		return nil, a.Err()
	}
	config.SetNumThreads(n)
	return host.Undefined, nil
}

func getThreadNum(ctx context.Context, _ *convert.Args) (host.Value, error) {
	return convert.Int.ToHost(config.ThreadNum(ctx)), nil
}
