package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/runtime"
)

// options holds the parsed command line.
type options struct {
	op          string
	args        string
	async       bool
	threads     int
	list        bool
	interactive bool
	verbose     bool
	timeout     time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.op, "op", "", "Operation to call, e.g. cartToPolar or Mat.sum")
	flag.StringVar(&o.args, "args", "", "Arguments as a JSON array")
	flag.BoolVar(&o.async, "async", false, "Run the async variant of the operation")
	flag.IntVar(&o.threads, "threads", -1, "Worker threads (negative keeps the default)")
	flag.BoolVar(&o.list, "list", false, "List operations and exit")
	flag.BoolVar(&o.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&o.verbose, "v", false, "Log dispatch and async completion")
	flag.DurationVar(&o.timeout, "timeout", 30*time.Second, "Timeout for async completion")
	flag.Parse()

	os.Exit(execute(o, os.Stderr))
}

// execute runs the command and returns the process exit code. Deferred
// cleanup, closing the runtime and flushing the logger, happens before it
// returns.
func execute(o options, stderr io.Writer) int {
	if o.op == "" && !o.list && !o.interactive {
		fmt.Fprintln(stderr, "Usage: nbrun -op <name> [-args '[...]'] [-async]")
		fmt.Fprintln(stderr, "       nbrun -list")
		fmt.Fprintln(stderr, "       nbrun -i  (interactive mode)")
		return 2
	}

	rtOpts := runtime.Options{}
	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer func() { _ = logger.Sync() }()
		rtOpts.Logger = logger
	}
	if o.threads >= 0 {
		threads := o.threads
		rtOpts.NumThreads = &threads
	}

	ctx := context.Background()
	rt, err := runtime.New(ctx, rtOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: close runtime: %v\n", err)
		}
	}()

	tty := term.IsTerminal(int(os.Stdout.Fd()))

	switch {
	case o.interactive:
		if !tty {
			err = fmt.Errorf("interactive mode needs a terminal")
		} else {
			err = runInteractive(rt)
		}
	case o.list:
		err = listOperations(rt, tty)
	default:
		err = run(ctx, rt, o.op, o.args, o.async, o.timeout, tty)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func listOperations(rt *runtime.Runtime, indent bool) error {
	out, err := render(rt.Registry().Describe(), indent)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func run(ctx context.Context, rt *runtime.Runtime, name, argsJSON string, async bool, timeout time.Duration, indent bool) error {
	out, err := call(ctx, rt, name, argsJSON, async, timeout)
	if err != nil {
		return err
	}
	text, err := render(out, indent)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(text)
	return nil
}

// call runs one operation and returns its printable result.
func call(ctx context.Context, rt *runtime.Runtime, name, argsJSON string, async bool, timeout time.Duration) (any, error) {
	args, err := decodeArgs(ctx, rt, argsJSON)
	if err != nil {
		return nil, err
	}

	var result host.Value
	if async {
		task, err := rt.Go(ctx, name, args...)
		if err != nil {
			return nil, err
		}
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := rt.RunUntilIdle(waitCtx); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", task.Op(), err)
		}
		if result, err = task.Wait(waitCtx); err != nil {
			return nil, err
		}
	} else if result, err = rt.Call(ctx, name, args...); err != nil {
		return nil, err
	}
	return fromHost(ctx, rt, result), nil
}
