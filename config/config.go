// Package config holds process-wide native library settings.
//
// Settings are read and written only through the accessor functions; the
// worker pool follows NumThreads through Subscribe.
package config

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/nativebind/pool"
)

// EnvNumThreads overrides the initial thread count when set to an integer.
const EnvNumThreads = "NATIVEBIND_NUM_THREADS"

// Version is reported in BuildInformation.
const Version = "0.4.0"

type settings struct {
	subscribers map[uint64]func(int)
	mu          sync.RWMutex
	numThreads  int // negative selects the default
	nextSub     uint64
}

var (
	instance     *settings
	instanceOnce sync.Once
)

func get() *settings {
	instanceOnce.Do(func() {
		instance = &settings{
			numThreads:  -1,
			subscribers: make(map[uint64]func(int)),
		}
		if v, ok := os.LookupEnv(EnvNumThreads); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				instance.numThreads = n
			}
		}
	})
	return instance
}

// DefaultNumThreads is the thread count used when none is configured.
func DefaultNumThreads() int {
	return runtime.GOMAXPROCS(0)
}

// NumThreads returns the effective number of worker threads.
func NumThreads() int {
	s := get()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return effective(s.numThreads)
}

// SetNumThreads sets the worker thread count. Negative values restore the
// default; 0 runs native work on a single worker.
func SetNumThreads(n int) {
	s := get()
	s.mu.Lock()
	s.numThreads = n
	eff := effective(n)
	subs := make([]func(int), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(eff)
	}
}

// Subscribe calls fn with the effective thread count whenever it changes.
func Subscribe(fn func(numThreads int)) (unsubscribe func()) {
	s := get()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// ThreadNum returns the index of the worker running ctx, or 0 on the host
// thread.
func ThreadNum(ctx context.Context) int {
	if idx, ok := pool.WorkerIndex(ctx); ok {
		return idx
	}
	return 0
}

// BuildInformation describes how the module was built.
func BuildInformation() string {
	var b strings.Builder

	fmt.Fprintf(&b, "General configuration for nativebind %s\n", Version)
	fmt.Fprintf(&b, "  Go version:        %s\n", runtime.Version())
	fmt.Fprintf(&b, "  Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "  CPUs:              %d\n", runtime.NumCPU())
	fmt.Fprintf(&b, "  Threads:           %d (default %d)\n", NumThreads(), DefaultNumThreads())

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b.String()
	}

	var flags []string
	for _, s := range info.Settings {
		if s.Value != "" {
			flags = append(flags, s.Key+"="+s.Value)
		}
	}
	if len(flags) > 0 {
		sort.Strings(flags)
		fmt.Fprintf(&b, "  Build settings:    %s\n", strings.Join(flags, " "))
	}

	if len(info.Deps) > 0 {
		b.WriteString("  Dependencies:\n")
		for _, d := range info.Deps {
			fmt.Fprintf(&b, "    %s %s\n", d.Path, d.Version)
		}
	}
	return b.String()
}

func effective(n int) int {
	switch {
	case n < 0:
		return DefaultNumThreads()
	case n == 0:
		return 1
	default:
		return n
	}
}
