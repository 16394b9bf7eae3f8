package config

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nativebind/pool"
)

func TestSetNumThreads(t *testing.T) {
	t.Cleanup(func() { SetNumThreads(-1) })

	SetNumThreads(3)
	assert.Equal(t, 3, NumThreads())

	SetNumThreads(0)
	assert.Equal(t, 1, NumThreads())

	SetNumThreads(-1)
	assert.Equal(t, DefaultNumThreads(), NumThreads())
}

func TestSubscribe(t *testing.T) {
	t.Cleanup(func() { SetNumThreads(-1) })

	var got []int
	unsubscribe := Subscribe(func(n int) { got = append(got, n) })

	SetNumThreads(2)
	SetNumThreads(5)
	unsubscribe()
	SetNumThreads(7)

	assert.Equal(t, []int{2, 5}, got)
}

func TestThreadNum(t *testing.T) {
	assert.Equal(t, 0, ThreadNum(context.Background()))

	p := pool.New(2)
	defer p.Close()

	var wg sync.WaitGroup
	seen := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			seen <- ThreadNum(ctx)
		}))
	}
	wg.Wait()
	close(seen)

	for n := range seen {
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 2)
	}
}

func TestBuildInformation(t *testing.T) {
	info := BuildInformation()
	assert.True(t, strings.HasPrefix(info, "General configuration for nativebind"))
	assert.Contains(t, info, "Go version:")
	assert.Contains(t, info, "Threads:")
}
