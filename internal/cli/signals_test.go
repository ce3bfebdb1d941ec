package cli

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, w *interruptWatch) {
	t.Helper()
	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("interrupt handling did not finish")
	}
}

func TestInterruptWatch_RunsHooksThenCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newInterruptWatch(cancel, nil)

	var (
		mu        sync.Mutex
		got       []os.Signal
		ctxAtHook error
	)
	w.onInterrupt(func(sig os.Signal) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, sig)
		ctxAtHook = ctx.Err()
	})

	w.start(false)
	w.sigs <- syscall.SIGINT
	waitDone(t, w)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []os.Signal{syscall.SIGINT}, got)
	assert.NoError(t, ctxAtHook, "context must be live while hooks run")
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestInterruptWatch_HookOrder(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newInterruptWatch(cancel, nil)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		w.onInterrupt(func(os.Signal) { order = append(order, i) })
	}

	w.start(false)
	w.sigs <- syscall.SIGTERM
	waitDone(t, w)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestInterruptWatch_StopWithoutSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newInterruptWatch(cancel, nil)

	called := false
	w.onInterrupt(func(os.Signal) { called = true })
	w.start(false)

	w.stop()
	w.stop()

	assert.False(t, called)
	assert.NoError(t, ctx.Err())
}

func TestInterruptWatch_StopWaitsForHooks(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := newInterruptWatch(cancel, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	finished := false
	w.onInterrupt(func(os.Signal) {
		close(entered)
		<-release
		finished = true
	})

	w.start(false)
	w.sigs <- syscall.SIGHUP
	<-entered

	stopped := make(chan struct{})
	go func() {
		w.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a hook was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-stopped
	require.True(t, finished)
}
