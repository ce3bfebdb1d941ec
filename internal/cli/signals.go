package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// interruptSignals abort a running invocation.
var interruptSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// interruptWatch aborts a run on the first interrupt signal. Hooks run
// before the run's context is cancelled, so a hook can claim the active
// container ahead of the foreground teardown.
type interruptWatch struct {
	cancel context.CancelFunc
	log    *log.Logger

	sigs     chan os.Signal
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	mu    sync.Mutex
	hooks []func(os.Signal)
}

func newInterruptWatch(cancel context.CancelFunc, logger *log.Logger) *interruptWatch {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &interruptWatch{
		cancel: cancel,
		log:    logger,
		sigs:   make(chan os.Signal, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// onInterrupt adds a hook. Hooks run in registration order.
func (w *interruptWatch) onInterrupt(fn func(os.Signal)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks = append(w.hooks, fn)
}

// start listens for one interrupt. With notify false nothing is
// registered with the OS and signals only arrive through w.sigs.
func (w *interruptWatch) start(notify bool) {
	if notify {
		signal.Notify(w.sigs, interruptSignals...)
	}
	go w.loop()
}

func (w *interruptWatch) loop() {
	defer close(w.done)

	var sig os.Signal
	select {
	case sig = <-w.sigs:
	case <-w.quit:
		return
	}
	w.log.WithField("signal", sig).Info("interrupted, cleaning up")

	w.mu.Lock()
	hooks := make([]func(os.Signal), len(w.hooks))
	copy(hooks, w.hooks)
	w.mu.Unlock()
	for _, fn := range hooks {
		fn(sig)
	}
	if w.cancel != nil {
		w.cancel()
	}
}

// stop unregisters the signals and waits for an interrupt already in
// progress to finish its hooks. Safe to call more than once.
func (w *interruptWatch) stop() {
	signal.Stop(w.sigs)
	w.quitOnce.Do(func() { close(w.quit) })
	<-w.done
}
