package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RevCBH/dkr/internal/container"
)

// FakeEngine is an in-memory container.Engine that records every call.
type FakeEngine struct {
	mu sync.Mutex

	Tags      []string
	TagsErr   error
	RunErr    error
	StopErr   error
	RemoveErr error
	Managed   []container.Summary

	calls  []string
	runs   []container.RunConfig
	nextID int
}

// NewFakeEngine returns a FakeEngine that holds the given local tags.
func NewFakeEngine(tags ...string) *FakeEngine {
	return &FakeEngine{Tags: tags}
}

func (f *FakeEngine) record(args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.Join(args, " "))
}

func (f *FakeEngine) ImageTags(context.Context) ([]string, error) {
	f.record("tags")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Tags...), f.TagsErr
}

func (f *FakeEngine) Run(_ context.Context, cfg container.RunConfig) (*container.Handle, error) {
	f.record("run", cfg.Image)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, cfg)
	if f.RunErr != nil {
		return nil, f.RunErr
	}
	f.nextID++
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("dkr-fake-%d", f.nextID)
	}
	return &container.Handle{
		ID:    container.ContainerID(fmt.Sprintf("fake-%d", f.nextID)),
		Name:  name,
		Image: cfg.Image,
	}, nil
}

func (f *FakeEngine) Stop(_ context.Context, id container.ContainerID) error {
	f.record("stop", string(id))
	return f.StopErr
}

func (f *FakeEngine) Remove(_ context.Context, id container.ContainerID) error {
	f.record("remove", string(id))
	return f.RemoveErr
}

func (f *FakeEngine) ListManaged(context.Context) ([]container.Summary, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]container.Summary(nil), f.Managed...), nil
}

func (f *FakeEngine) Close() error {
	return nil
}

// Calls returns every recorded call as "op args...".
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallsFor counts calls matching op and args exactly.
func (f *FakeEngine) CallsFor(args ...string) int {
	key := strings.Join(args, " ")
	count := 0
	for _, call := range f.Calls() {
		if call == key {
			count++
		}
	}
	return count
}

// Runs returns the configs passed to Run.
func (f *FakeEngine) Runs() []container.RunConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]container.RunConfig(nil), f.runs...)
}

var _ container.Engine = (*FakeEngine)(nil)

// ExecCall is one recorded FakeRuntime.Exec.
type ExecCall struct {
	ID         container.ContainerID
	Flags      []string
	Invocation []string
}

// FakeRuntime is a container.Executor and container.Puller that records
// calls instead of spawning a runtime binary.
type FakeRuntime struct {
	mu sync.Mutex

	ExitCode int
	ExecErr  error
	PullErr  error

	// OnExec runs inside Exec before it returns, e.g. to simulate a
	// signal arriving while the command is running.
	OnExec func(call ExecCall)

	execs []ExecCall
	pulls []string
}

func (f *FakeRuntime) Exec(_ context.Context, id container.ContainerID, flags, invocation []string) (int, error) {
	call := ExecCall{
		ID:         id,
		Flags:      append([]string(nil), flags...),
		Invocation: append([]string(nil), invocation...),
	}
	f.mu.Lock()
	f.execs = append(f.execs, call)
	hook := f.OnExec
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return f.ExitCode, f.ExecErr
}

func (f *FakeRuntime) Pull(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, ref)
	return f.PullErr
}

// Execs returns the recorded exec calls.
func (f *FakeRuntime) Execs() []ExecCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExecCall(nil), f.execs...)
}

// Pulls returns the refs pulled.
func (f *FakeRuntime) Pulls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pulls...)
}

var (
	_ container.Executor = (*FakeRuntime)(nil)
	_ container.Puller   = (*FakeRuntime)(nil)
)
