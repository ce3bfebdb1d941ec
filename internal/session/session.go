// Package session runs one invocation inside one ephemeral container:
// prepare, launch, exec, and tear down exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/RevCBH/dkr/internal/container"
	"github.com/RevCBH/dkr/internal/mount"
	log "github.com/sirupsen/logrus"
)

// State is a session's lifecycle stage.
type State int

const (
	Idle State = iota
	Prepared
	Launched
	Executing
	TornDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Prepared:
		return "prepared"
	case Launched:
		return "launched"
	case Executing:
		return "executing"
	case TornDown:
		return "torn-down"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

var (
	// ErrImageLaunch is returned when the container cannot be started.
	ErrImageLaunch = errors.New("cannot launch image")

	// ErrInvalidState is returned when an operation is called out of order.
	ErrInvalidState = errors.New("invalid session state")
)

// DefaultExecFlags keep stdin attached to the exec'd command.
var DefaultExecFlags = []string{"-i"}

// ShellCommand is run by interactive debug sessions.
const ShellCommand = "sh"

// ImageResolver turns a reference into one the engine can launch.
type ImageResolver interface {
	Resolve(ctx context.Context, base string) (string, error)
}

// Deps are the collaborators a Session drives.
type Deps struct {
	Images   ImageResolver
	Engine   container.Engine
	Executor container.Executor
	Detacher Detacher
	Mapper   *mount.Mapper
	UID      int
	GID      int
	Log      *log.Logger
}

// Options tune how the command is exec'd.
type Options struct {
	// ExecFlags replace DefaultExecFlags when set
	ExecFlags []string

	// Shell runs an interactive shell instead of the invocation
	Shell bool

	// TTY adds -t in shell mode; set it when stdin is a terminal
	TTY bool
}

// Session owns a single container from launch to teardown.
type Session struct {
	deps Deps
	opts Options

	mu    sync.Mutex
	state State
	spec  *LaunchSpec

	// active holds the running container until teardown or interrupt
	// claims it. Whoever swaps it to nil owns the cleanup.
	active atomic.Pointer[container.Handle]
}

// New creates an idle Session.
func New(deps Deps, opts Options) *Session {
	if deps.Log == nil {
		deps.Log = log.New()
		deps.Log.SetOutput(io.Discard)
	}
	return &Session{deps: deps, opts: opts}
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Spec returns a copy of the prepared launch spec, or nil before Prepare.
func (s *Session) Spec() *LaunchSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec == nil {
		return nil
	}
	return s.spec.clone()
}

// Handle returns the running container, or nil once it has been claimed
// for teardown.
func (s *Session) Handle() *container.Handle {
	return s.active.Load()
}

func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, s.state, from)
	}
	s.state = to
	return nil
}

// Prepare resolves the image and computes mounts, the rewritten
// invocation, and the container environment.
func (s *Session) Prepare(ctx context.Context, t Target) (*LaunchSpec, error) {
	if st := s.State(); st != Idle {
		return nil, fmt.Errorf("%w: %s, want %s", ErrInvalidState, st, Idle)
	}

	img, err := s.deps.Images.Resolve(ctx, t.Image)
	if err != nil {
		return nil, fmt.Errorf("resolve image %q: %w", t.Image, err)
	}

	m := s.deps.Mapper
	volumes := m.Build(t.Invocation)
	spec := &LaunchSpec{
		Image:      img,
		Volumes:    volumes,
		Invocation: mount.Rewrite(t.Invocation, volumes),
		Env:        map[string]string{},
		WorkDir:    m.Bind(m.WorkDir),
		User:       fmt.Sprintf("%d:%d", s.deps.UID, s.deps.GID),
		ExecFlags:  s.execFlags(),
	}
	if m.Home != "" {
		spec.Env["HOME"] = m.Bind(m.Home)
	}
	if s.opts.Shell {
		spec.Invocation = []string{ShellCommand}
	}

	if err := s.transition(Idle, Prepared); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.spec = spec
	s.mu.Unlock()

	s.deps.Log.WithFields(spec.Fields()).Debug("prepared launch")
	return spec.clone(), nil
}

func (s *Session) execFlags() []string {
	if s.opts.Shell {
		if s.opts.TTY {
			return []string{"-i", "-t"}
		}
		return []string{"-i"}
	}
	if len(s.opts.ExecFlags) > 0 {
		return append([]string(nil), s.opts.ExecFlags...)
	}
	return append([]string(nil), DefaultExecFlags...)
}

// Launch starts the detached container for the prepared spec.
func (s *Session) Launch(ctx context.Context) (*container.Handle, error) {
	spec := s.Spec()
	if err := s.transition(Prepared, Launched); err != nil {
		return nil, err
	}

	h, err := s.deps.Engine.Run(ctx, container.RunConfig{
		Image:   spec.Image,
		Binds:   spec.Volumes.Binds(),
		Env:     spec.Env,
		WorkDir: spec.WorkDir,
		User:    spec.User,
	})
	if err != nil {
		s.setState(TornDown)
		if errors.Is(err, container.ErrImageNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrImageLaunch, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrImageLaunch, spec.Image, err)
	}

	s.active.Store(h)
	s.deps.Log.WithFields(log.Fields{"container": h.ID, "name": h.Name}).Debug("container launched")
	return h, nil
}

// Execute runs the invocation in the launched container and returns its
// exit status.
func (s *Session) Execute(ctx context.Context) (int, error) {
	spec := s.Spec()
	if err := s.transition(Launched, Executing); err != nil {
		return -1, err
	}
	h := s.active.Load()
	if h == nil {
		return -1, fmt.Errorf("%w: container already torn down", ErrInvalidState)
	}
	return s.deps.Executor.Exec(ctx, h.ID, spec.ExecFlags, spec.Invocation)
}

// Teardown stops and removes the container if this session still owns
// it. It reports whether it did the cleanup. Engine errors are logged and
// swallowed.
func (s *Session) Teardown(ctx context.Context) bool {
	h := s.active.Swap(nil)
	s.setState(TornDown)
	if h == nil {
		return false
	}
	s.destroy(ctx, h)
	return true
}

// Interrupt hands the container to the Detacher so cleanup survives the
// foreground process exiting. It reports whether there was a container to
// hand over. When detaching fails the cleanup runs here instead.
func (s *Session) Interrupt() bool {
	h := s.active.Swap(nil)
	s.setState(TornDown)
	if h == nil {
		return false
	}

	if s.deps.Detacher != nil {
		err := s.deps.Detacher.Detach(h)
		if err == nil {
			s.deps.Log.WithField("container", h.ID).Debug("teardown detached")
			return true
		}
		s.deps.Log.WithError(err).Debug("detach failed, tearing down in foreground")
	}
	s.destroy(context.Background(), h)
	return true
}

// Run prepares, launches and executes t, tearing the container down on
// every return path.
func (s *Session) Run(ctx context.Context, t Target) (int, error) {
	if _, err := s.Prepare(ctx, t); err != nil {
		return -1, err
	}
	if _, err := s.Launch(ctx); err != nil {
		return -1, err
	}
	defer s.Teardown(ctx)

	return s.Execute(ctx)
}

func (s *Session) destroy(ctx context.Context, h *container.Handle) {
	if err := Destroy(ctx, s.deps.Engine, h.ID); err != nil {
		s.deps.Log.WithError(err).WithField("container", h.ID).Debug("teardown failed")
		return
	}
	s.deps.Log.WithField("container", h.ID).Debug("container removed")
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
