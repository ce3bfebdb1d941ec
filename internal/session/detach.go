package session

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/RevCBH/dkr/internal/container"
)

// TeardownCommand is the hidden dkr subcommand a detached cleanup runs.
const TeardownCommand = "teardown"

// Detacher hands a container to a cleanup that outlives the foreground
// process.
type Detacher interface {
	Detach(h *container.Handle) error
}

// ProcessDetacher re-executes the dkr binary as `dkr teardown <id>` in a
// new session with no terminal, then lets it go. A second Ctrl+C at the
// shell cannot reach it.
type ProcessDetacher struct {
	// Executable is the dkr binary; empty means the running executable.
	Executable string
}

// Detach starts the background teardown process.
func (d ProcessDetacher) Detach(h *container.Handle) error {
	exe := d.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		if exe, err = filepath.EvalSymlinks(exe); err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}
	}

	cmd := exec.Command(exe, TeardownCommand, string(h.ID))
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start teardown process: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release teardown process: %w", err)
	}
	return nil
}

// Destroy stops and removes the container behind id. Failures are logged
// by the caller; a container that is already gone is not a failure.
func Destroy(ctx context.Context, engine container.Engine, id container.ContainerID) error {
	ctx = context.WithoutCancel(ctx)
	stopErr := engine.Stop(ctx, id)
	if err := engine.Remove(ctx, id); err != nil {
		if stopErr != nil {
			return fmt.Errorf("stop: %v; remove: %w", stopErr, err)
		}
		return fmt.Errorf("remove: %w", err)
	}
	if stopErr != nil {
		return fmt.Errorf("stop: %w", stopErr)
	}
	return nil
}
