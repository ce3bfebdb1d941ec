package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// CLI implements Executor and Puller with the docker/podman binary, so the
// user's terminal is wired straight to the container process.
type CLI struct {
	runtime string // "docker" or "podman"

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCLI creates a CLI for runtime attached to the process's stdio.
// Use DetectRuntime() to find an available runtime first.
func NewCLI(runtime string) *CLI {
	return &CLI{
		runtime: runtime,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// ExecArgs returns the argument list Exec passes to the runtime.
func ExecArgs(id ContainerID, flags, invocation []string) []string {
	args := make([]string, 0, 2+len(flags)+len(invocation))
	args = append(args, "exec")
	args = append(args, flags...)
	args = append(args, string(id))
	return append(args, invocation...)
}

// Exec runs `<runtime> exec <flags> <id> <invocation...>` and blocks until
// it exits. The returned status is the remote command's exit code, or
// 128+N when the exec process was killed by signal N. err is only set
// when the runtime could not be started at all.
func (c *CLI) Exec(ctx context.Context, id ContainerID, flags, invocation []string) (int, error) {
	cmd := exec.CommandContext(ctx, c.runtime, ExecArgs(id, flags, invocation)...)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to exec in container: %w", err)
}

// Pull runs `<runtime> pull <ref>`. Progress goes to stderr so stdout
// stays clean for the wrapped command's output.
func (c *CLI) Pull(ctx context.Context, ref string) error {
	cmd := exec.CommandContext(ctx, c.runtime, "pull", ref)
	cmd.Stdout = c.Stderr
	cmd.Stderr = c.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to pull %s: %w", ref, err)
	}
	return nil
}

// Verify CLI implements the exec and pull interfaces
var (
	_ Executor = (*CLI)(nil)
	_ Puller   = (*CLI)(nil)
)
