package container

import (
	"context"
	"errors"
)

var (
	// ErrImageNotFound is returned by Run when the image is neither local
	// nor pullable.
	ErrImageNotFound = errors.New("image not found")

	// ErrEngineUnavailable is returned when the engine daemon cannot be
	// reached.
	ErrEngineUnavailable = errors.New("container engine unavailable")
)

// Engine is the container lifecycle surface dkr needs from the daemon.
// Implementations must be safe for concurrent use.
type Engine interface {
	// ImageTags returns every repo tag stored locally.
	ImageTags(ctx context.Context) ([]string, error)

	// Run creates and starts a detached container with stdin held open so
	// it idles until commands are exec'd into it.
	Run(ctx context.Context, cfg RunConfig) (*Handle, error)

	// Stop stops a running container using the engine's grace period.
	// A container that no longer exists is not an error.
	Stop(ctx context.Context, id ContainerID) error

	// Remove removes a container. A container that no longer exists is
	// not an error.
	Remove(ctx context.Context, id ContainerID) error

	// ListManaged returns containers carrying the dkr management label.
	ListManaged(ctx context.Context) ([]Summary, error)

	// Close releases the connection to the daemon.
	Close() error
}

// Executor runs a command inside a running container, attached to the
// caller's terminal, and returns the command's exit status.
type Executor interface {
	Exec(ctx context.Context, id ContainerID, flags []string, invocation []string) (int, error)
}

// Puller fetches an image, reporting progress to the user.
type Puller interface {
	Pull(ctx context.Context, ref string) error
}
