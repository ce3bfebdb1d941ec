package container

import (
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/RevCBH/dkr/internal/image"
	"github.com/google/uuid"
)

// Labels put on every container dkr creates so stray containers can be
// found and pruned later.
const (
	LabelManagedBy = "dkr.managed-by"
	LabelImage     = "dkr.image"
	LabelOwnerPID  = "dkr.owner.pid"
	LabelOwnerHost = "dkr.owner.host"
	ManagedByValue = "dkr"

	containerPrefix = "dkr-"
)

// ContainerID is the full engine ID of a container.
type ContainerID string

// Handle identifies a container launched by dkr.
type Handle struct {
	ID    ContainerID
	Name  string
	Image string
}

// RunConfig specifies how a detached container is created and started.
type RunConfig struct {
	// Image is the resolved image reference (e.g., "alpine:latest")
	Image string

	// Name is the container name; empty means NewName(Image)
	Name string

	// Binds are host:container:mode volume strings
	Binds []string

	// Env contains environment variables to set in the container
	Env map[string]string

	// WorkDir is the working directory inside the container
	WorkDir string

	// User is "uid:gid"
	User string

	// Labels are merged over the dkr management labels
	Labels map[string]string

	// Owner is recorded on the container; zero means CurrentOwner()
	Owner Owner
}

// Owner is the dkr process a container was launched for.
type Owner struct {
	PID  int
	Host string
}

// CurrentOwner describes the running process.
func CurrentOwner() Owner {
	host, _ := os.Hostname()
	return Owner{PID: os.Getpid(), Host: host}
}

// Alive reports whether the owning process may still be using its
// container. A container without an owner is never alive. An owner on
// another host cannot be checked and counts as alive.
func (o Owner) Alive() bool {
	if o.PID <= 0 {
		return false
	}
	if host, _ := os.Hostname(); o.Host != host {
		return true
	}
	err := syscall.Kill(o.PID, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

func ownerFromLabels(l map[string]string) Owner {
	pid, err := strconv.Atoi(l[LabelOwnerPID])
	if err != nil {
		return Owner{}
	}
	return Owner{PID: pid, Host: l[LabelOwnerHost]}
}

// Summary describes a dkr-managed container found on the engine.
type Summary struct {
	ID    ContainerID
	Name  string
	Image string
	State string
	Owner Owner
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// NewName returns a unique container name derived from ref,
// e.g. "dkr-bwa-1a2b3c4d".
func NewName(ref string) string {
	name := strings.Trim(unsafeName.ReplaceAllString(image.ShortName(ref), "-"), "-.")
	if name == "" {
		name = "run"
	}
	return containerPrefix + name + "-" + uuid.NewString()[:8]
}

func labels(cfg RunConfig) map[string]string {
	owner := cfg.Owner
	if owner.PID == 0 {
		owner = CurrentOwner()
	}
	out := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelImage:     cfg.Image,
		LabelOwnerPID:  strconv.Itoa(owner.PID),
		LabelOwnerHost: owner.Host,
	}
	for k, v := range cfg.Labels {
		out[k] = v
	}
	return out
}
