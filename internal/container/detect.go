package container

import (
	"errors"
	"os/exec"
)

// ErrNoRuntime is returned when no container runtime is found.
var ErrNoRuntime = errors.New("no container runtime found (need docker or podman)")

// runtimeWorks is swapped in tests.
var runtimeWorks = func(bin string) bool {
	if _, err := exec.LookPath(bin); err != nil {
		return false
	}
	return exec.Command(bin, "version").Run() == nil
}

// DetectRuntime finds an available container runtime. preferred is tried
// first when set, then docker, then podman. A runtime only counts when
// `<runtime> version` succeeds.
func DetectRuntime(preferred string) (string, error) {
	candidates := []string{"docker", "podman"}
	if preferred != "" {
		candidates = append([]string{preferred}, candidates...)
	}
	for _, bin := range candidates {
		if runtimeWorks(bin) {
			return bin, nil
		}
	}
	return "", ErrNoRuntime
}
