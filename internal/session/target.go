package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RevCBH/dkr/internal/config"
)

// ErrResolution is returned when a base cannot be turned into an image.
var ErrResolution = errors.New("cannot resolve base")

// Lookup finds entrypoints by name. *config.Config implements it.
type Lookup interface {
	Entrypoint(name string) (config.Entrypoint, bool)
}

// Target is what the user asked to run, before any image or path work.
type Target struct {
	// Base is the first argument as typed
	Base string

	// Entrypoint is the config entry Base selected; empty for a raw image
	Entrypoint string

	// Image is the unresolved image reference
	Image string

	// Invocation is the command to exec. For an entrypoint it starts
	// with the entrypoint name.
	Invocation []string
}

// ResolveTarget interprets base against the config.
//
//   - "name::version" selects a listed version of an entrypoint
//   - "name" selects the entrypoint's default version
//   - anything else is used as an image reference as-is
//
// Entrypoints are run as the command of the same name, so their
// invocation is prefixed with the name.
func ResolveTarget(lookup Lookup, base string, invocation []string) (Target, error) {
	if strings.TrimSpace(base) == "" {
		return Target{}, fmt.Errorf("%w: no image or entrypoint given", ErrResolution)
	}
	inv := append([]string(nil), invocation...)

	if name, version, ok := config.SplitEntrypoint(base); ok {
		e, found := lookup.Entrypoint(name)
		if !found {
			return Target{}, fmt.Errorf("%w: unknown entrypoint %q", ErrResolution, name)
		}
		if !e.HasVersion(version) {
			return Target{}, fmt.Errorf("%w: %q is not a version of entrypoint %q", ErrResolution, version, name)
		}
		return Target{Base: base, Entrypoint: name, Image: version, Invocation: append([]string{name}, inv...)}, nil
	}

	if e, found := lookup.Entrypoint(base); found {
		if e.Default() == "" {
			return Target{}, fmt.Errorf("%w: entrypoint %q has no images", ErrResolution, base)
		}
		return Target{Base: base, Entrypoint: base, Image: e.Default(), Invocation: append([]string{base}, inv...)}, nil
	}

	return Target{Base: base, Image: base, Invocation: inv}, nil
}
