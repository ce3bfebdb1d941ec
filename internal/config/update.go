package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntrypoint is returned when an update targets a missing entrypoint.
	ErrUnknownEntrypoint = errors.New("entrypoint does not exist")

	// ErrEntrypointExists is returned by WithEntrypoint for an existing name.
	ErrEntrypointExists = errors.New("entrypoint already exists")

	// ErrVersionExists is returned when adding a version already listed.
	ErrVersionExists = errors.New("version already exists for entrypoint")

	// ErrUnknownVersion is returned when removing a version that is not listed.
	ErrUnknownVersion = errors.New("version does not exist for entrypoint")
)

// WithEntrypoint returns a copy of c with a new entrypoint appended.
func (c *Config) WithEntrypoint(name string, versions []string) (*Config, error) {
	if _, ok := c.Entrypoint(name); ok {
		return nil, fmt.Errorf("%w: %s", ErrEntrypointExists, name)
	}

	next := c.clone()
	next.order = append(next.order, name)
	next.entries[name] = Entrypoint{Versions: append([]string(nil), versions...)}
	return next.validated()
}

// WithoutEntrypoint returns a copy of c without the named entrypoint.
func (c *Config) WithoutEntrypoint(name string) (*Config, error) {
	if _, ok := c.Entrypoint(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntrypoint, name)
	}

	next := c.clone()
	delete(next.entries, name)
	order := next.order[:0]
	for _, n := range next.order {
		if n != name {
			order = append(order, n)
		}
	}
	next.order = order
	return next.validated()
}

// WithVersion returns a copy of c with version added to the named
// entrypoint. When asDefault is set the version goes to the top of
// the list, otherwise it is appended.
func (c *Config) WithVersion(name, version string, asDefault bool) (*Config, error) {
	e, ok := c.Entrypoint(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntrypoint, name)
	}
	if e.HasVersion(version) {
		return nil, fmt.Errorf("%w: %s %s", ErrVersionExists, name, version)
	}

	if asDefault {
		e.Versions = append([]string{version}, e.Versions...)
	} else {
		e.Versions = append(e.Versions, version)
	}

	next := c.clone()
	next.entries[name] = e
	return next.validated()
}

// WithoutVersion returns a copy of c with version removed from the named
// entrypoint. Removing the last version removes the entrypoint, since an
// entrypoint without versions is invalid.
func (c *Config) WithoutVersion(name, version string) (*Config, error) {
	e, ok := c.Entrypoint(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntrypoint, name)
	}
	if !e.HasVersion(version) {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownVersion, name, version)
	}

	versions := make([]string, 0, len(e.Versions)-1)
	for _, v := range e.Versions {
		if v != version {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return c.WithoutEntrypoint(name)
	}

	next := c.clone()
	next.entries[name] = Entrypoint{Versions: versions}
	return next.validated()
}

// Filter returns a copy of c restricted by 1-based indices. An empty
// entrypoints slice keeps every entrypoint; an empty images slice keeps
// every version. Entrypoints left without versions are dropped.
func (c *Config) Filter(entrypoints, images []int) *Config {
	keepEntry := indexSet(entrypoints)
	keepImage := indexSet(images)

	out := New()
	for i, name := range c.Names() {
		if len(keepEntry) > 0 && !keepEntry[i+1] {
			continue
		}
		var versions []string
		for j, v := range c.entries[name].Versions {
			if len(keepImage) > 0 && !keepImage[j+1] {
				continue
			}
			versions = append(versions, v)
		}
		if len(versions) == 0 {
			continue
		}
		out.order = append(out.order, name)
		out.entries[name] = Entrypoint{Versions: versions}
	}
	return out
}

// Merge returns a copy of c with every entrypoint of other added. New
// entrypoints are appended; versions of existing ones that c lacks are
// added, at the top when asDefault is set, keeping other's order.
func (c *Config) Merge(other *Config, asDefault bool) (*Config, error) {
	next := c.clone()
	for _, name := range other.Names() {
		incoming := other.entries[name]
		e, exists := next.entries[name]
		if !exists {
			next.order = append(next.order, name)
			next.entries[name] = incoming.clone()
			continue
		}

		var added []string
		for _, v := range incoming.Versions {
			if !e.HasVersion(v) {
				added = append(added, v)
				e.Versions = append(e.Versions, v)
			}
		}
		if asDefault && len(added) > 0 {
			kept := e.Versions[:len(e.Versions)-len(added)]
			e.Versions = append(added, kept...)
		}
		next.entries[name] = e
	}
	return next.validated()
}

// Subtract returns a copy of c without the entrypoints named in other.
// With onlyVersions set just the listed versions are removed, and an
// entrypoint is dropped only once it has none left. Names and versions
// that c does not have are ignored.
func (c *Config) Subtract(other *Config, onlyVersions bool) (*Config, error) {
	next := c.clone()
	var err error
	for _, name := range other.Names() {
		e, exists := next.Entrypoint(name)
		if !exists {
			continue
		}
		if !onlyVersions {
			if next, err = next.WithoutEntrypoint(name); err != nil {
				return nil, err
			}
			continue
		}
		for _, v := range other.entries[name].Versions {
			if !e.HasVersion(v) {
				continue
			}
			if next, err = next.WithoutVersion(name, v); err != nil {
				return nil, err
			}
		}
	}
	return next, nil
}

func (c *Config) validated() (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func indexSet(indices []int) map[int]bool {
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return set
}
