package mount

import (
	"path/filepath"
	"sort"
	"strings"
)

const (
	// DefaultPrefix is the in-container directory host paths are mounted under.
	DefaultPrefix = "/dkr"

	// ModeReadWrite is the only access mode dkr uses.
	ModeReadWrite = "rw"
)

// Spec is where a host path is mounted in the container.
type Spec struct {
	Bind string
	Mode string
}

// Mounts maps absolute host paths to their mount specs.
type Mounts map[string]Spec

// Binds renders the mounts as engine bind strings, host:container:mode,
// sorted by host path.
func (m Mounts) Binds() []string {
	hosts := make([]string, 0, len(m))
	for host := range m {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	binds := make([]string, 0, len(hosts))
	for _, host := range hosts {
		spec := m[host]
		binds = append(binds, host+":"+spec.Bind+":"+spec.Mode)
	}
	return binds
}

// Mapper builds the volume mapping for an invocation.
type Mapper struct {
	Prefix   string
	WorkDir  string
	Home     string
	Resolver *Resolver
}

// NewMapper creates a Mapper rooted at workDir. An empty prefix uses
// DefaultPrefix.
func NewMapper(prefix, workDir, home string) *Mapper {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Mapper{
		Prefix:   prefix,
		WorkDir:  workDir,
		Home:     home,
		Resolver: NewResolver(workDir),
	}
}

// Bind returns the container path for host. It is a pure function of
// host: the prefix joined with the path minus its leading separators.
func (m *Mapper) Bind(host string) string {
	return filepath.Join(m.Prefix, strings.TrimLeft(host, string(filepath.Separator)))
}

// Build maps the working directory, the home directory, and every
// invocation token that resolves to an existing path along with that
// path's parent directory. Later entries overwrite earlier ones.
func (m *Mapper) Build(paths []string) Mounts {
	mounts := make(Mounts)
	for _, p := range []string{m.WorkDir, m.Home} {
		if p != "" {
			m.add(mounts, p)
		}
	}

	for _, token := range paths {
		found, ok := m.Resolver.Resolve(token)
		if !ok {
			continue
		}
		abs := m.abs(found)
		m.add(mounts, abs)
		m.add(mounts, filepath.Dir(abs))
	}
	return mounts
}

func (m *Mapper) add(mounts Mounts, host string) {
	mounts[host] = Spec{Bind: m.Bind(host), Mode: ModeReadWrite}
}

func (m *Mapper) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if m.WorkDir != "" {
		return filepath.Join(m.WorkDir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
