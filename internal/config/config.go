package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entrypoint is a short name mapped to one or more image references.
// The first version is the default image for the entrypoint.
type Entrypoint struct {
	// Versions lists image references usable by the container engine.
	Versions []string `yaml:"versions"`
}

// Default returns the default (first) version, or "" if none exist.
func (e Entrypoint) Default() string {
	if len(e.Versions) == 0 {
		return ""
	}
	return e.Versions[0]
}

// HasVersion reports whether version is one of the entrypoint's images.
func (e Entrypoint) HasVersion(version string) bool {
	for _, v := range e.Versions {
		if v == version {
			return true
		}
	}
	return false
}

func (e Entrypoint) clone() Entrypoint {
	return Entrypoint{Versions: append([]string(nil), e.Versions...)}
}

// Config is the set of entrypoints persisted in the dkr config file.
// A Config is never modified in place; the With* and Without* methods
// return a new, validated Config. Document order is preserved so that
// list indices stay stable between invocations.
type Config struct {
	order   []string
	entries map[string]Entrypoint
}

// New returns an empty Config.
func New() *Config {
	return &Config{entries: make(map[string]Entrypoint)}
}

// Len returns the number of entrypoints.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Names returns entrypoint names in document order.
func (c *Config) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Entrypoint returns the named entrypoint.
func (c *Config) Entrypoint(name string) (Entrypoint, bool) {
	if c == nil {
		return Entrypoint{}, false
	}
	e, ok := c.entries[name]
	if !ok {
		return Entrypoint{}, false
	}
	return e.clone(), true
}

// DefaultVersion returns the default image of the named entrypoint.
func (c *Config) DefaultVersion(name string) (string, bool) {
	e, ok := c.Entrypoint(name)
	if !ok || len(e.Versions) == 0 {
		return "", false
	}
	return e.Default(), true
}

// Completions returns shell completion candidates for prefix: every
// entrypoint name, plus name::version for entrypoints with more than
// one version.
func (c *Config) Completions(prefix string) []string {
	var out []string
	for _, name := range c.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
		e := c.entries[name]
		if len(e.Versions) < 2 {
			continue
		}
		for _, v := range e.Versions {
			candidate := JoinEntrypoint(name, v)
			if strings.HasPrefix(candidate, prefix) {
				out = append(out, candidate)
			}
		}
	}
	return out
}

// Images returns every distinct image reference in the config, sorted.
func (c *Config) Images() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range c.Names() {
		for _, v := range c.entries[name].Versions {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (c *Config) clone() *Config {
	out := New()
	if c == nil {
		return out
	}
	out.order = append(out.order, c.order...)
	for name, e := range c.entries {
		out.entries[name] = e.clone()
	}
	return out
}

// SplitEntrypoint splits "name::version" into its parts. ok is false when
// base carries no explicit version.
func SplitEntrypoint(base string) (name, version string, ok bool) {
	return strings.Cut(base, EntrypointDelim)
}

// JoinEntrypoint builds the "name::version" selector syntax.
func JoinEntrypoint(name, version string) string {
	return name + EntrypointDelim + version
}

// UnmarshalYAML decodes a mapping of name -> {versions: [...]} while
// keeping the document's key order.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	out := New()

	// An empty document or an explicit null decodes to an empty config.
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*c = *out
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: config must be a mapping of entrypoint names", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("line %d: entrypoint name: %w", keyNode.Line, err)
		}
		if _, dup := out.entries[name]; dup {
			return &ValidationError{Field: name, Value: name, Message: "duplicate entrypoint"}
		}

		var e Entrypoint
		if err := strictDecode(valNode, &e); err != nil {
			return fmt.Errorf("line %d: entrypoint %q: %w", valNode.Line, name, err)
		}

		out.order = append(out.order, name)
		out.entries[name] = e
	}

	*c = *out
	return nil
}

// MarshalYAML encodes the config in document order.
func (c *Config) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range c.Names() {
		var val yaml.Node
		if err := val.Encode(c.entries[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&val,
		)
	}
	return node, nil
}

// strictDecode decodes an entrypoint body, rejecting unknown keys.
func strictDecode(node *yaml.Node, e *Entrypoint) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping with a versions key")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if key != "versions" {
			return fmt.Errorf("field %s not found in type config.Entrypoint", key)
		}
	}
	return node.Decode(e)
}
