package config

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Settings holds the process-wide knobs that are not part of the
// entrypoint document itself.
type Settings struct {
	// ConfigPath is the entrypoint config file. Default: ~/.dkr
	ConfigPath string

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string

	// Runtime is the CLI used for exec and pull: "docker" or "podman"
	Runtime string

	// MountPrefix is the in-container directory host paths are mounted under
	MountPrefix string
}

// DefaultSettings returns Settings with default values applied.
func DefaultSettings() *Settings {
	return &Settings{
		ConfigPath:  DefaultPath(),
		LogLevel:    DefaultLogLevel,
		Runtime:     DefaultRuntime,
		MountPrefix: DefaultMountPrefix,
	}
}

// LoadSettings applies defaults, then environment overrides.
func LoadSettings() *Settings {
	s := DefaultSettings()
	applyEnvOverrides(s)
	return s
}

// DefaultPath returns ~/.dkr, or .dkr in the working directory when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return DefaultConfigFile
	}
	return filepath.Join(home, DefaultConfigFile)
}
