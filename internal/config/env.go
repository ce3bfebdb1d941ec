package config

import (
	"os"

	"github.com/mitchellh/go-homedir"
)

// envOverrides maps environment variables to settings field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Settings, string)
}{
	{
		envVar: "DKR_CONFIG",
		apply: func(s *Settings, v string) {
			if expanded, err := homedir.Expand(v); err == nil {
				v = expanded
			}
			s.ConfigPath = v
		},
	},
	{
		envVar: "DKR_LOG_LEVEL",
		apply: func(s *Settings, v string) {
			s.LogLevel = v
		},
	},
	{
		envVar: "DKR_RUNTIME",
		apply: func(s *Settings, v string) {
			s.Runtime = v
		},
	},
	{
		envVar: "DKR_MOUNT_PREFIX",
		apply: func(s *Settings, v string) {
			s.MountPrefix = v
		},
	},
}

// applyEnvOverrides modifies settings in place with environment variable values.
func applyEnvOverrides(s *Settings) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(s, val)
		}
	}
}
