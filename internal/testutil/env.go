package testutil

import (
	"testing"

	"github.com/mitchellh/go-homedir"
)

var dkrEnvVars = []string{
	"DKR_CONFIG",
	"DKR_LOG_LEVEL",
	"DKR_RUNTIME",
	"DKR_MOUNT_PREFIX",
}

// IsolateEnv clears dkr environment overrides and points HOME at a fresh
// temp dir for the duration of the test. It returns the new HOME.
func IsolateEnv(t testing.TB) string {
	t.Helper()
	for _, key := range dkrEnvVars {
		t.Setenv(key, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)

	prev := homedir.DisableCache
	homedir.DisableCache = true
	homedir.Reset()
	t.Cleanup(func() {
		homedir.DisableCache = prev
		homedir.Reset()
	})
	return home
}
