package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `ls:
  versions:
    - alpine:latest
    - busybox:latest
bwa:
  versions:
    - quay.io/biocontainers/bwa:latest
    - quay.io/biocontainers/bwa:0.7.17--h84994c4_5
samtools:
  versions:
    - quay.io/biocontainers/samtools:1.9--h91753b0_8
`

// writeFile creates a file with the given content for testing
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestParse_PreservesOrder(t *testing.T) {
	cfg, err := ParseBytes([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"ls", "bwa", "samtools"}, cfg.Names())
	assert.Equal(t, 3, cfg.Len())
}

func TestParse_Empty(t *testing.T) {
	for _, doc := range []string{"", "   \n", "{}", "null"} {
		cfg, err := ParseBytes([]byte(doc))
		require.NoError(t, err, "doc %q", doc)
		assert.Equal(t, 0, cfg.Len(), "doc %q", doc)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := ParseBytes([]byte("ls:\n  versions: [alpine]\n  image: alpine\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image")
}

func TestParse_RejectsNonMapping(t *testing.T) {
	_, err := ParseBytes([]byte("- ls\n- bwa\n"))
	require.Error(t, err)
}

func TestParse_RejectsEmptyVersions(t *testing.T) {
	_, err := ParseBytes([]byte("ls:\n  versions: []\n"))
	require.Error(t, err)

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestParse_RejectsDuplicateKeys(t *testing.T) {
	_, err := ParseBytes([]byte("ls:\n  versions: [alpine]\nls:\n  versions: [busybox]\n"))
	require.Error(t, err)
}

func TestParse_RejectsExpressions(t *testing.T) {
	// The pipe protocol is a YAML document, not an evaluated literal.
	_, err := ParseBytes([]byte("{'ls': {'versions': ['alpine']}, __import__('os'): 1}"))
	require.Error(t, err)
}

func TestEntrypointLookup(t *testing.T) {
	cfg, err := ParseBytes([]byte(sampleConfig))
	require.NoError(t, err)

	e, ok := cfg.Entrypoint("ls")
	require.True(t, ok)
	assert.Equal(t, []string{"alpine:latest", "busybox:latest"}, e.Versions)

	def, ok := cfg.DefaultVersion("ls")
	require.True(t, ok)
	assert.Equal(t, "alpine:latest", def)

	_, ok = cfg.Entrypoint("missing")
	assert.False(t, ok)
	_, ok = cfg.DefaultVersion("missing")
	assert.False(t, ok)
}

func TestEntrypointLookup_ReturnsCopy(t *testing.T) {
	cfg, err := ParseBytes([]byte(sampleConfig))
	require.NoError(t, err)

	e, _ := cfg.Entrypoint("ls")
	e.Versions[0] = "mutated"

	again, _ := cfg.Entrypoint("ls")
	assert.Equal(t, "alpine:latest", again.Versions[0])
}

func TestNilConfig(t *testing.T) {
	var cfg *Config

	assert.Equal(t, 0, cfg.Len())
	assert.Nil(t, cfg.Names())
	_, ok := cfg.Entrypoint("ls")
	assert.False(t, ok)
	assert.NoError(t, cfg.Validate())
}

func TestCompletions(t *testing.T) {
	cfg, err := ParseBytes([]byte(sampleConfig))
	require.NoError(t, err)

	all := cfg.Completions("")
	assert.Contains(t, all, "ls")
	assert.Contains(t, all, "ls::alpine:latest")
	assert.Contains(t, all, "ls::busybox:latest")
	assert.Contains(t, all, "samtools")
	// single-version entrypoints offer no :: variants
	for _, c := range all {
		assert.False(t, strings.HasPrefix(c, "samtools::"), "unexpected candidate %q", c)
	}

	assert.Equal(t, []string{"bwa", "bwa::quay.io/biocontainers/bwa:latest", "bwa::quay.io/biocontainers/bwa:0.7.17--h84994c4_5"},
		cfg.Completions("b"))
	assert.Equal(t, []string{"ls::busybox:latest"}, cfg.Completions("ls::b"))
}

func TestSplitJoinEntrypoint(t *testing.T) {
	name, version, ok := SplitEntrypoint("bwa::quay.io/biocontainers/bwa:latest")
	assert.True(t, ok)
	assert.Equal(t, "bwa", name)
	assert.Equal(t, "quay.io/biocontainers/bwa:latest", version)

	name, _, ok = SplitEntrypoint("bwa")
	assert.False(t, ok)
	assert.Equal(t, "bwa", name)

	assert.Equal(t, "ls::alpine", JoinEntrypoint("ls", "alpine"))
}

func TestImages(t *testing.T) {
	cfg, err := ParseBytes([]byte("a:\n  versions: [x:1, y:1]\nb:\n  versions: [x:1]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"x:1", "y:1"}, cfg.Images())
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Len())
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".dkr")
	writeFile(t, path, "ls:\n  versions: []\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestSaveLoad_RoundTripKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".dkr")

	cfg, err := ParseBytes([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Names(), loaded.Names())
	for _, name := range cfg.Names() {
		want, _ := cfg.Entrypoint(name)
		got, _ := loaded.Entrypoint(name)
		assert.Equal(t, want, got)
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, New()))
	assert.Equal(t, "{}\n", buf.String())
}

func TestEncode_Format(t *testing.T) {
	cfg, err := New().WithEntrypoint("ls", []string{"alpine:latest"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))
	assert.Equal(t, "ls:\n  versions:\n    - alpine:latest\n", buf.String())
}
