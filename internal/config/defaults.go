package config

const (
	// EntrypointDelim separates an entrypoint name from an explicit version,
	// e.g. "bwa::quay.io/biocontainers/bwa:latest".
	EntrypointDelim = "::"

	DefaultConfigFile  = ".dkr"
	DefaultLogLevel    = "error"
	DefaultRuntime     = "docker"
	DefaultMountPrefix = "/dkr"
)
