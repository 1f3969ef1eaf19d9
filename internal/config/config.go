package config

import "time"

// Options holds all configuration for a secprobe run.
type Options struct {
	// Target
	URL       string
	SuiteFile string

	// Probe selection
	Groups     []string
	SkipGroups []string

	// Burst probe tuning
	BurstRequests int
	BurstDelay    time.Duration
	BurstPath     string

	// Sensitive-content sweep
	Patterns []string // extra patterns on top of the built-in set

	// Aggregation
	FailThreshold int

	// HTTP
	Timeout   time.Duration
	Delay     time.Duration // pause between probes
	Headers   map[string]string
	UserAgent string
	Proxy     string
	Insecure  bool // skip TLS certificate verification

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv"
	Quiet        bool
	NoColor      bool

	// Hooks
	OnFailCmd string

	// Signing
	SignKeyFile string

	// Custom probes appended by a suite file.
	CustomProbes []CustomProbe
}
