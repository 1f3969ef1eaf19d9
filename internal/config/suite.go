package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// suiteYAML is the raw structure of a --suite file.
type suiteYAML struct {
	Target        string      `yaml:"target"`
	Timeout       string      `yaml:"timeout"`
	Delay         string      `yaml:"delay"`
	FailThreshold *int        `yaml:"fail_threshold"`
	Groups        []string    `yaml:"groups"`
	SkipGroups    []string    `yaml:"skip_groups"`
	Burst         *burstYAML  `yaml:"burst"`
	Patterns      []string    `yaml:"sensitive_patterns"`
	Probes        []probeYAML `yaml:"probes"`
}

type burstYAML struct {
	Requests int    `yaml:"requests"`
	Delay    string `yaml:"delay"`
	Path     string `yaml:"path"`
}

type probeYAML struct {
	Name          string            `yaml:"name"`
	Method        string            `yaml:"method"`
	Path          string            `yaml:"path"`
	Headers       map[string]string `yaml:"headers"`
	Body          string            `yaml:"body"`
	ExpectStatus  []int             `yaml:"expect_status"`
	BodyExcludes  []string          `yaml:"body_excludes"`
	RequireHeader string            `yaml:"require_header"`
}

// Suite holds the parsed contents of a probe-suite file: the target,
// tuning overrides, extra sweep patterns, and custom probes.
type Suite struct {
	Target        string
	Timeout       time.Duration // zero when unset
	Delay         time.Duration
	FailThreshold *int // nil when unset, so 0 stays a valid threshold
	Groups        []string
	SkipGroups    []string
	BurstRequests int
	BurstDelay    time.Duration
	BurstPath     string
	Patterns      []string
	Probes        []CustomProbe
}

// CustomProbe is a user-defined probe appended to the catalogue's
// trailing "custom" group.
type CustomProbe struct {
	Name          string
	Method        string
	Path          string
	Headers       map[string]string
	Body          string
	ExpectStatus  []int
	BodyExcludes  []string
	RequireHeader string
}

// ApplySuite merges suite values into opts. A suite value lands only
// where it is set and changed reports false for the corresponding flag
// name, so explicit flags always win. Patterns extend the pattern list;
// custom probes replace any prior set.
func ApplySuite(opts *Options, s *Suite, changed func(flag string) bool) {
	if s.Target != "" && !changed("url") {
		opts.URL = s.Target
	}
	if s.Timeout > 0 && !changed("timeout") {
		opts.Timeout = s.Timeout
	}
	if s.Delay > 0 && !changed("delay") {
		opts.Delay = s.Delay
	}
	if s.FailThreshold != nil && !changed("fail-threshold") {
		opts.FailThreshold = *s.FailThreshold
	}
	if len(s.Groups) > 0 && !changed("groups") {
		opts.Groups = s.Groups
	}
	if len(s.SkipGroups) > 0 && !changed("skip-groups") {
		opts.SkipGroups = s.SkipGroups
	}
	if s.BurstRequests > 0 && !changed("burst-requests") {
		opts.BurstRequests = s.BurstRequests
	}
	if s.BurstDelay > 0 && !changed("burst-delay") {
		opts.BurstDelay = s.BurstDelay
	}
	if s.BurstPath != "" && !changed("burst-path") {
		opts.BurstPath = s.BurstPath
	}
	opts.Patterns = append(opts.Patterns, s.Patterns...)
	opts.CustomProbes = s.Probes
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses suite YAML into a validated Suite.
func ParseSuite(data []byte) (*Suite, error) {
	var raw suiteYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing suite file: %w", err)
	}

	s := &Suite{
		Target:        raw.Target,
		FailThreshold: raw.FailThreshold,
		Groups:        raw.Groups,
		SkipGroups:    raw.SkipGroups,
		Patterns:      raw.Patterns,
	}

	var err error
	if s.Timeout, err = parseSuiteDuration("timeout", raw.Timeout); err != nil {
		return nil, err
	}
	if s.Delay, err = parseSuiteDuration("delay", raw.Delay); err != nil {
		return nil, err
	}
	if raw.FailThreshold != nil && *raw.FailThreshold < 0 {
		return nil, fmt.Errorf("fail_threshold must not be negative")
	}

	if raw.Burst != nil {
		if raw.Burst.Requests < 0 {
			return nil, fmt.Errorf("burst.requests must not be negative")
		}
		s.BurstRequests = raw.Burst.Requests
		s.BurstPath = raw.Burst.Path
		if s.BurstDelay, err = parseSuiteDuration("burst.delay", raw.Burst.Delay); err != nil {
			return nil, err
		}
	}

	for i, p := range raw.Probes {
		probe, err := convertProbe(i, p)
		if err != nil {
			return nil, err
		}
		s.Probes = append(s.Probes, probe)
	}

	return s, nil
}

func convertProbe(idx int, p probeYAML) (CustomProbe, error) {
	if p.Name == "" {
		return CustomProbe{}, fmt.Errorf("probe %d: name is required", idx+1)
	}
	if p.Path == "" {
		return CustomProbe{}, fmt.Errorf("probe %q: path is required", p.Name)
	}
	if len(p.ExpectStatus) == 0 && len(p.BodyExcludes) == 0 && p.RequireHeader == "" {
		return CustomProbe{}, fmt.Errorf("probe %q: needs expect_status, body_excludes, or require_header", p.Name)
	}
	return CustomProbe{
		Name:          p.Name,
		Method:        p.Method,
		Path:          p.Path,
		Headers:       p.Headers,
		Body:          p.Body,
		ExpectStatus:  p.ExpectStatus,
		BodyExcludes:  p.BodyExcludes,
		RequireHeader: p.RequireHeader,
	}, nil
}

func parseSuiteDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}
