package check

import (
	"fmt"
	"time"

	"github.com/maxvaer/secprobe/internal/probe"
)

// Status classifies the outcome of a single security check.
type Status int

const (
	Pass Status = iota // expectation held
	Warn               // soft or environment-dependent signal
	Fail               // confirmed defect
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the outcome of evaluating a response against one or more
// predicates.
type Verdict struct {
	Status  Status
	Message string
}

// Passed returns a Pass verdict with no message.
func Passed() Verdict { return Verdict{Status: Pass} }

// Passf returns a Pass verdict with a formatted message.
func Passf(format string, a ...any) Verdict {
	return Verdict{Status: Pass, Message: fmt.Sprintf(format, a...)}
}

// Warnf returns a Warn verdict with a formatted message.
func Warnf(format string, a ...any) Verdict {
	return Verdict{Status: Warn, Message: fmt.Sprintf(format, a...)}
}

// Failf returns a Fail verdict with a formatted message.
func Failf(format string, a ...any) Verdict {
	return Verdict{Status: Fail, Message: fmt.Sprintf(format, a...)}
}

// Predicate renders a verdict over an observed response. Implementations
// must be pure: they read the status, headers, body, and TLS metadata
// and nothing else.
type Predicate interface {
	Name() string
	Evaluate(resp *probe.Response) Verdict
}

// Combine evaluates predicates in order and folds their verdicts into
// one. The first Fail short-circuits; otherwise the first Warn outranks
// any number of Passes.
func Combine(resp *probe.Response, preds []Predicate) Verdict {
	combined := Passed()
	for _, p := range preds {
		v := p.Evaluate(resp)
		switch v.Status {
		case Fail:
			return v
		case Warn:
			if combined.Status == Pass {
				combined = v
			}
		case Pass:
			if combined.Status == Pass && combined.Message == "" {
				combined = v
			}
		}
	}
	return combined
}

// BurstSpec marks a definition as a repeated-request probe: the runner
// re-issues the request until the target answers 429 or the attempt
// budget runs out.
type BurstSpec struct {
	Requests int           // maximum attempts
	Delay    time.Duration // pause between attempts
}

// Definition is one entry in the probe catalogue: a request to send and
// the predicates its response must satisfy.
type Definition struct {
	Name       string
	Request    probe.RequestSpec
	Predicates []Predicate
	Burst      *BurstSpec // non-nil for repeated-request probes
}

// Group is an ordered set of definitions sharing a security concern.
type Group struct {
	Name        string
	Definitions []Definition
}

// Result records the verdict rendered for one catalogue definition.
// Exactly one Result exists per executed definition, including probes
// that never produced an HTTP response.
type Result struct {
	Probe      string
	Group      string
	Verdict    Verdict
	StatusCode int // last observed HTTP status, 0 on transport failure
	Duration   time.Duration
}
