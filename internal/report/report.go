// Package report collects probe results and derives the release
// readiness of the probed target.
package report

import (
	"time"

	"github.com/maxvaer/secprobe/internal/check"
)

// DefaultFailThreshold is the highest failed-probe count still
// considered Degraded rather than Blocked.
const DefaultFailThreshold = 2

// Readiness is the release gate derived from a finished run.
type Readiness int

const (
	Ready    Readiness = iota // no failures, safe to release
	Degraded                  // failures within the threshold
	Blocked                   // failures beyond the threshold
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "READY"
	case Degraded:
		return "DEGRADED"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}

// Report holds every probe result of one run in execution order.
// Results are append-only; counts are derived from the list on demand
// so they can never drift from it.
type Report struct {
	Target        string
	FailThreshold int
	Results       []check.Result
	Duration      time.Duration
}

// New creates an empty report for the given target. A negative
// threshold falls back to the default.
func New(target string, failThreshold int) *Report {
	if failThreshold < 0 {
		failThreshold = DefaultFailThreshold
	}
	return &Report{Target: target, FailThreshold: failThreshold}
}

// Add appends one probe result.
func (r *Report) Add(res check.Result) {
	r.Results = append(r.Results, res)
}

// Counts folds the result list into pass, warn, and fail totals.
func (r *Report) Counts() (passed, warned, failed int) {
	for _, res := range r.Results {
		switch res.Verdict.Status {
		case check.Pass:
			passed++
		case check.Warn:
			warned++
		case check.Fail:
			failed++
		}
	}
	return passed, warned, failed
}

// Readiness applies the release gate over the failed count: zero
// failures is Ready, up to FailThreshold is Degraded, anything beyond
// is Blocked. Warnings never change the state.
func (r *Report) Readiness() Readiness {
	_, _, failed := r.Counts()
	switch {
	case failed == 0:
		return Ready
	case failed <= r.FailThreshold:
		return Degraded
	default:
		return Blocked
	}
}

// ExitCode is 0 only when the run is Ready.
func (r *Report) ExitCode() int {
	if r.Readiness() == Ready {
		return 0
	}
	return 1
}
