package check

import (
	"strings"

	"github.com/maxvaer/secprobe/internal/probe"
)

// HeaderPredicate checks the presence and optionally the value of a
// response header. Header names are matched case-insensitively.
type HeaderPredicate struct {
	header   string
	want     []string // acceptable values, empty means presence is enough
	optional bool     // absence is a Warn instead of a Fail
}

// HeaderPresent returns a predicate requiring the header to be set.
func HeaderPresent(name string) *HeaderPredicate {
	return &HeaderPredicate{header: name}
}

// HeaderPresentOptional is like HeaderPresent but only warns when the
// header is missing.
func HeaderPresentOptional(name string) *HeaderPredicate {
	return &HeaderPredicate{header: name, optional: true}
}

// HeaderMatches returns a predicate requiring the header to be set to
// one of the given values (compared case-insensitively).
func HeaderMatches(name string, want ...string) *HeaderPredicate {
	return &HeaderPredicate{header: name, want: want}
}

func (p *HeaderPredicate) Name() string { return "header" }

func (p *HeaderPredicate) Evaluate(resp *probe.Response) Verdict {
	got := resp.Header.Get(p.header)
	if got == "" {
		if p.optional {
			return Warnf("%s not set", p.header)
		}
		return Failf("%s missing", p.header)
	}
	if len(p.want) == 0 {
		return Passed()
	}
	for _, w := range p.want {
		if strings.EqualFold(strings.TrimSpace(got), w) {
			return Passed()
		}
	}
	return Failf("%s is %q, want %s", p.header, got, strings.Join(p.want, " or "))
}
