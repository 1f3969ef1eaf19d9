package check

import (
	"strconv"
	"strings"

	"github.com/maxvaer/secprobe/internal/probe"
)

// StatusPredicate passes when the response status is one of the
// allowed codes.
type StatusPredicate struct {
	allowed map[int]struct{}
	codes   []int
	soft    bool // mismatch is a Warn instead of a Fail
}

// StatusIn returns a predicate requiring the status to be one of codes.
func StatusIn(codes ...int) *StatusPredicate {
	return newStatusPredicate(codes, false)
}

// StatusInSoft is like StatusIn but only warns on a mismatch.
func StatusInSoft(codes ...int) *StatusPredicate {
	return newStatusPredicate(codes, true)
}

func newStatusPredicate(codes []int, soft bool) *StatusPredicate {
	p := &StatusPredicate{
		allowed: make(map[int]struct{}, len(codes)),
		codes:   codes,
		soft:    soft,
	}
	for _, code := range codes {
		p.allowed[code] = struct{}{}
	}
	return p
}

func (p *StatusPredicate) Name() string { return "status" }

func (p *StatusPredicate) Evaluate(resp *probe.Response) Verdict {
	if _, ok := p.allowed[resp.StatusCode]; ok {
		return Passed()
	}
	if p.soft {
		return Warnf("got %d, want %s", resp.StatusCode, joinCodes(p.codes))
	}
	return Failf("got %d, want %s", resp.StatusCode, joinCodes(p.codes))
}

func joinCodes(codes []int) string {
	if len(codes) == 1 {
		return strconv.Itoa(codes[0])
	}
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "one of " + strings.Join(parts, ", ")
}
