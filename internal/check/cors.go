package check

import (
	"strings"

	"github.com/maxvaer/secprobe/internal/probe"
)

// CORSPredicate fails when Access-Control-Allow-Origin reflects the
// untrusted origin the probe sent. A wildcard or a fixed allow-list
// value passes; only echoing back an arbitrary origin is the defect.
type CORSPredicate struct {
	origin string
}

// CORSNotReflecting returns a predicate for the given probe origin.
func CORSNotReflecting(origin string) *CORSPredicate {
	return &CORSPredicate{origin: origin}
}

func (p *CORSPredicate) Name() string { return "cors" }

func (p *CORSPredicate) Evaluate(resp *probe.Response) Verdict {
	acao := resp.Header.Get("Access-Control-Allow-Origin")
	if acao != p.origin {
		return Passed()
	}
	if strings.EqualFold(resp.Header.Get("Access-Control-Allow-Credentials"), "true") {
		return Failf("origin %s reflected with credentials allowed", p.origin)
	}
	return Failf("arbitrary origin %s reflected", p.origin)
}
