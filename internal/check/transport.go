package check

import "github.com/maxvaer/secprobe/internal/probe"

// TLSPredicate verifies that the response was served over TLS.
type TLSPredicate struct {
	soft bool // plain-HTTP targets warn instead of fail
}

// TLSInUse returns a predicate that fails when no TLS was negotiated.
func TLSInUse() *TLSPredicate {
	return &TLSPredicate{}
}

// TLSInUseSoft is like TLSInUse but only warns, for targets probed
// over plain HTTP where encryption may terminate upstream.
func TLSInUseSoft() *TLSPredicate {
	return &TLSPredicate{soft: true}
}

func (p *TLSPredicate) Name() string { return "tls" }

func (p *TLSPredicate) Evaluate(resp *probe.Response) Verdict {
	if resp.TLS != nil {
		return Passf("negotiated %s", resp.TLS.Version)
	}
	if p.soft {
		return Warnf("served over plain HTTP")
	}
	return Failf("no TLS negotiated")
}
