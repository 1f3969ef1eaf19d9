package check

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/maxvaer/secprobe/internal/probe"
)

// SensitiveBodyPredicate fails when the response body matches any of
// the configured sensitive-content patterns.
type SensitiveBodyPredicate struct {
	literals   []literalPattern
	regexps    []regexPattern
	compileErr error
}

type literalPattern struct {
	raw    string
	folded string
}

type regexPattern struct {
	raw string
	re  *regexp.Regexp
}

// BodyExcludes returns a predicate that fails when the body contains
// any pattern. A pattern prefixed "re:" is compiled as a regular
// expression; anything else is a case-insensitive substring. A pattern
// that does not compile renders Fail at evaluation time, since a check
// that cannot run must not pass silently.
func BodyExcludes(patterns []string) *SensitiveBodyPredicate {
	p := &SensitiveBodyPredicate{}
	for _, raw := range patterns {
		if expr, ok := strings.CutPrefix(raw, "re:"); ok {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				p.compileErr = fmt.Errorf("pattern %q: %w", raw, err)
				continue
			}
			p.regexps = append(p.regexps, regexPattern{raw: raw, re: re})
			continue
		}
		p.literals = append(p.literals, literalPattern{raw: raw, folded: strings.ToLower(raw)})
	}
	return p
}

func (p *SensitiveBodyPredicate) Name() string { return "body-excludes" }

func (p *SensitiveBodyPredicate) Evaluate(resp *probe.Response) Verdict {
	if p.compileErr != nil {
		return Failf("unverifiable: %v", p.compileErr)
	}
	folded := strings.ToLower(string(resp.Body))
	for _, lit := range p.literals {
		if strings.Contains(folded, lit.folded) {
			return Failf("body contains %q", lit.raw)
		}
	}
	for _, rx := range p.regexps {
		if rx.re.Match(resp.Body) {
			return Failf("body matches %q", rx.raw)
		}
	}
	return Passed()
}

// ReflectionPredicate fails when the response body echoes the probe
// payload verbatim, indicating missing output sanitization.
type ReflectionPredicate struct {
	payload []byte
}

// BodyNotReflects returns a predicate that fails when the body contains
// payload unmodified.
func BodyNotReflects(payload string) *ReflectionPredicate {
	return &ReflectionPredicate{payload: []byte(payload)}
}

func (p *ReflectionPredicate) Name() string { return "body-reflects" }

func (p *ReflectionPredicate) Evaluate(resp *probe.Response) Verdict {
	if bytes.Contains(resp.Body, p.payload) {
		return Failf("payload reflected unsanitized")
	}
	return Passed()
}
