// Package catalog defines the built-in probe catalogue: which requests
// secprobe sends and what each response must satisfy.
package catalog

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/maxvaer/secprobe/internal/check"
	"github.com/maxvaer/secprobe/internal/config"
	"github.com/maxvaer/secprobe/internal/probe"
)

// Tunable defaults for the burst probe.
const (
	DefaultBurstRequests = 10
	DefaultBurstDelay    = 100 * time.Millisecond
	DefaultBurstPath     = "/"
)

// probeOrigin is the untrusted origin presented to the CORS probes.
const probeOrigin = "https://malicious-site.com"

// missingPath must never resolve; its error page is swept for leaked
// internals. Deterministic so repeated runs hit the same handler.
const missingPath = "/this-route-should-not-exist-40423"

const (
	sqliLoginBody = `{"email": "admin@example.com' OR 1=1--", "password": "x' OR '1'='1"}`

	xssPayload     = "<script>alert('probe')</script>"
	xssContactBody = `{"name": "Security Probe", "email": "probe@example.com", ` +
		`"phone": "9876543210", "eventDate": "15-01-2027", "message": "` + xssPayload + `"}`
)

// DefaultSensitivePatterns are the terms the data-exposure sweep hunts
// for in response bodies. Plain entries match as case-insensitive
// substrings; "re:" entries are regular expressions.
var DefaultSensitivePatterns = []string{
	"password",
	"secret",
	"api_key",
	"api-key",
	"apikey",
	"token",
	"database",
	"sql",
	"redis",
	"aws",
	"traceback",
	"stack trace",
	"stacktrace",
}

// staticMounts are the static-file prefixes probed for path traversal.
var staticMounts = []string{"/uploads", "/generated", "/template_previews"}

// sweepEndpoints are the representative endpoints swept for sensitive
// content, alongside the error-page probe.
var sweepEndpoints = []string{"/", "/health", "/api/contact/"}

// Build assembles the probe catalogue for one run: the built-in groups
// in fixed order, plus a trailing custom group for suite-defined
// probes, narrowed by the group selection options.
func Build(opts *config.Options) ([]check.Group, error) {
	https := strings.HasPrefix(opts.URL, "https://")

	patterns := make([]string, 0, len(DefaultSensitivePatterns)+len(opts.Patterns))
	patterns = append(patterns, DefaultSensitivePatterns...)
	patterns = append(patterns, opts.Patterns...)

	groups := []check.Group{
		connectivityGroup(),
		headersGroup(),
		authGroup(),
		rateLimitGroup(opts),
		inputValidationGroup(),
		traversalGroup(),
		corsGroup(),
		exposureGroup(patterns),
		docsGroup(),
		transportGroup(https),
	}
	if len(opts.CustomProbes) > 0 {
		groups = append(groups, customGroup(opts.CustomProbes))
	}

	return selectGroups(groups, opts.Groups, opts.SkipGroups)
}

// Count returns the number of probe definitions across groups.
func Count(groups []check.Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Definitions)
	}
	return n
}

func connectivityGroup() check.Group {
	return check.Group{
		Name: "connectivity",
		Definitions: []check.Definition{
			{
				Name:       "root reachable",
				Request:    get("/"),
				Predicates: []check.Predicate{check.StatusIn(200)},
			},
			{
				Name:       "health endpoint",
				Request:    get("/health"),
				Predicates: []check.Predicate{check.StatusIn(200)},
			},
		},
	}
}

// headersGroup probes the hardening headers on the root document, one
// definition per header so each renders its own verdict.
func headersGroup() check.Group {
	return check.Group{
		Name: "headers",
		Definitions: []check.Definition{
			{
				Name:       "x-frame-options",
				Request:    get("/"),
				Predicates: []check.Predicate{check.HeaderMatches("X-Frame-Options", "DENY", "SAMEORIGIN")},
			},
			{
				Name:       "x-content-type-options",
				Request:    get("/"),
				Predicates: []check.Predicate{check.HeaderMatches("X-Content-Type-Options", "nosniff")},
			},
			{
				Name:       "content-security-policy",
				Request:    get("/"),
				Predicates: []check.Predicate{check.HeaderPresent("Content-Security-Policy")},
			},
			{
				Name:       "x-xss-protection",
				Request:    get("/"),
				Predicates: []check.Predicate{check.HeaderPresentOptional("X-XSS-Protection")},
			},
			{
				Name:       "referrer-policy",
				Request:    get("/"),
				Predicates: []check.Predicate{check.HeaderPresentOptional("Referrer-Policy")},
			},
			{
				Name:       "permissions-policy",
				Request:    get("/"),
				Predicates: []check.Predicate{check.HeaderPresentOptional("Permissions-Policy")},
			},
		},
	}
}

func authGroup() check.Group {
	return check.Group{
		Name: "auth",
		Definitions: []check.Definition{
			{
				Name:       "contact list requires auth",
				Request:    get("/api/contact/"),
				Predicates: []check.Predicate{check.StatusIn(401, 403)},
			},
			{
				Name:       "contact stats require auth",
				Request:    get("/api/contact/stats/summary"),
				Predicates: []check.Predicate{check.StatusIn(401, 403)},
			},
		},
	}
}

// rateLimitGroup holds the burst probe: repeated requests that should
// eventually hit a 429. Absence of a 429 is only a Warn, because the
// limiter may sit at a higher threshold than the attempt budget.
func rateLimitGroup(opts *config.Options) check.Group {
	requests := opts.BurstRequests
	if requests <= 0 {
		requests = DefaultBurstRequests
	}
	path := opts.BurstPath
	if path == "" {
		path = DefaultBurstPath
	}

	return check.Group{
		Name: "rate-limit",
		Definitions: []check.Definition{
			{
				Name:    "burst rate limit",
				Request: get(path),
				Burst: &check.BurstSpec{
					Requests: requests,
					Delay:    opts.BurstDelay,
				},
			},
		},
	}
}

func inputValidationGroup() check.Group {
	return check.Group{
		Name: "input-validation",
		Definitions: []check.Definition{
			{
				Name:       "sql injection probe",
				Request:    postJSON("/api/auth/login", sqliLoginBody),
				Predicates: []check.Predicate{check.StatusIn(400, 401, 422)},
			},
			{
				Name:    "xss reflection probe",
				Request: postJSON("/api/contact/", xssContactBody),
				Predicates: []check.Predicate{
					check.StatusInSoft(200, 201, 400, 422),
					check.BodyNotReflects(xssPayload),
				},
			},
		},
	}
}

// traversalGroup probes every static mount with literal and
// percent-encoded escape sequences. These are never soft: anything but
// a 403 or 404 is a finding.
func traversalGroup() check.Group {
	g := check.Group{Name: "path-traversal"}
	for _, mount := range staticMounts {
		base := strings.TrimPrefix(mount, "/")
		g.Definitions = append(g.Definitions,
			check.Definition{
				Name:       base + " traversal",
				Request:    get(mount + "/../../etc/passwd"),
				Predicates: []check.Predicate{check.StatusIn(403, 404)},
			},
			check.Definition{
				Name:       base + " traversal encoded",
				Request:    get(mount + "/..%2F..%2F..%2Fetc%2Fpasswd"),
				Predicates: []check.Predicate{check.StatusIn(403, 404)},
			},
		)
	}
	return g
}

func corsGroup() check.Group {
	return check.Group{
		Name: "cors",
		Definitions: []check.Definition{
			{
				Name: "origin reflection",
				Request: probe.RequestSpec{
					Method:  http.MethodGet,
					Path:    "/",
					Headers: map[string]string{"Origin": probeOrigin},
				},
				Predicates: []check.Predicate{check.CORSNotReflecting(probeOrigin)},
			},
			{
				Name: "preflight origin reflection",
				Request: probe.RequestSpec{
					Method: http.MethodOptions,
					Path:   "/api/contact/",
					Headers: map[string]string{
						"Origin":                        probeOrigin,
						"Access-Control-Request-Method": "POST",
					},
				},
				Predicates: []check.Predicate{check.CORSNotReflecting(probeOrigin)},
			},
		},
	}
}

func exposureGroup(patterns []string) check.Group {
	g := check.Group{Name: "data-exposure"}
	for _, endpoint := range sweepEndpoints {
		g.Definitions = append(g.Definitions, check.Definition{
			Name:       "content sweep " + endpoint,
			Request:    get(endpoint),
			Predicates: []check.Predicate{check.BodyExcludes(patterns)},
		})
	}
	g.Definitions = append(g.Definitions, check.Definition{
		Name:       "error page leak",
		Request:    get(missingPath),
		Predicates: []check.Predicate{check.BodyExcludes(patterns)},
	})
	return g
}

// docsGroup checks that interactive API documentation is not publicly
// served. A 200 on any of these is an exposed schema.
func docsGroup() check.Group {
	return check.Group{
		Name: "docs-exposure",
		Definitions: []check.Definition{
			{
				Name:       "swagger ui hidden",
				Request:    get("/docs"),
				Predicates: []check.Predicate{check.StatusIn(401, 403, 404)},
			},
			{
				Name:       "redoc hidden",
				Request:    get("/redoc"),
				Predicates: []check.Predicate{check.StatusIn(401, 403, 404)},
			},
			{
				Name:       "openapi schema hidden",
				Request:    get("/openapi.json"),
				Predicates: []check.Predicate{check.StatusIn(401, 403, 404)},
			},
		},
	}
}

// transportGroup severity depends on the configured scheme: a plain
// http target may legitimately terminate TLS upstream, so absence of
// TLS or HSTS only warns there.
func transportGroup(https bool) check.Group {
	var tlsPred, hstsPred check.Predicate
	if https {
		tlsPred = check.TLSInUse()
		hstsPred = check.HeaderPresent("Strict-Transport-Security")
	} else {
		tlsPred = check.TLSInUseSoft()
		hstsPred = check.HeaderPresentOptional("Strict-Transport-Security")
	}

	return check.Group{
		Name: "transport",
		Definitions: []check.Definition{
			{
				Name:       "tls in use",
				Request:    get("/"),
				Predicates: []check.Predicate{tlsPred},
			},
			{
				Name:       "strict-transport-security",
				Request:    get("/"),
				Predicates: []check.Predicate{hstsPred},
			},
		},
	}
}

func customGroup(probes []config.CustomProbe) check.Group {
	g := check.Group{Name: "custom"}
	for _, p := range probes {
		spec := probe.RequestSpec{
			Method:  strings.ToUpper(p.Method),
			Path:    p.Path,
			Headers: p.Headers,
		}
		if p.Body != "" {
			spec.Body = []byte(p.Body)
		}

		var preds []check.Predicate
		if len(p.ExpectStatus) > 0 {
			preds = append(preds, check.StatusIn(p.ExpectStatus...))
		}
		if p.RequireHeader != "" {
			preds = append(preds, check.HeaderPresent(p.RequireHeader))
		}
		if len(p.BodyExcludes) > 0 {
			preds = append(preds, check.BodyExcludes(p.BodyExcludes))
		}

		g.Definitions = append(g.Definitions, check.Definition{
			Name:       p.Name,
			Request:    spec,
			Predicates: preds,
		})
	}
	return g
}

// selectGroups narrows the catalogue to the requested groups while
// preserving catalogue order. Skips apply on top of an explicit include
// list. Unknown names are configuration errors.
func selectGroups(groups []check.Group, include, skip []string) ([]check.Group, error) {
	valid := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		valid[g.Name] = struct{}{}
	}
	for _, name := range include {
		if _, ok := valid[name]; !ok {
			return nil, fmt.Errorf("unknown group %q (valid: %s)", name, groupNames(groups))
		}
	}
	for _, name := range skip {
		if _, ok := valid[name]; !ok {
			return nil, fmt.Errorf("unknown group %q (valid: %s)", name, groupNames(groups))
		}
	}

	if len(include) > 0 {
		want := toSet(include)
		drop := toSet(skip)
		out := make([]check.Group, 0, len(include))
		for _, g := range groups {
			if _, ok := want[g.Name]; !ok {
				continue
			}
			if _, ok := drop[g.Name]; ok {
				continue
			}
			out = append(out, g)
		}
		return out, nil
	}
	if len(skip) > 0 {
		drop := toSet(skip)
		out := make([]check.Group, 0, len(groups))
		for _, g := range groups {
			if _, ok := drop[g.Name]; !ok {
				out = append(out, g)
			}
		}
		return out, nil
	}
	return groups, nil
}

func groupNames(groups []check.Group) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func get(path string) probe.RequestSpec {
	return probe.RequestSpec{Method: http.MethodGet, Path: path}
}

func postJSON(path, body string) probe.RequestSpec {
	return probe.RequestSpec{
		Method:  http.MethodPost,
		Path:    path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(body),
	}
}
