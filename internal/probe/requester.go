package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maxvaer/secprobe/internal/config"
)

// maxBodyBytes caps how much of a response body is retained for
// predicate inspection.
const maxBodyBytes = 1 << 20

// Requester wraps an HTTP client for security probing.
type Requester struct {
	client    *http.Client
	baseURL   *url.URL
	headers   map[string]string
	userAgent string
}

// NewRequester creates a Requester from the provided options.
func NewRequester(opts *config.Options) (*Requester, error) {
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", opts.URL, err)
	}
	if base.Scheme == "" {
		base.Scheme = "http"
	}
	base.Path = strings.TrimRight(base.Path, "/")

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.Insecure},
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		// Never follow redirects: 3xx responses must stay observable,
		// and their headers are what the checks inspect.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "secprobe/1.0"
	}

	return &Requester{
		client:    client,
		baseURL:   base,
		headers:   opts.Headers,
		userAgent: ua,
	}, nil
}

// Do sends the request described by spec and returns the response
// snapshot. A non-nil error means the request never produced an HTTP
// response (connection refused, timeout, TLS failure); HTTP error
// statuses are returned as normal responses.
func (r *Requester) Do(ctx context.Context, spec RequestSpec) (*Response, error) {
	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}
	// Plain concatenation instead of path joining: traversal probes
	// depend on dot-segments and percent-encoded slashes reaching the
	// server unmodified.
	targetURL := r.baseURL.String() + "/" + strings.TrimLeft(spec.Path, "/")

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", r.userAgent)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", spec.Path, err)
	}
	elapsed := time.Since(start)

	result := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		URL:        targetURL,
		Duration:   elapsed,
	}

	if resp.TLS != nil {
		result.TLS = &TLSInfo{
			Version:     tls.VersionName(resp.TLS.Version),
			CipherSuite: tls.CipherSuiteName(resp.TLS.CipherSuite),
		}
	}

	return result, nil
}
