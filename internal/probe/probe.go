package probe

import (
	"net/http"
	"time"
)

// RequestSpec describes a single HTTP request issued against the target.
type RequestSpec struct {
	Method  string            // defaults to GET
	Path    string            // joined onto the base URL, may include a query string
	Headers map[string]string // per-request headers, override requester defaults
	Body    []byte            // optional request body
}

// TLSInfo captures the negotiated TLS parameters of a response.
type TLSInfo struct {
	Version     string // e.g. "TLS 1.3"
	CipherSuite string
}

// Response is a snapshot of one probe response. A fresh value is built
// per request and never reused.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte // capped at maxBodyBytes
	URL        string
	Duration   time.Duration
	TLS        *TLSInfo // nil when the response came over plain HTTP
}
