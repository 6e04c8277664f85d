// Package proxy forwards already-paid requests to a listing's origin
// service and sanitizes headers in both directions.
package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

// Request headers never forwarded to the origin: hop-by-hop headers,
// proxy bookkeeping, the entitlement header (it must not leak), and
// accept-encoding (the body is read fully before relay, so negotiated
// compression would be ambiguous).
var requestHeaderDenylist = buildSet(
	"host",
	"connection",
	"keep-alive",
	"transfer-encoding",
	"upgrade",
	"proxy-authenticate",
	"proxy-authorization",
	"te",
	"trailer",
	"expect",
	"content-length",
	"cookie",
	"x-forwarded-for",
	"x-forwarded-proto",
	"x-forwarded-host",
	"accept-encoding",
	strings.ToLower(x402.HeaderPaymentID),
)

// Response headers stripped before relay. Content-encoding goes because
// the body is already decoded; origin CORS headers go because the
// gateway sets its own.
var responseHeaderDenylist = buildSet(
	"connection",
	"keep-alive",
	"transfer-encoding",
	"upgrade",
	"proxy-authenticate",
	"proxy-authorization",
	"content-encoding",
	"content-length",
)

const corsHeaderPrefix = "access-control-"

func buildSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Result is the origin's reply after header sanitation: status, the
// relayable header set and the fully read body.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Dispatcher issues the forwarded request. Each inbound request gets an
// independent forward; there is no connection state shared across calls
// beyond the HTTP client's pool.
type Dispatcher struct {
	HTTPClient *http.Client
}

// NewDispatcher creates a dispatcher with a bounded origin timeout.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Forward sends the request to targetURL with sanitized headers and
// returns the sanitized response. jsonBody, when non-nil and the method
// carries a body, is sent as-is with the content type forced to JSON.
// A non-nil error means the origin was unreachable; the caller maps
// that to a 502.
func (d *Dispatcher) Forward(ctx context.Context, method, targetURL string, inbound http.Header, jsonBody []byte) (*Result, error) {
	var body io.Reader
	method = strings.ToUpper(method)
	sendBody := jsonBody != nil && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch)
	if sendBody {
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}
	req.Header = sanitizeRequestHeaders(inbound)
	if sendBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	relayBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     SanitizeResponseHeaders(resp.Header),
		Body:       relayBody,
	}, nil
}

func sanitizeRequestHeaders(inbound http.Header) http.Header {
	out := make(http.Header, len(inbound))
	for name, values := range inbound {
		if _, blocked := requestHeaderDenylist[strings.ToLower(name)]; blocked {
			continue
		}
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}

// SanitizeResponseHeaders drops hop-by-hop, encoding and origin CORS
// headers from an origin response, leaving only what may be relayed.
func SanitizeResponseHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		lower := strings.ToLower(name)
		if _, blocked := responseHeaderDenylist[lower]; blocked {
			continue
		}
		if strings.HasPrefix(lower, corsHeaderPrefix) {
			continue
		}
		for _, v := range values {
			out.Add(name, v)
		}
	}
	return out
}
