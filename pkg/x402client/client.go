package x402client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

// Client executes gated endpoints with automated payment handling. It
// is stateful across calls: once a payment settles, the payment id is
// reused as the entitlement for subsequent calls until Reset.
type Client struct {
	// BaseURL is the gateway root, e.g. "http://localhost:4000".
	BaseURL string

	// Signer provides payment authorizations. Required for any call
	// that hits an unpaid resource.
	Signer Signer

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	status    string
	paymentID string
	lastErr   error
}

// New creates a client for the given gateway.
func New(baseURL string, signer Signer) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Signer:     signer,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Now:        time.Now,
	}
}

// Status reports the last flow phase, for UIs and logs.
func (c *Client) Status() string { return c.status }

// PaymentID returns the settled payment id held as the current
// entitlement, or "".
func (c *Client) PaymentID() string { return c.paymentID }

// Err returns the error from the last flow, or nil.
func (c *Client) Err() error { return c.lastErr }

// Reset clears the held entitlement and flow state.
func (c *Client) Reset() {
	c.status = ""
	c.paymentID = ""
	c.lastErr = nil
}

// Execute calls POST <BaseURL>/api/execute/<apiID> with the request
// data, paying on a 402 and retrying once. The returned bytes are the
// endpoint's response body.
func (c *Client) Execute(ctx context.Context, apiID string, requestData any) ([]byte, error) {
	return c.Call(ctx, http.MethodPost, "/api/execute/"+apiID, requestData)
}

// Proxy calls the gated reverse proxy for a listing, paying on a 402
// and retrying once.
func (c *Client) Proxy(ctx context.Context, method, apiID, subpath string, requestData any) ([]byte, error) {
	path := "/api/proxy/" + apiID
	if subpath != "" {
		path += "/" + strings.TrimLeft(subpath, "/")
	}
	return c.Call(ctx, method, path, requestData)
}

// Call drives the full cycle for an arbitrary gateway path:
// request → 402 → sign → settle → retry. Non-402 error statuses are
// returned as errors with the response text.
func (c *Client) Call(ctx context.Context, method, path string, requestData any) ([]byte, error) {
	body, status, err := c.attempt(ctx, method, path, requestData, c.paymentID)
	if err != nil {
		return nil, c.fail(err)
	}
	if status != http.StatusPaymentRequired {
		if status >= 400 {
			return nil, c.fail(fmt.Errorf("call failed: status=%d body=%s", status, string(body)))
		}
		c.status = "success"
		return body, nil
	}

	var challenge Challenge
	if err := json.Unmarshal(body, &challenge); err != nil {
		return nil, c.fail(fmt.Errorf("malformed payment challenge: %w", err))
	}
	paymentID, err := c.settle(ctx, challenge)
	if err != nil {
		return nil, c.fail(err)
	}
	c.paymentID = paymentID

	body, status, err = c.attempt(ctx, method, path, requestData, paymentID)
	if err != nil {
		return nil, c.fail(err)
	}
	if status >= 400 {
		return nil, c.fail(fmt.Errorf("paid retry failed: status=%d body=%s", status, string(body)))
	}
	c.status = "success"
	return body, nil
}

// settle walks one challenge through signing and settlement and returns
// the entitled payment id.
func (c *Client) settle(ctx context.Context, challenge Challenge) (string, error) {
	if len(challenge.Accepts) == 0 {
		return "", fmt.Errorf("invalid challenge: accepts is empty")
	}
	req := challenge.Accepts[0]
	paymentID := req.PaymentID()
	if paymentID == "" {
		return "", fmt.Errorf("invalid challenge: paymentId missing")
	}

	c.status = "switching network"
	if err := c.Signer.EnsureNetwork(ctx, req.Network); err != nil {
		return "", fmt.Errorf("network switch failed: %w", err)
	}

	c.status = "signing authorization"
	header, err := c.Signer.SignAuthorization(ctx, Authorization{
		To:          req.PayTo,
		Value:       req.MaxAmountRequired,
		Asset:       req.Asset,
		ValidAfter:  0,
		ValidBefore: c.now().Unix() + int64(req.MaxTimeoutSeconds),
	})
	if err != nil {
		return "", fmt.Errorf("signing failed: %w", err)
	}

	c.status = "settling payment"
	payload, err := json.Marshal(map[string]any{
		"paymentId":           paymentID,
		"paymentHeader":       header,
		"paymentRequirements": req,
	})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/pay", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("settlement request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	var payResp PayResponse
	if err := json.Unmarshal(raw, &payResp); err != nil {
		return "", fmt.Errorf("settlement response unreadable: status=%d body=%s", resp.StatusCode, string(raw))
	}
	if !payResp.OK {
		return "", fmt.Errorf("payment failed: %s (%s)", payResp.Error, string(raw))
	}

	c.status = "payment settled"
	return paymentID, nil
}

// attempt issues one request to the gateway and returns the body and
// status without interpreting a 402.
func (c *Client) attempt(ctx context.Context, method, path string, requestData any, paymentID string) ([]byte, int, error) {
	var body io.Reader
	if requestData != nil {
		payload, err := json.Marshal(requestData)
		if err != nil {
			return nil, 0, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), c.BaseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if requestData != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if paymentID != "" {
		req.Header.Set(HeaderPaymentID, paymentID)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) fail(err error) error {
	c.status = "error"
	c.lastErr = err
	return err
}
