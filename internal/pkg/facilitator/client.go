// Package facilitator is the HTTP client for the external payment
// verification/settlement service. The gateway only ever asks it two
// things: "is this payment authorization valid" and "commit it to the
// ledger".
package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pixelmarket/x402-gateway/internal/pkg/env"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

const defaultFacilitatorBaseURL = "https://facilitator.cronoslabs.org"

// The facilitator is a single point of latency for every paid request,
// so outbound calls carry an explicit client timeout; expiry surfaces to
// the caller as a settlement failure rather than hanging the request.
const defaultTimeout = 15 * time.Second

// Client talks to the facilitator's verify and settle endpoints.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from FACILITATOR_URL and
// FACILITATOR_API_KEY.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("FACILITATOR_URL", defaultFacilitatorBaseURL), "/"),
		APIKey:  strings.TrimSpace(env.GetEnv("FACILITATOR_API_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Verify asks the facilitator to validate a payment authorization
// off-chain. The response shape is externally versioned; everything
// beyond the validity flag is kept raw for diagnostics.
func (c *Client) Verify(ctx context.Context, req x402.VerifyRequest) (*x402.VerifyResult, error) {
	raw, err := c.post(ctx, "/verify", req)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		IsValid bool `json:"isValid"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("facilitator verify response is not valid JSON: %w", err)
	}
	return &x402.VerifyResult{IsValid: parsed.IsValid, Raw: raw}, nil
}

// Settle asks the facilitator to commit a verified payment on-chain.
func (c *Client) Settle(ctx context.Context, req x402.VerifyRequest) (*x402.SettleResult, error) {
	raw, err := c.post(ctx, "/settle", req)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Event  string `json:"event"`
		TxHash string `json:"txHash"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("facilitator settle response is not valid JSON: %w", err)
	}
	return &x402.SettleResult{Event: parsed.Event, TxHash: parsed.TxHash, Raw: raw}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("FACILITATOR_URL is not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	// The facilitator reports verify/settle failures in the body of a
	// 4xx response; those still parse as diagnostics upstream. Only 5xx
	// and empty bodies are transport-level failures here.
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("facilitator %s failed: status=%d body=%s", path, resp.StatusCode, string(raw))
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("facilitator %s returned empty body (status=%d)", path, resp.StatusCode)
	}
	return raw, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}
