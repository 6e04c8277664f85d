// Package guardian is the client for the budget-monitoring advisory
// service. It is strictly best-effort: a paid call must never fail
// because the guardian is down.
package guardian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pixelmarket/x402-gateway/internal/pkg/env"
)

const defaultGuardianBaseURL = "http://localhost:8000"

// UsageRecord reports one paid invocation to the guardian.
type UsageRecord struct {
	UserAddress string  `json:"user_address"`
	ApiID       string  `json:"api_id"`
	ApiName     string  `json:"api_name"`
	Provider    string  `json:"provider"`
	Cost        float64 `json:"cost"`
	Endpoint    string  `json:"endpoint,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// BudgetStatus is the guardian's view of a wallet's spending.
type BudgetStatus struct {
	UserAddress     string  `json:"user_address"`
	MonthlyLimit    float64 `json:"monthly_limit"`
	CurrentSpend    float64 `json:"current_spend"`
	RemainingBudget float64 `json:"remaining_budget"`
	PercentageUsed  float64 `json:"percentage_used"`
	IsPaused        bool    `json:"is_paused"`
}

// Client talks to the guardian's HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from GUARDIAN_URL.
func NewClientFromEnv() *Client {
	return &Client{
		BaseURL: strings.TrimRight(env.GetEnv("GUARDIAN_URL", defaultGuardianBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// RecordUsage reports usage and swallows failures; the audit trail in
// the local database remains the source of truth.
func (c *Client) RecordUsage(ctx context.Context, usage UsageRecord) {
	if err := c.post(ctx, "/api/usage/record", usage, nil); err != nil {
		log.Printf("guardian usage record failed: %v", err)
	}
}

// GetBudgetStatus fetches the current budget status for a wallet.
func (c *Client) GetBudgetStatus(ctx context.Context, userAddress string) (*BudgetStatus, error) {
	var status BudgetStatus
	if err := c.get(ctx, "/api/budget/status/"+userAddress, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ShouldBlock reports whether the guardian has paused a wallet. When the
// guardian is unreachable, callers are not blocked.
func (c *Client) ShouldBlock(ctx context.Context, userAddress string) bool {
	status, err := c.GetBudgetStatus(ctx, userAddress)
	if err != nil {
		return false
	}
	return status.IsPaused
}

// Healthy reports whether the guardian answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", &out); err != nil {
		return false
	}
	return out.Status == "healthy"
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("guardian %s failed: status=%d body=%s", req.URL.Path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
