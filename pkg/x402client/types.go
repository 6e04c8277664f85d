// Package x402client drives the consumer side of the x402 payment flow:
// call a gated endpoint, receive the 402 challenge, obtain a signed
// payment authorization, settle it through the gateway, and retry the
// call with the resulting entitlement.
package x402client

// Requirement is one accepted way to pay, as carried in a 402 challenge.
// Amounts are decimal strings in asset base units.
type Requirement struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	Asset             string            `json:"asset"`
	PayTo             string            `json:"payTo"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType,omitempty"`
	Resource          string            `json:"resource,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// PaymentID returns the payment identifier from the requirement's extra
// bag, or "" when the server omitted it.
func (r Requirement) PaymentID() string {
	return r.Extra["paymentId"]
}

// Challenge is the 402 response body.
type Challenge struct {
	X402Version int           `json:"x402Version"`
	Error       string        `json:"error"`
	Accepts     []Requirement `json:"accepts"`
}

// PayResponse is the gateway's answer to POST /api/pay.
type PayResponse struct {
	OK     bool   `json:"ok"`
	TxHash string `json:"txHash,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HeaderPaymentID is the entitlement header sent on the retry.
const HeaderPaymentID = "X-Payment-Id"
