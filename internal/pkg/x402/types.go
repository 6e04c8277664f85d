// Package x402 implements the payment-required protocol used to gate
// marketplace resources: challenge issuance, the wire types shared with
// clients and the facilitator, and verify/settle orchestration.
package x402

// Version is the protocol version tag carried by every challenge and
// verification request.
const Version = 1

// SchemeExact is the only payment scheme currently issued: the client
// authorizes exactly the listed amount.
const SchemeExact = "exact"

// HeaderPaymentID is the request header carrying the entitlement key.
// HTTP header names are case-insensitive; always read it through the
// framework's header accessor, never the raw map.
const HeaderPaymentID = "X-Payment-Id"

// EventPaymentSettled is the facilitator event tag that marks a
// successful on-chain settlement.
const EventPaymentSettled = "payment.settled"

// Protocol error tags surfaced to callers. Automated clients branch on
// these, so they are part of the wire contract.
const (
	StatusPaymentRequired = "payment_required"
	StatusVerifyFailed    = "verify_failed"
	StatusSettleFailed    = "settle_failed"
)

// ExtraPaymentID is the key under which the minted payment id travels in
// a requirement's extra bag.
const ExtraPaymentID = "paymentId"

// PaymentRequirement describes one acceptable way to pay for a single
// resource invocation. Amounts are decimal strings in asset base units;
// monetary values never touch a floating type.
type PaymentRequirement struct {
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

// PaymentID returns the payment identifier embedded in the extra bag,
// or "" if absent.
func (r PaymentRequirement) PaymentID() string {
	return r.Extra[ExtraPaymentID]
}

// PaymentChallenge is the 402 response body. Accepts is never empty for
// an issued challenge; clients fail fast if it is.
type PaymentChallenge struct {
	X402Version int                  `json:"x402Version"`
	Error       string               `json:"error"`
	Accepts     []PaymentRequirement `json:"accepts"`
}

// FirstRequirement returns the first accepted requirement, or false if
// the challenge is malformed (empty accepts list).
func (c PaymentChallenge) FirstRequirement() (PaymentRequirement, bool) {
	if len(c.Accepts) == 0 {
		return PaymentRequirement{}, false
	}
	return c.Accepts[0], true
}
