package x402

import (
	"strings"

	"github.com/google/uuid"
)

// paymentIDPrefix marks identifiers minted by this issuer.
const paymentIDPrefix = "pay_"

// NewPaymentID mints a globally unique, unguessable payment identifier.
// uuid.NewString draws from crypto/rand, so ids are not enumerable.
func NewPaymentID() string {
	return paymentIDPrefix + uuid.NewString()
}

// ChallengeParams parameterizes a single challenge. Zero-valued fields
// fall back to the issuer's configured defaults.
type ChallengeParams struct {
	Network           string
	Asset             string
	PayTo             string
	MaxAmountRequired string
	MaxTimeoutSeconds int
	Description       string
	MimeType          string
	Resource          string
}

// Issuer constructs priced, time-bounded payment challenges. It holds
// only static configuration and mints a fresh payment id per call; it
// never consults entitlement state, so repeated unpaid polling of the
// same resource yields distinct ids.
type Issuer struct {
	cfg Config
}

// NewIssuer creates an issuer with the given defaults.
func NewIssuer(cfg Config) *Issuer {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return &Issuer{cfg: cfg}
}

// NewIssuerFromEnv creates an issuer from the environment configuration.
func NewIssuerFromEnv() *Issuer {
	return NewIssuer(ConfigFromEnv())
}

// Issue builds a well-formed PaymentChallenge whose sole accepted option
// is the supplied requirement, with a brand-new payment id embedded in
// the extra bag.
func (i *Issuer) Issue(p ChallengeParams) PaymentChallenge {
	if strings.TrimSpace(p.Network) == "" {
		p.Network = i.cfg.Network
	}
	if strings.TrimSpace(p.Asset) == "" {
		p.Asset = i.cfg.Asset
	}
	if strings.TrimSpace(p.PayTo) == "" {
		p.PayTo = i.cfg.PayTo
	}
	if p.MaxTimeoutSeconds <= 0 {
		p.MaxTimeoutSeconds = i.cfg.TimeoutSeconds
	}
	if strings.TrimSpace(p.MimeType) == "" {
		p.MimeType = "application/json"
	}

	req := PaymentRequirement{
		Scheme:            SchemeExact,
		Network:           p.Network,
		Asset:             p.Asset,
		PayTo:             p.PayTo,
		MaxAmountRequired: p.MaxAmountRequired,
		MaxTimeoutSeconds: p.MaxTimeoutSeconds,
		Description:       p.Description,
		MimeType:          p.MimeType,
		Resource:          p.Resource,
		Extra:             map[string]string{ExtraPaymentID: NewPaymentID()},
	}

	return PaymentChallenge{
		X402Version: Version,
		Error:       StatusPaymentRequired,
		Accepts:     []PaymentRequirement{req},
	}
}
