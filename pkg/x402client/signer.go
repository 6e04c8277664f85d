package x402client

import "context"

// Authorization is the payment the signer is asked to approve: pay
// Value base units of Asset to To, valid in [ValidAfter, ValidBefore]
// (unix seconds, ValidAfter 0 means immediately).
type Authorization struct {
	To          string
	Value       string
	Asset       string
	ValidAfter  int64
	ValidBefore int64
}

// Signer is the external wallet capability. Implementations wrap a
// browser wallet bridge, a keystore, or a test fake.
type Signer interface {
	// EnsureNetwork switches the wallet to the requested network before
	// signing. Implementations for single-network wallets may verify and
	// return an error on mismatch.
	EnsureNetwork(ctx context.Context, network string) error

	// SignAuthorization produces the opaque payment header for the
	// authorization, in whatever encoding the facilitator expects.
	SignAuthorization(ctx context.Context, auth Authorization) (string, error)
}
