package x402

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/pixelmarket/x402-gateway/internal/pkg/entitlement"
)

// VerifyRequest is the body sent to the facilitator for both the verify
// and the settle call. The same payload gates both phases.
type VerifyRequest struct {
	X402Version         int                `json:"x402Version"`
	PaymentHeader       string             `json:"paymentHeader"`
	PaymentRequirements PaymentRequirement `json:"paymentRequirements"`
}

// VerifyResult is the interpreted verify response. Raw carries the
// facilitator's full payload for diagnostics; the response shape is an
// externally versioned contract, so only the fields we act on are typed.
type VerifyResult struct {
	IsValid bool
	Raw     json.RawMessage
}

// SettleResult is the interpreted settle response.
type SettleResult struct {
	Event  string
	TxHash string
	Raw    json.RawMessage
}

// Collaborator is the narrow capability the orchestrator needs from the
// external verification/settlement service.
type Collaborator interface {
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
	Settle(ctx context.Context, req VerifyRequest) (*SettleResult, error)
}

// SettlementOutcome is the tagged result of a settlement attempt. On
// failure, Stage names the phase that failed and Details carries the
// collaborator's raw diagnostic payload.
type SettlementOutcome struct {
	OK      bool
	TxHash  string
	Stage   string // StatusVerifyFailed or StatusSettleFailed
	Details json.RawMessage
}

// Settler orchestrates the two-phase settlement protocol and records
// successful outcomes in the entitlement store.
type Settler struct {
	collaborator Collaborator
	store        entitlement.Store
	now          func() time.Time
}

// NewSettler wires the orchestrator to a collaborator and a store.
func NewSettler(collaborator Collaborator, store entitlement.Store) *Settler {
	return &Settler{
		collaborator: collaborator,
		store:        store,
		now:          time.Now,
	}
}

// Settle runs the strictly ordered verify -> settle -> record sequence
// for one payment. Verify failure and settle failure are reported as
// structured outcomes, never as transport errors; a non-nil error means
// the collaborator itself was unreachable. Neither phase is retried
// here; retry policy belongs to the caller because a blind settle retry
// has double-spend semantics unless the collaborator is idempotent.
func (s *Settler) Settle(ctx context.Context, paymentID, paymentHeader string, req PaymentRequirement) (SettlementOutcome, error) {
	if strings.TrimSpace(paymentID) == "" {
		return SettlementOutcome{}, errors.New("payment id is required")
	}
	if strings.TrimSpace(paymentHeader) == "" {
		return SettlementOutcome{}, errors.New("payment header is required")
	}

	body := VerifyRequest{
		X402Version:         Version,
		PaymentHeader:       paymentHeader,
		PaymentRequirements: req,
	}

	verify, err := s.collaborator.Verify(ctx, body)
	if err != nil {
		return SettlementOutcome{}, err
	}
	if !verify.IsValid {
		return SettlementOutcome{Stage: StatusVerifyFailed, Details: verify.Raw}, nil
	}

	settle, err := s.collaborator.Settle(ctx, body)
	if err != nil {
		return SettlementOutcome{}, err
	}
	if settle.Event != EventPaymentSettled {
		return SettlementOutcome{Stage: StatusSettleFailed, Details: settle.Raw}, nil
	}

	if err := s.store.RecordSettlement(ctx, paymentID, settle.TxHash, s.now()); err != nil {
		return SettlementOutcome{}, err
	}

	return SettlementOutcome{OK: true, TxHash: settle.TxHash}, nil
}
