package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pixelmarket/x402-gateway/internal/pkg/entitlement"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

// KeyExtractor derives the entitlement key from a request. The default
// reads the payment-id header; deployments may derive it from a session
// or wallet address instead.
type KeyExtractor func(c *fiber.Ctx) string

// DefaultKeyExtractor returns the trimmed payment-id header value.
func DefaultKeyExtractor(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(x402.HeaderPaymentID))
}

// PaywallGate decides Allow vs Challenge for each request to a gated
// resource. Entitlement keys are bearer tokens: whoever holds a settled
// payment id unlocks the resource, with no binding to the identity that
// paid. That trust model is intentional (agent-delegated payments hand
// the id to the agent) and must not be tightened here.
type PaywallGate struct {
	store   entitlement.Store
	issuer  *x402.Issuer
	extract KeyExtractor
}

// NewPaywallGate wires a gate to an entitlement store and an issuer.
func NewPaywallGate(store entitlement.Store, issuer *x402.Issuer) *PaywallGate {
	return &PaywallGate{store: store, issuer: issuer, extract: DefaultKeyExtractor}
}

// WithKeyExtractor replaces the default header-based key extraction.
func (g *PaywallGate) WithKeyExtractor(extract KeyExtractor) *PaywallGate {
	g.extract = extract
	return g
}

// Evaluate checks the request's entitlement key against the store. On a
// settled key it returns true and leaves the request untouched.
// Otherwise it mints a fresh challenge for the given resource
// parameters, writes the 402 response and returns false; no further
// handler should run. An unsettled or unknown key is treated exactly
// like a missing one.
func (g *PaywallGate) Evaluate(c *fiber.Ctx, params x402.ChallengeParams) (bool, error) {
	key := g.extract(c)
	if key != "" {
		settled, err := g.store.IsSettled(c.UserContext(), key)
		if err != nil {
			log.Printf("paywall: entitlement lookup failed: %v", err)
			return false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"ok":    false,
				"error": "internal_server_error",
			})
		}
		if settled {
			return true, nil
		}
	}

	challenge := g.issuer.Issue(params)
	return false, c.Status(fiber.StatusPaymentRequired).JSON(challenge)
}

// Handler wraps Evaluate as ordinary route middleware for resources with
// static pricing.
func (g *PaywallGate) Handler(params x402.ChallengeParams) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, err := g.Evaluate(c, params)
		if err != nil || !allowed {
			return err
		}
		return c.Next()
	}
}
