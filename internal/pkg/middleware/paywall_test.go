package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelmarket/x402-gateway/internal/pkg/entitlement"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

func newGateApp(store entitlement.Store) *fiber.App {
	issuer := x402.NewIssuer(x402.Config{
		Network:        x402.NetworkTestnet,
		PayTo:          "0xmerchant",
		Asset:          x402.AssetDevUSDCe,
		TimeoutSeconds: 300,
	})
	gate := NewPaywallGate(store, issuer)

	app := fiber.New()
	app.Get("/gated", gate.Handler(x402.ChallengeParams{
		MaxAmountRequired: "100000",
		Description:       "Execute Weather API",
		Resource:          "/gated",
	}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func decodeChallenge(t *testing.T, body io.Reader) x402.PaymentChallenge {
	t.Helper()
	var challenge x402.PaymentChallenge
	require.NoError(t, json.NewDecoder(body).Decode(&challenge))
	return challenge
}

func TestPaywallNoKeyReturnsChallenge(t *testing.T) {
	app := newGateApp(entitlement.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	challenge := decodeChallenge(t, resp.Body)
	assert.Equal(t, 1, challenge.X402Version)
	assert.Equal(t, x402.StatusPaymentRequired, challenge.Error)
	require.NotEmpty(t, challenge.Accepts)
	assert.Equal(t, "100000", challenge.Accepts[0].MaxAmountRequired)
	assert.NotEmpty(t, challenge.Accepts[0].PaymentID())
}

func TestPaywallUnsettledKeyEqualsNoKey(t *testing.T) {
	app := newGateApp(entitlement.NewMemoryStore())

	req := httptest.NewRequest("GET", "/gated", nil)
	req.Header.Set(x402.HeaderPaymentID, "pay_never-settled")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	challenge := decodeChallenge(t, resp.Body)
	require.NotEmpty(t, challenge.Accepts)
}

func TestPaywallHeaderNameIsCaseInsensitive(t *testing.T) {
	store := entitlement.NewMemoryStore()
	require.NoError(t, store.RecordSettlement(context.Background(), "pay_ok", "0xabc", time.Now()))
	app := newGateApp(store)

	req := httptest.NewRequest("GET", "/gated", nil)
	req.Header.Set("x-PAYMENT-id", "pay_ok")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPaywallSettledKeyPassesThrough(t *testing.T) {
	store := entitlement.NewMemoryStore()
	require.NoError(t, store.RecordSettlement(context.Background(), "pay_ok", "0xabc", time.Now()))
	app := newGateApp(store)

	req := httptest.NewRequest("GET", "/gated", nil)
	req.Header.Set(x402.HeaderPaymentID, "pay_ok")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestPaywallRepeatedUnpaidCallsMintFreshIDs(t *testing.T) {
	app := newGateApp(entitlement.NewMemoryStore())

	first, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)
	second, err := app.Test(httptest.NewRequest("GET", "/gated", nil))
	require.NoError(t, err)

	id1 := decodeChallenge(t, first.Body).Accepts[0].PaymentID()
	id2 := decodeChallenge(t, second.Body).Accepts[0].PaymentID()
	assert.NotEqual(t, id1, id2)
}

func TestPaywallCustomKeyExtractor(t *testing.T) {
	store := entitlement.NewMemoryStore()
	require.NoError(t, store.RecordSettlement(context.Background(), "pay_q", "0xabc", time.Now()))

	issuer := x402.NewIssuer(x402.Config{Network: x402.NetworkTestnet, PayTo: "0xmerchant", Asset: x402.AssetDevUSDCe})
	gate := NewPaywallGate(store, issuer).WithKeyExtractor(func(c *fiber.Ctx) string {
		return c.Query("payment")
	})

	app := fiber.New()
	app.Get("/gated", gate.Handler(x402.ChallengeParams{MaxAmountRequired: "1"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/gated?payment=pay_q", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
