package controllers

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

// payRequest is the settlement submission: the payment id from the
// challenge, the signed authorization header, and the requirement it
// was signed against.
type payRequest struct {
	PaymentID           string                  `json:"paymentId"`
	PaymentHeader       string                  `json:"paymentHeader"`
	PaymentRequirements x402.PaymentRequirement `json:"paymentRequirements"`
}

// HandlePay verifies and settles one payment. Protocol failures come
// back as structured {ok:false, error, details} so automated callers can
// branch on the stage that failed; only an unreachable collaborator is a
// 5xx.
func HandlePay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid JSON body"})
	}
	if strings.TrimSpace(req.PaymentID) == "" || strings.TrimSpace(req.PaymentHeader) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "Missing required fields: paymentId, paymentHeader, paymentRequirements",
		})
	}

	outcome, err := GetServices().Settler.Settle(c.UserContext(), req.PaymentID, req.PaymentHeader, req.PaymentRequirements)
	if err != nil {
		log.Printf("settlement for %s failed: %v", req.PaymentID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"ok": false, "error": "settlement_unavailable"})
	}

	if !outcome.OK {
		return c.JSON(fiber.Map{
			"ok":      false,
			"error":   outcome.Stage,
			"details": json.RawMessage(outcome.Details),
		})
	}
	return c.JSON(fiber.Map{"ok": true, "txHash": outcome.TxHash})
}
