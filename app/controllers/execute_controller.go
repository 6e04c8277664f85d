package controllers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pixelmarket/x402-gateway/app/models"
	"github.com/pixelmarket/x402-gateway/internal/pkg/guardian"
	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

// resolveActiveListing loads the listing or writes the structured 404.
// A deactivated listing is indistinguishable from a missing one.
func resolveActiveListing(c *fiber.Ctx) (*models.ApiListing, error, bool) {
	repo := GetServices().repositories().Listing
	listing, err := repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "API not found"}), false
		}
		log.Printf("listing lookup failed: %v", err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"}), false
	}
	if !listing.IsActive {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "API not found"}), false
	}
	return listing, nil, true
}

// challengeParamsFor prices a challenge from the listing: the owner's
// payout address receives the payment, the listing sets the amount.
func challengeParamsFor(listing *models.ApiListing, resource string) x402.ChallengeParams {
	return x402.ChallengeParams{
		PayTo:             listing.OwnerAddress,
		MaxAmountRequired: listing.PricePerCall,
		Description:       "Execute " + listing.Name + " API",
		Resource:          resource,
	}
}

// recordPaidCall writes the audit line and reports usage to the
// guardian. Both happen after the paid call succeeded and neither can
// fail it.
func recordPaidCall(listing *models.ApiListing, wallet string) {
	tx := &models.ApiTransaction{
		ApiID:         listing.ID,
		WalletAddress: wallet,
		Amount:        listing.PricePerCall,
	}
	if err := GetServices().repositories().Transaction.Create(tx); err != nil {
		log.Printf("transaction record for api %s failed: %v", listing.ID, err)
	}

	g := GetServices().Guardian
	usage := guardian.UsageRecord{
		UserAddress: wallet,
		ApiID:       listing.ID,
		ApiName:     listing.Name,
		Provider:    listing.OwnerAddress,
		Cost:        costFromBaseUnits(listing.PricePerCall),
		Endpoint:    listing.Endpoint,
		Status:      "success",
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		g.RecordUsage(ctx, usage)
	}()
}

// costFromBaseUnits converts a 6-decimal base-unit amount to the
// guardian's decimal cost. Advisory only; settlement math never touches
// floats.
func costFromBaseUnits(amount string) float64 {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return v / 1e6
}

// HandleExecute runs a paywall-gated mock invocation of the listing.
// Scripts exercising only the payment flow hit this instead of the
// real origin.
func HandleExecute(c *fiber.Ctx) error {
	listing, res, ok := resolveActiveListing(c)
	if !ok {
		return res
	}

	allowed, err := GetServices().Gate.Evaluate(c, challengeParamsFor(listing, "/api/execute/"+listing.ID))
	if err != nil || !allowed {
		return err
	}

	// Malformed or absent request data is tolerated; the mock echoes
	// whatever parsed and paid callers are never bounced on body shape.
	var requestData map[string]any
	_ = c.BodyParser(&requestData)

	recordPaidCall(listing, callerWallet(c))
	return c.JSON(fiber.Map{"ok": true, "data": mockResponse(listing, requestData)})
}

func mockResponse(listing *models.ApiListing, requestData map[string]any) fiber.Map {
	now := time.Now().UnixMilli()
	switch listing.Category {
	case "Weather":
		return fiber.Map{"city": "San Francisco", "temperature": 18, "conditions": "Partly Cloudy", "timestamp": now}
	case "Finance":
		return fiber.Map{"symbol": "AAPL", "price": "178.45", "change": "+2.3%", "timestamp": now}
	case "AI":
		return fiber.Map{"text": "This is a generated AI response based on your input.", "model": "gpt-4", "tokens": 25, "timestamp": now}
	default:
		return fiber.Map{"ok": true, "message": "API call successful", "data": requestData, "timestamp": now}
	}
}
