package controllers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pixelmarket/x402-gateway/app/models"
	"github.com/pixelmarket/x402-gateway/app/repository"
)

type subscriptionRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	ApiID         string `json:"apiId" validate:"required"`
}

// HandleSubscribe registers a wallet's interest in a listing. Duplicate
// subscriptions are acknowledged rather than rejected.
func HandleSubscribe(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid JSON body"})
	}
	if err := GetServices().Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	repos := GetServices().repositories()
	if _, err := repos.Listing.GetByID(req.ApiID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "API not found"})
		}
		log.Printf("listing lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}

	wallet := strings.ToLower(strings.TrimSpace(req.WalletAddress))
	subs := repos.Subscription
	exists, err := subs.Exists(wallet, req.ApiID)
	if err != nil {
		log.Printf("subscription lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	if exists {
		return c.JSON(fiber.Map{"ok": true, "message": "Already subscribed"})
	}

	sub := &models.ApiSubscription{WalletAddress: wallet, ApiID: req.ApiID}
	if err := subs.Create(sub); err != nil {
		log.Printf("subscription create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": sub})
}

// HandleListSubscriptions returns a wallet's subscriptions, each
// enriched with its listing when the listing still exists.
func HandleListSubscriptions(c *fiber.Ctx) error {
	wallet := strings.ToLower(strings.TrimSpace(c.Params("wallet")))
	if wallet == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "wallet address required"})
	}

	repos := GetServices().repositories()
	subs, err := repos.Subscription.GetByWallet(wallet)
	if err != nil {
		log.Printf("subscription query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}

	enriched := make([]repository.SubscriptionWithListing, 0, len(subs))
	for _, sub := range subs {
		entry := repository.SubscriptionWithListing{Subscription: sub}
		if listing, err := repos.Listing.GetByID(sub.ApiID); err == nil {
			entry.Listing = listing
		}
		enriched = append(enriched, entry)
	}
	return c.JSON(fiber.Map{"ok": true, "data": enriched})
}

// HandleUnsubscribe removes a wallet's subscription to a listing.
func HandleUnsubscribe(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid JSON body"})
	}
	if err := GetServices().Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	wallet := strings.ToLower(strings.TrimSpace(req.WalletAddress))
	if err := GetServices().repositories().Subscription.Delete(wallet, req.ApiID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "subscription not found"})
		}
		log.Printf("subscription delete failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "message": "Unsubscribed successfully"})
}

// HandleListTransactions returns the audit trail for one listing,
// newest first, with offset/limit paging.
func HandleListTransactions(c *fiber.Ctx) error {
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := GetServices().repositories().Transaction.GetByApiID(c.Params("apiId"), offset, limit)
	if err != nil {
		log.Printf("transaction query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "data": txs})
}

// HandleListWalletTransactions returns every paid call recorded for a
// wallet, across listings.
func HandleListWalletTransactions(c *fiber.Ctx) error {
	wallet := strings.ToLower(strings.TrimSpace(c.Params("wallet")))
	if wallet == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "wallet address required"})
	}

	txs, err := GetServices().repositories().Transaction.GetByWallet(wallet)
	if err != nil {
		log.Printf("transaction query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "data": txs})
}
