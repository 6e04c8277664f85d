package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pixelmarket/x402-gateway/app/models"
)

// HandleListAPIs returns all active listings.
func HandleListAPIs(c *fiber.Ctx) error {
	repo := GetServices().repositories().Listing
	listings, err := repo.GetActive()
	if err != nil {
		log.Printf("listing query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "data": listings})
}

// HandleGetAPI returns one listing by id.
func HandleGetAPI(c *fiber.Ctx) error {
	repo := GetServices().repositories().Listing
	listing, err := repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "API not found"})
		}
		log.Printf("listing lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "data": listing})
}

// createListingRequest is the accepted creation payload. The id, active
// flag and timestamps are server-owned.
type createListingRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=255"`
	Description  string `json:"description" validate:"required"`
	Category     string `json:"category"`
	BaseURL      string `json:"baseUrl" validate:"required,url"`
	Endpoint     string `json:"endpoint"`
	Method       string `json:"method" validate:"omitempty,oneof=GET POST PUT DELETE"`
	PricePerCall string `json:"pricePerCall" validate:"required,number"`
	OwnerAddress string `json:"ownerAddress" validate:"required"`
}

// HandleCreateAPI publishes a new listing.
func HandleCreateAPI(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid JSON body"})
	}
	if err := GetServices().Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	if req.Method == "" {
		req.Method = models.MethodGet
	}

	listing := &models.ApiListing{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		BaseURL:      req.BaseURL,
		Endpoint:     req.Endpoint,
		Method:       req.Method,
		PricePerCall: req.PricePerCall,
		OwnerAddress: req.OwnerAddress,
		IsActive:     true,
	}

	repo := GetServices().repositories().Listing
	if err := repo.Create(listing); err != nil {
		log.Printf("listing create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": listing})
}

// HandleUpdateAPI applies partial updates to an existing listing.
func HandleUpdateAPI(c *fiber.Ctx) error {
	repo := GetServices().repositories().Listing
	listing, err := repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "API not found"})
		}
		log.Printf("listing lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}

	// BodyParser over the loaded model keeps absent fields unchanged.
	if err := c.BodyParser(listing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "invalid JSON body"})
	}
	if err := GetServices().Validate.Struct(listing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	if err := repo.Update(listing); err != nil {
		log.Printf("listing update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "data": listing})
}

// HandleDeleteAPI deactivates a listing; the row and its audit trail
// stay behind.
func HandleDeleteAPI(c *fiber.Ctx) error {
	repo := GetServices().repositories().Listing
	if err := repo.Deactivate(c.Params("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "API not found"})
		}
		log.Printf("listing deactivate failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{"ok": true, "message": "API deleted successfully"})
}
