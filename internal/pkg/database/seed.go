package database

import (
	"log"

	"github.com/google/uuid"
	"github.com/pixelmarket/x402-gateway/app/models"
	"gorm.io/gorm"
)

// seedListings populates example listings on an empty database so a
// fresh deployment has something to gate.
func seedListings(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.ApiListing{}).Count(&count).Error; err != nil {
		log.Printf("listing seed skipped: %v", err)
		return
	}
	if count > 0 {
		return
	}

	examples := []models.ApiListing{
		{
			Name:         "Weather API",
			Description:  "Get current weather data for any city",
			Category:     "Weather",
			BaseURL:      "https://api.weatherapi.com",
			Endpoint:     "/v1/current.json",
			Method:       models.MethodGet,
			PricePerCall: "100000",
			OwnerAddress: "0x0000000000000000000000000000000000000001",
			IsActive:     true,
		},
		{
			Name:         "Stock Price API",
			Description:  "Real-time stock prices and market data",
			Category:     "Finance",
			BaseURL:      "https://finnhub.io",
			Endpoint:     "/api/v1/quote",
			Method:       models.MethodGet,
			PricePerCall: "500000",
			OwnerAddress: "0x0000000000000000000000000000000000000002",
			IsActive:     true,
		},
		{
			Name:         "AI Text Generation",
			Description:  "Generate text using AI models",
			Category:     "AI",
			BaseURL:      "https://api.openai.com",
			Endpoint:     "/v1/completions",
			Method:       models.MethodPost,
			PricePerCall: "2000000",
			OwnerAddress: "0x0000000000000000000000000000000000000003",
			IsActive:     true,
		},
	}

	for i := range examples {
		examples[i].ID = uuid.NewString()
		if err := db.Create(&examples[i]).Error; err != nil {
			log.Printf("failed to seed listing %q: %v", examples[i].Name, err)
		}
	}
}
