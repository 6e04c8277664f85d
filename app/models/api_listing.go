package models

import (
	"time"
)

// Allowed upstream methods for a listing.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// ApiListing is one published API in the marketplace. PricePerCall is a
// decimal string in asset base units; it parameterizes every payment
// challenge issued for this listing and is never stored as a float.
type ApiListing struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=3,max=255"`
	Description  string    `gorm:"type:text" json:"description" validate:"required"`
	Category     string    `gorm:"type:varchar(100);index" json:"category"`
	BaseURL      string    `gorm:"type:varchar(500);not null" json:"baseUrl" validate:"required,url"`
	Endpoint     string    `gorm:"type:varchar(500)" json:"endpoint"`
	Method       string    `gorm:"type:varchar(10);default:'GET'" json:"method" validate:"omitempty,oneof=GET POST PUT DELETE"`
	PricePerCall string    `gorm:"type:varchar(78);not null" json:"pricePerCall" validate:"required,number"`
	OwnerAddress string    `gorm:"type:varchar(64);index" json:"ownerAddress" validate:"required"`
	IsActive     bool      `gorm:"type:tinyint(1);default:1" json:"isActive"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the ApiListing model
func (ApiListing) TableName() string {
	return "api_listings"
}
