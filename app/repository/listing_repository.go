package repository

import (
	"github.com/google/uuid"
	"github.com/pixelmarket/x402-gateway/app/models"
	"gorm.io/gorm"
)

// listingRepository implements the ListingRepository interface
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository instance
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create stores a new listing, minting an id when the caller left it empty
func (r *listingRepository) Create(listing *models.ApiListing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	return r.db.Create(listing).Error
}

// GetByID retrieves a listing by its id, active or not
func (r *listingRepository) GetByID(id string) (*models.ApiListing, error) {
	var listing models.ApiListing
	err := r.db.First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetActive retrieves all active listings, newest first
func (r *listingRepository) GetActive() ([]models.ApiListing, error) {
	var listings []models.ApiListing
	err := r.db.Where("is_active = ?", true).
		Order("created_at DESC").Find(&listings).Error
	return listings, err
}

// Update saves changes to an existing listing
func (r *listingRepository) Update(listing *models.ApiListing) error {
	return r.db.Save(listing).Error
}

// Deactivate marks a listing inactive instead of deleting the row
func (r *listingRepository) Deactivate(id string) error {
	res := r.db.Model(&models.ApiListing{}).Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the total number of listings
func (r *listingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ApiListing{}).Count(&count).Error
	return count, err
}
