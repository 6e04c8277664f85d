package repository

import (
	"strings"

	"github.com/pixelmarket/x402-gateway/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create stores a subscription; wallet addresses are compared lowercased
func (r *subscriptionRepository) Create(sub *models.ApiSubscription) error {
	sub.WalletAddress = strings.ToLower(sub.WalletAddress)
	return r.db.Create(sub).Error
}

// GetByWallet retrieves all subscriptions for a wallet
func (r *subscriptionRepository) GetByWallet(walletAddress string) ([]models.ApiSubscription, error) {
	var subs []models.ApiSubscription
	err := r.db.Where("wallet_address = ?", strings.ToLower(walletAddress)).
		Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// Exists checks whether a wallet already follows a listing
func (r *subscriptionRepository) Exists(walletAddress, apiID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ApiSubscription{}).
		Where("wallet_address = ? AND api_id = ?", strings.ToLower(walletAddress), apiID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes a subscription
func (r *subscriptionRepository) Delete(walletAddress, apiID string) error {
	res := r.db.Where("wallet_address = ? AND api_id = ?", strings.ToLower(walletAddress), apiID).
		Delete(&models.ApiSubscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
