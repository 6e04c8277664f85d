package repository

import (
	"github.com/pixelmarket/x402-gateway/app/models"
	"gorm.io/gorm"
)

// ListingRepository defines the interface for marketplace listing operations
type ListingRepository interface {
	Create(listing *models.ApiListing) error
	GetByID(id string) (*models.ApiListing, error)
	GetActive() ([]models.ApiListing, error)
	Update(listing *models.ApiListing) error
	Deactivate(id string) error
	Count() (int64, error)
}

// TransactionRepository defines the interface for the paid-call audit trail
type TransactionRepository interface {
	Create(tx *models.ApiTransaction) error
	GetByApiID(apiID string, offset, limit int) ([]models.ApiTransaction, error)
	GetByWallet(walletAddress string) ([]models.ApiTransaction, error)
}

// SubscriptionRepository defines the interface for wallet subscriptions
type SubscriptionRepository interface {
	Create(sub *models.ApiSubscription) error
	GetByWallet(walletAddress string) ([]models.ApiSubscription, error)
	Exists(walletAddress, apiID string) (bool, error)
	Delete(walletAddress, apiID string) error
}

// SubscriptionWithListing enriches a subscription with its listing for
// marketplace views. Listing is nil when the listing no longer exists.
type SubscriptionWithListing struct {
	Subscription models.ApiSubscription `json:"subscription"`
	Listing      *models.ApiListing     `json:"api,omitempty"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Listing      ListingRepository
	Transaction  TransactionRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Listing:      NewListingRepository(db),
		Transaction:  NewTransactionRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
