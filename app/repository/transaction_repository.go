package repository

import (
	"github.com/google/uuid"
	"github.com/pixelmarket/x402-gateway/app/models"
	"gorm.io/gorm"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create records one paid-call audit line
func (r *transactionRepository) Create(tx *models.ApiTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	return r.db.Create(tx).Error
}

// GetByApiID retrieves the audit trail for one listing, newest first
func (r *transactionRepository) GetByApiID(apiID string, offset, limit int) ([]models.ApiTransaction, error) {
	var txs []models.ApiTransaction
	err := r.db.Where("api_id = ?", apiID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	return txs, err
}

// GetByWallet retrieves all transactions recorded for a wallet
func (r *transactionRepository) GetByWallet(walletAddress string) ([]models.ApiTransaction, error) {
	var txs []models.ApiTransaction
	err := r.db.Where("wallet_address = ?", walletAddress).
		Order("created_at DESC").Find(&txs).Error
	return txs, err
}
