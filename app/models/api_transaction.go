package models

import "time"

// WalletUnknown is recorded when a paid call carries no caller identity.
const WalletUnknown = "unknown"

// ApiTransaction is one audit line for a paid invocation: who (if
// known), how much, and for which listing. Written after the proxied
// call succeeds, independent of the relay itself.
type ApiTransaction struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ApiID         string    `gorm:"type:varchar(36);index;not null" json:"apiId"`
	WalletAddress string    `gorm:"type:varchar(64);index" json:"walletAddress"`
	Amount        string    `gorm:"type:varchar(78);not null" json:"amount"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for the ApiTransaction model
func (ApiTransaction) TableName() string {
	return "api_transactions"
}
