package models

import "time"

// ApiSubscription links a wallet to a listing it follows. Purely a
// marketplace convenience; it grants no entitlement.
type ApiSubscription struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"type:varchar(64);not null;index:ux_subscriptions_wallet_api,unique,priority:1" json:"walletAddress"`
	ApiID         string    `gorm:"type:varchar(36);not null;index:ux_subscriptions_wallet_api,unique,priority:2" json:"apiId"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for the ApiSubscription model
func (ApiSubscription) TableName() string {
	return "api_subscriptions"
}
