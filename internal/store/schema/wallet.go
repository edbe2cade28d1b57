package schema

import (
	"time"
)

// Wallet represents the wallets table - one deposit address per (user,
// network), created exactly once and never updated or deleted.
type Wallet struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the application user the address belongs to; it doubles as
	// the HD derivation index
	UserID uint32 `gorm:"column:user_id;not null;uniqueIndex:idx_wallets_user_network,priority:1"`
	// Network is the chain the address lives on
	Network string `gorm:"column:network;not null;type:text;uniqueIndex:idx_wallets_user_network,priority:2"`
	// Currency is the native symbol of the network
	Currency string `gorm:"column:currency;not null;type:text"`
	// Address is globally unique across all users; the unique index is the
	// idempotency guard for concurrent wallet creation
	Address string `gorm:"column:address;not null;type:text;uniqueIndex:idx_wallets_address"`
	// CreatedAt is the timestamp when this wallet was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Wallet model
func (Wallet) TableName() string {
	return "wallets"
}
