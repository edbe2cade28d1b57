package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LedgerTransaction represents the ledger_transactions table - the internal
// double-entry record of every deposit credit and withdrawal debit. Rows are
// inserted once and mutated only through guarded status transitions; they are
// never deleted.
type LedgerTransaction struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID is the application user this entry belongs to
	UserID uint32 `gorm:"column:user_id;not null;index:idx_ledger_user_network,priority:1"`
	// Network is the chain the entry settles on
	Network string `gorm:"column:network;not null;type:text;index:idx_ledger_user_network,priority:2"`
	// Currency is the asset symbol
	Currency string `gorm:"column:currency;not null;type:text"`
	// Mode is credit or debit
	Mode string `gorm:"column:mode;not null;type:text"`
	// EntityType classifies the entry (deposit, withdrawal, purchase)
	EntityType string `gorm:"column:entity_type;not null;type:text;index:idx_ledger_entity_status,priority:1"`
	// Amount is the local-currency value at the active rate
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(20,8)"`
	// CoinAmount is the on-chain amount in base units (string to support up
	// to 78 digits)
	CoinAmount string `gorm:"column:coin_amount;not null;type:numeric(78,0)"`
	// Status is the internal lifecycle state
	Status string `gorm:"column:status;not null;type:text;index:idx_ledger_entity_status,priority:2"`
	// ExternalRef carries the on-chain hash or provider reference; the
	// unique index is what makes crediting at-most-once (multiple NULLs are
	// allowed, equal non-NULL values are not)
	ExternalRef *string `gorm:"column:external_ref;type:text;uniqueIndex:idx_ledger_external_ref"`
	// Metadata holds chain-specific context (sender, destination tag, ...)
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	// RetryCount counts processing->pending submissions; it never decreases
	RetryCount int `gorm:"column:retry_count;not null;default:0"`
	// CreatedAt is the timestamp when this entry was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this entry was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the LedgerTransaction model
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
