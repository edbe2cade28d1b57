package schema

import (
	"time"

	"gorm.io/datatypes"
)

// ChainEvent represents the chain_events table - one row per detected
// on-chain deposit, keyed by transaction hash. The unique index on EventHash
// is the at-most-once gate: a duplicate or concurrent delivery of the same
// hash fails the insert and short-circuits the whole credit.
type ChainEvent struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventHash is the on-chain transaction hash or signature
	EventHash string `gorm:"column:event_hash;not null;type:text;uniqueIndex:idx_chain_events_hash"`
	// UserID is the receiving user
	UserID uint32 `gorm:"column:user_id;not null"`
	// Network is the chain the event was observed on
	Network string `gorm:"column:network;not null;type:text"`
	// Payload is the raw incoming-transfer snapshot for replay/debugging
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb"`
	// CreatedAt is the timestamp when this event was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ChainEvent model
func (ChainEvent) TableName() string {
	return "chain_events"
}
