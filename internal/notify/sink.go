// Package notify delivers user-facing deposit notifications. Delivery is
// fire-and-forget from the credit path's perspective: a failed publish is
// logged and dropped, never allowed to fail or retry a credit.
package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/helixpay/custody-engine/internal/domain"
)

// Deposit is the payload handed to the sink after a credit lands.
type Deposit struct {
	// EventID uniquely identifies one delivery attempt; the sink stamps it
	// when the caller leaves it empty.
	EventID    string          `json:"event_id"`
	UserID     uint32          `json:"user_id"`
	Network    domain.Network  `json:"network"`
	Symbol     string          `json:"symbol"`
	Amount     decimal.Decimal `json:"amount"`
	CoinAmount string          `json:"coin_amount"`
	TxHash     string          `json:"tx_hash"`
}

// Sink receives deposit notifications.
//
//go:generate mockgen -source=sink.go -destination=../mocks/sink.go -package=mocks -mock_names=Sink=MockSink
type Sink interface {
	NotifyDeposit(ctx context.Context, deposit Deposit) error
}
