package store

import (
	"context"

	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/store/schema"
)

// WalletStore persists the (user, network) -> address directory.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=WalletStore=MockWalletStore,LedgerStore=MockLedgerStore,EventStore=MockEventStore,CursorStore=MockCursorStore
type WalletStore interface {
	// FindByAddress resolves a wallet by its deposit address; returns
	// domain.ErrWalletNotFound when absent
	FindByAddress(ctx context.Context, address string) (*schema.Wallet, error)

	// FindByUserAndNetwork resolves a wallet by owner and chain; returns
	// domain.ErrWalletNotFound when absent
	FindByUserAndNetwork(ctx context.Context, userID uint32, network domain.Network) (*schema.Wallet, error)

	// InsertIfAbsent inserts a wallet record unless its address already
	// exists. Returns true when the row was inserted, false on conflict.
	InsertIfAbsent(ctx context.Context, wallet *schema.Wallet) (bool, error)

	// ListByUser returns all wallet records for a user
	ListByUser(ctx context.Context, userID uint32) ([]schema.Wallet, error)

	// DistinctUserIDs lists every user with at least one wallet; the
	// schedulers iterate this population
	DistinctUserIDs(ctx context.Context) ([]uint32, error)
}

// LedgerStore persists ledger transactions and drives the withdrawal state
// machine through guarded updates.
type LedgerStore interface {
	// FindByExternalRef looks up an entry by its on-chain hash/reference;
	// returns (nil, nil) when absent
	FindByExternalRef(ctx context.Context, ref string) (*schema.LedgerTransaction, error)

	// ExistingRefs returns the subset of refs already present for a
	// (user, network) pair
	ExistingRefs(ctx context.Context, userID uint32, network domain.Network, refs []string) (map[string]struct{}, error)

	// InsertCreditIfAbsent inserts a credit entry unless its external ref is
	// already recorded. Returns true when the row was inserted.
	InsertCreditIfAbsent(ctx context.Context, tx *schema.LedgerTransaction) (bool, error)

	// Insert writes a new ledger entry unconditionally
	Insert(ctx context.Context, tx *schema.LedgerTransaction) error

	// FindWithdrawals returns withdrawal entries in the given status with
	// the given retry count (-1 matches any retry count)
	FindWithdrawals(ctx context.Context, status domain.LedgerStatus, retry int) ([]schema.LedgerTransaction, error)

	// UpdateStatus applies a conditional status transition: the update only
	// lands when the row is still in expected status. Returns true when the
	// transition was applied. patch carries additional column updates
	// (external_ref, retry_count bumps).
	UpdateStatus(ctx context.Context, id int64, expected, next domain.LedgerStatus, patch map[string]interface{}) (bool, error)
}

// EventStore is the at-most-once gate for deposit crediting.
type EventStore interface {
	// InsertIfAbsent records a chain event unless its hash is already
	// known. Returns true when the row was inserted; false means a
	// duplicate delivery and the caller must short-circuit the credit.
	InsertIfAbsent(ctx context.Context, event *schema.ChainEvent) (bool, error)

	// Delete removes a recorded event so a later run can reclaim the
	// hash. Deleting an unknown hash is not an error.
	Delete(ctx context.Context, eventHash string) error
}

// CursorStore persists per-(user, network) reconciliation cursors so a missed
// run widens the lookback instead of losing deposits.
type CursorStore interface {
	// GetReconcileCursor returns the last fully processed incoming tx hash
	// for a (user, network) pair; empty string when none
	GetReconcileCursor(ctx context.Context, userID uint32, network domain.Network) (string, error)

	// SetReconcileCursor stores the last fully processed incoming tx hash
	SetReconcileCursor(ctx context.Context, userID uint32, network domain.Network, hash string) error
}
