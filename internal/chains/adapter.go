// Package chains defines the capability contract every supported blockchain
// implements, plus the registry the jobs resolve adapters through. Chain
// specific fee, dust and reserve policy lives inside each adapter package,
// never in orchestration code.
package chains

import (
	"context"
	"math/big"

	"github.com/helixpay/custody-engine/internal/domain"
)

// MasterIndex is the derivation index of the treasury wallet on every chain.
// Application user IDs start at 1, so index 0 is never a deposit address.
const MasterIndex uint32 = 0

// Adapter is the capability set one chain exposes to the engine.
//
//go:generate mockgen -source=adapter.go -destination=../mocks/adapter.go -package=mocks -mock_names=Adapter=MockAdapter
type Adapter interface {
	// Network returns the chain this adapter serves
	Network() domain.Network

	// Family returns the ledger model of the chain
	Family() domain.Family

	// MasterAddress returns the treasury address funds are swept to and
	// withdrawn from
	MasterAddress() string

	// DeriveAddress derives the deposit address for a user. It is a pure
	// function of the master seed and the user ID; calling it twice always
	// yields the same address.
	DeriveAddress(ctx context.Context, userID uint32) (string, error)

	// Balance returns the confirmed balance of an address for one asset,
	// in base units
	Balance(ctx context.Context, address string, asset domain.Asset) (*big.Int, error)

	// IncomingHistory returns up to limit confirmed incoming transfers to
	// an address, most recent first
	IncomingHistory(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error)

	// Sweep moves a user's balance of one asset to the treasury. Provider
	// failures are reported through the attempt outcome, never as a panic
	// or escaping error; empty and dust balances are normal skips.
	Sweep(ctx context.Context, userID uint32, asset domain.Asset) domain.SweepAttempt

	// Withdraw sends treasury funds to an external address and returns the
	// transaction hash
	Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error)

	// TransactionStatus reports the on-chain lifecycle of a broadcast
	// transaction
	TransactionStatus(ctx context.Context, txHash string) (domain.TxState, error)
}
