// Package engine is the custody engine's public surface: one facade over the
// address directory, the sweep coordinator, the withdrawal engine and the
// deposit reconciler. Callers that embed the engine in a larger service only
// need this package.
package engine

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/directory"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/reconcile"
	"github.com/helixpay/custody-engine/internal/store"
	"github.com/helixpay/custody-engine/internal/sweep"
	"github.com/helixpay/custody-engine/internal/withdraw"
)

// Engine bundles the custody operations behind one handle.
type Engine struct {
	registry   *chains.Registry
	wallets    store.WalletStore
	directory  directory.Directory
	sweeper    sweep.Coordinator
	withdrawer withdraw.Engine
	reconciler reconcile.Job
}

// New assembles the facade from already-wired components.
func New(
	registry *chains.Registry,
	wallets store.WalletStore,
	dir directory.Directory,
	sweeper sweep.Coordinator,
	withdrawer withdraw.Engine,
	reconciler reconcile.Job,
) *Engine {
	return &Engine{
		registry:   registry,
		wallets:    wallets,
		directory:  dir,
		sweeper:    sweeper,
		withdrawer: withdrawer,
		reconciler: reconciler,
	}
}

// EnsureWallets derives and records the user's deposit address on every
// configured chain. Idempotent.
func (e *Engine) EnsureWallets(ctx context.Context, userID uint32) (map[domain.Network]string, error) {
	return e.directory.EnsureWallets(ctx, userID)
}

// SweepUser moves one user's deposits across all chains into the treasury.
func (e *Engine) SweepUser(ctx context.Context, userID uint32) []domain.SweepAttempt {
	return e.sweeper.SweepUser(ctx, userID)
}

// SweepAll sweeps the whole wallet population.
func (e *Engine) SweepAll(ctx context.Context) error {
	return e.sweeper.SweepAll(ctx)
}

// Withdraw records a ledger-tracked withdrawal and submits it immediately.
// The returned receipt carries the on-chain hash when submission succeeded;
// on a transient submission fault the row stays queued for the verification
// job and the receipt is empty.
func (e *Engine) Withdraw(ctx context.Context, userID uint32, req domain.WithdrawalRequest) (domain.WithdrawalReceipt, error) {
	row, err := e.withdrawer.Request(ctx, userID, req)
	if err != nil {
		return domain.WithdrawalReceipt{}, err
	}

	if err := e.withdrawer.Submit(ctx, row); err != nil {
		logger.WarnCtx(ctx, "immediate withdrawal submission deferred to verification job",
			zap.Int64("ledger_id", row.ID),
			zap.Error(err),
		)
		return domain.WithdrawalReceipt{}, nil
	}

	receipt := domain.WithdrawalReceipt{}
	if row.ExternalRef != nil {
		receipt.TxHash = *row.ExternalRef
	}
	return receipt, nil
}

// ReconcileAll reconciles deposits for the whole wallet population.
func (e *Engine) ReconcileAll(ctx context.Context) error {
	return e.reconciler.ReconcileAll(ctx)
}

// ReconcileUser credits the user's unseen on-chain deposits.
func (e *Engine) ReconcileUser(ctx context.Context, userID uint32) error {
	return e.reconciler.ReconcileUser(ctx, userID)
}

// GetAllBalances reads the user's live on-chain balances across every chain
// and asset, keyed by network then symbol, in base units. A chain that fails
// to answer is logged and omitted rather than failing the whole read.
func (e *Engine) GetAllBalances(ctx context.Context, userID uint32) (map[domain.Network]map[string]*big.Int, error) {
	wallets, err := e.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances := make(map[domain.Network]map[string]*big.Int, len(wallets))
	for _, wallet := range wallets {
		network := domain.Network(wallet.Network)
		adapter, err := e.registry.Adapter(network)
		if err != nil {
			logger.WarnCtx(ctx, "wallet on unconfigured chain skipped",
				zap.Uint32("user_id", userID),
				zap.String("network", wallet.Network),
			)
			continue
		}

		perAsset := make(map[string]*big.Int)
		for _, asset := range e.registry.Assets(network) {
			balance, err := adapter.Balance(ctx, wallet.Address, asset)
			if err != nil {
				logger.ErrorCtx(ctx, err,
					zap.String("message", "balance read failed"),
					zap.Uint32("user_id", userID),
					zap.String("network", wallet.Network),
					zap.String("asset", asset.Symbol),
				)
				continue
			}
			perAsset[asset.Symbol] = balance
		}
		if len(perAsset) > 0 {
			balances[network] = perAsset
		}
	}
	return balances, nil
}
