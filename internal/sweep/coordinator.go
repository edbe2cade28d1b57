// Package sweep consolidates user deposits into the treasury. Every (chain,
// asset) pair runs inside its own failure boundary: a panicking or erroring
// adapter marks that pair failed and the remaining pairs still run. There is
// deliberately no rollback across chains; sweeps are independent,
// non-transactional moves.
package sweep

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/helixpay/custody-engine/internal/adapter"
	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/store"
)

// Coordinator runs sweeps for one user or the whole population.
//
//go:generate mockgen -source=coordinator.go -destination=../mocks/sweep.go -package=mocks -mock_names=Coordinator=MockSweepCoordinator
type Coordinator interface {
	// SweepUser attempts every configured (network, asset) pair for one
	// user and reports each attempt. It never returns an error: per-pair
	// failures are carried in the attempts.
	SweepUser(ctx context.Context, userID uint32) []domain.SweepAttempt

	// SweepAll sweeps every user that owns at least one wallet, bounded by
	// the worker pool.
	SweepAll(ctx context.Context) error
}

type coordinator struct {
	registry  *chains.Registry
	wallets   store.WalletStore
	clock     adapter.Clock
	poolSize  int
	queueSize int
}

// New creates a sweep Coordinator. poolSize bounds SweepAll concurrency and
// queueSize bounds how many users can wait for a worker.
func New(registry *chains.Registry, wallets store.WalletStore, clock adapter.Clock, poolSize, queueSize int) Coordinator {
	if poolSize <= 0 {
		poolSize = 1
	}
	return &coordinator{registry: registry, wallets: wallets, clock: clock, poolSize: poolSize, queueSize: queueSize}
}

func (c *coordinator) SweepUser(ctx context.Context, userID uint32) []domain.SweepAttempt {
	var attempts []domain.SweepAttempt
	for _, network := range c.registry.Networks() {
		adapter, err := c.registry.Adapter(network)
		if err != nil {
			continue
		}
		for _, asset := range c.registry.Assets(network) {
			attempt := c.sweepOne(ctx, adapter, userID, asset)
			attempts = append(attempts, attempt)
			c.record(ctx, attempt)
		}
	}
	return attempts
}

// sweepOne runs a single (network, asset) sweep behind a panic guard.
func (c *coordinator) sweepOne(ctx context.Context, adapter chains.Adapter, userID uint32, asset domain.Asset) (attempt domain.SweepAttempt) {
	defer func() {
		if r := recover(); r != nil {
			attempt = domain.SweepAttempt{
				Network: adapter.Network(),
				UserID:  userID,
				Asset:   asset,
				Outcome: domain.SweepFailed,
				Err:     fmt.Errorf("sweep panic: %v", r),
			}
		}
	}()
	return adapter.Sweep(ctx, userID, asset)
}

func (c *coordinator) record(ctx context.Context, attempt domain.SweepAttempt) {
	fields := []zap.Field{
		zap.String("network", string(attempt.Network)),
		zap.Uint32("user_id", attempt.UserID),
		zap.String("asset", attempt.Asset.Symbol),
		zap.String("outcome", string(attempt.Outcome)),
	}
	if attempt.Detected != nil {
		fields = append(fields, zap.String("detected", attempt.Detected.String()))
	}
	if attempt.TxHash != "" {
		fields = append(fields, zap.String("tx_hash", attempt.TxHash))
	}

	switch attempt.Outcome {
	case domain.SweepFailed:
		logger.ErrorCtx(ctx, attempt.Err, append(fields, zap.String("message", "sweep failed"))...)
	case domain.SweepSuccess:
		logger.InfoCtx(ctx, "sweep completed", fields...)
	default:
		logger.Debug("sweep skipped", fields...)
	}
}

func (c *coordinator) SweepAll(ctx context.Context) error {
	start := c.clock.Now()
	userIDs, err := c.wallets.DistinctUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	pool := pond.NewPool(c.poolSize,
		pond.WithQueueSize(c.queueSize),
		pond.WithContext(ctx),
	)

	for _, userID := range userIDs {
		id := userID
		pool.Submit(func() {
			c.SweepUser(ctx, id)
		})
	}
	pool.StopAndWait()

	logger.InfoCtx(ctx, "population sweep finished",
		zap.Int("users", len(userIDs)),
		zap.Duration("took", c.clock.Since(start)),
	)
	return nil
}
