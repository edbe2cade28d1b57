// Package verify runs the periodic withdrawal job: it submits freshly
// requested withdrawals and settles submitted ones against the chain.
package verify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/store"
	"github.com/helixpay/custody-engine/internal/withdraw"
)

// Job drains the withdrawal queue, one ledger row at a time.
//
//go:generate mockgen -source=job.go -destination=../mocks/verify.go -package=mocks -mock_names=Job=MockVerifyJob
type Job interface {
	// SubmitPending submits every processing row that has never been
	// submitted before.
	SubmitPending(ctx context.Context) error

	// VerifySubmitted checks every pending row against the chain and
	// finalizes the confirmed or failed ones.
	VerifySubmitted(ctx context.Context) error

	// Run executes both duties in order.
	Run(ctx context.Context) error
}

type job struct {
	ledger store.LedgerStore
	engine withdraw.Engine
}

// New creates a withdrawal verification Job.
func New(ledger store.LedgerStore, engine withdraw.Engine) Job {
	return &job{ledger: ledger, engine: engine}
}

func (j *job) SubmitPending(ctx context.Context) error {
	// retry_count 0 means the row was requested but never handed to a
	// provider; anything higher is already in flight or terminal.
	rows, err := j.ledger.FindWithdrawals(ctx, domain.LedgerStatusProcessing, 0)
	if err != nil {
		return fmt.Errorf("list processing withdrawals: %w", err)
	}

	for i := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		row := &rows[i]
		if err := j.engine.Submit(ctx, row); err != nil {
			// Row-level isolation: a transient fault on one row leaves
			// it processing for the next run and never blocks the rest.
			logger.ErrorCtx(ctx, err,
				zap.String("message", "withdrawal submission failed"),
				zap.Int64("ledger_id", row.ID),
				zap.String("network", row.Network),
			)
		}
	}
	return nil
}

func (j *job) VerifySubmitted(ctx context.Context) error {
	rows, err := j.ledger.FindWithdrawals(ctx, domain.LedgerStatusPending, -1)
	if err != nil {
		return fmt.Errorf("list pending withdrawals: %w", err)
	}

	for i := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		row := &rows[i]
		if err := j.engine.Verify(ctx, row); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "withdrawal verification failed"),
				zap.Int64("ledger_id", row.ID),
				zap.String("network", row.Network),
			)
		}
	}
	return nil
}

func (j *job) Run(ctx context.Context) error {
	if err := j.SubmitPending(ctx); err != nil {
		return err
	}
	return j.VerifySubmitted(ctx)
}
