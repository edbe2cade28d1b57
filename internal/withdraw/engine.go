// Package withdraw implements treasury withdrawals and the state machine for
// ledger-tracked ones.
//
// A ledger-tracked withdrawal starts life as a processing debit row. The only
// legal transitions are processing->pending, processing->failed,
// pending->success and pending->failed; every transition is a conditional
// update guarded by the expected current status, so two racing job runs
// cannot both apply one. retry_count increments only on processing->pending
// and gates resubmission of an already-submitted withdrawal.
package withdraw

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/payout"
	"github.com/helixpay/custody-engine/internal/store"
	"github.com/helixpay/custody-engine/internal/store/schema"
)

// Engine validates, records and drives withdrawals.
//
//go:generate mockgen -source=engine.go -destination=../mocks/withdraw.go -package=mocks -mock_names=Engine=MockWithdrawEngine
type Engine interface {
	// Withdraw validates the request and executes it immediately against
	// the chain, without ledger tracking. Used for operator-driven payouts.
	Withdraw(ctx context.Context, req domain.WithdrawalRequest) (domain.WithdrawalReceipt, error)

	// Request records a ledger-tracked withdrawal in processing state. The
	// verification job picks it up and submits it.
	Request(ctx context.Context, userID uint32, req domain.WithdrawalRequest) (*schema.LedgerTransaction, error)

	// Submit drives one processing row to pending or failed.
	Submit(ctx context.Context, row *schema.LedgerTransaction) error

	// Verify drives one pending row to success or failed, or leaves it
	// pending while the provider still reports it in flight.
	Verify(ctx context.Context, row *schema.LedgerTransaction) error
}

type engine struct {
	registry *chains.Registry
	provider payout.Provider
	ledger   store.LedgerStore
}

// New creates a withdrawal Engine.
func New(registry *chains.Registry, provider payout.Provider, ledger store.LedgerStore) Engine {
	return &engine{registry: registry, provider: provider, ledger: ledger}
}

// validate rejects non-positive amounts and unconfigured assets before
// anything touches a provider.
func (e *engine) validate(req domain.WithdrawalRequest) error {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrProviderRejected)
	}
	if req.To == "" {
		return fmt.Errorf("%w: empty destination", domain.ErrProviderRejected)
	}
	if _, err := e.registry.Asset(req.Network, req.Currency); err != nil {
		return err
	}
	return nil
}

func (e *engine) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (domain.WithdrawalReceipt, error) {
	if err := e.validate(req); err != nil {
		return domain.WithdrawalReceipt{}, err
	}

	txHash, err := e.provider.Submit(ctx, req)
	if err != nil {
		return domain.WithdrawalReceipt{}, err
	}

	logger.InfoCtx(ctx, "withdrawal submitted",
		zap.String("network", string(req.Network)),
		zap.String("currency", req.Currency),
		zap.String("tx_hash", txHash),
	)
	return domain.WithdrawalReceipt{TxHash: txHash}, nil
}

// withdrawalMetadata is the metadata payload of a ledger-tracked withdrawal.
type withdrawalMetadata struct {
	To             string  `json:"to"`
	DestinationTag *uint32 `json:"destination_tag,omitempty"`
}

func (e *engine) Request(ctx context.Context, userID uint32, req domain.WithdrawalRequest) (*schema.LedgerTransaction, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	asset, err := e.registry.Asset(req.Network, req.Currency)
	if err != nil {
		return nil, err
	}

	meta, err := json.Marshal(withdrawalMetadata{To: req.To, DestinationTag: req.DestinationTag})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	row := &schema.LedgerTransaction{
		UserID:     userID,
		Network:    string(req.Network),
		Currency:   req.Currency,
		Mode:       string(domain.LedgerModeDebit),
		EntityType: string(domain.LedgerEntityWithdrawal),
		Amount:     displayAmount(req.Amount, asset.Decimals),
		CoinAmount: req.Amount.String(),
		Status:     string(domain.LedgerStatusProcessing),
		Metadata:   datatypes.JSON(meta),
	}
	if err := e.ledger.Insert(ctx, row); err != nil {
		return nil, fmt.Errorf("record withdrawal: %w", err)
	}
	return row, nil
}

// displayAmount converts base units to display units.
func displayAmount(base *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(base, -int32(decimals))
}

func (e *engine) Submit(ctx context.Context, row *schema.LedgerTransaction) error {
	req, amount, err := e.requestFrom(row)
	if err != nil {
		return e.fail(ctx, row, domain.LedgerStatusProcessing, err)
	}

	treasury, err := e.provider.TreasuryBalance(ctx, req.Network, req.Currency)
	if err != nil {
		// An unreadable balance is a transient provider fault; the row
		// stays processing for the next run.
		return fmt.Errorf("treasury balance: %w", err)
	}
	if treasury.Cmp(amount) < 0 {
		return e.fail(ctx, row, domain.LedgerStatusProcessing, domain.ErrInsufficientFunds)
	}

	ref, err := e.provider.Submit(ctx, req)
	if err != nil {
		return e.fail(ctx, row, domain.LedgerStatusProcessing, err)
	}

	applied, err := e.ledger.UpdateStatus(ctx, row.ID, domain.LedgerStatusProcessing, domain.LedgerStatusPending, map[string]interface{}{
		"external_ref": ref,
		"retry_count":  gorm.Expr("retry_count + 1"),
	})
	if err != nil {
		return fmt.Errorf("transition to pending: %w", err)
	}
	if !applied {
		// Another run raced us past processing; its submission wins and
		// ours is a duplicate broadcast the chain will reject by nonce or
		// sequence reuse.
		logger.WarnCtx(ctx, "withdrawal already transitioned, skipping",
			zap.Int64("ledger_id", row.ID),
		)
		return nil
	}

	row.Status = string(domain.LedgerStatusPending)
	row.ExternalRef = &ref
	row.RetryCount++

	logger.InfoCtx(ctx, "withdrawal pending",
		zap.Int64("ledger_id", row.ID),
		zap.Uint32("user_id", row.UserID),
		zap.String("network", row.Network),
		zap.String("external_ref", ref),
	)
	return nil
}

func (e *engine) Verify(ctx context.Context, row *schema.LedgerTransaction) error {
	if row.ExternalRef == nil || *row.ExternalRef == "" {
		return e.fail(ctx, row, domain.LedgerStatusPending,
			fmt.Errorf("%w: pending withdrawal %d has no external ref", domain.ErrConsistencyViolation, row.ID))
	}

	state, err := e.provider.CheckStatus(ctx, domain.Network(row.Network), *row.ExternalRef)
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}

	switch state {
	case domain.TxStateConfirmed:
		if _, err := e.ledger.UpdateStatus(ctx, row.ID, domain.LedgerStatusPending, domain.LedgerStatusSuccess, nil); err != nil {
			return fmt.Errorf("transition to success: %w", err)
		}
		logger.InfoCtx(ctx, "withdrawal confirmed",
			zap.Int64("ledger_id", row.ID),
			zap.String("external_ref", *row.ExternalRef),
		)
	case domain.TxStateFailed:
		return e.fail(ctx, row, domain.LedgerStatusPending, domain.ErrProviderRejected)
	default:
		// Still in flight; the next verification run polls again.
	}
	return nil
}

// requestFrom reconstructs the withdrawal request from a ledger row.
func (e *engine) requestFrom(row *schema.LedgerTransaction) (domain.WithdrawalRequest, *big.Int, error) {
	var meta withdrawalMetadata
	if err := json.Unmarshal(row.Metadata, &meta); err != nil {
		return domain.WithdrawalRequest{}, nil, fmt.Errorf("%w: metadata: %v", domain.ErrConsistencyViolation, err)
	}

	amount, ok := new(big.Int).SetString(row.CoinAmount, 10)
	if !ok || amount.Sign() <= 0 {
		return domain.WithdrawalRequest{}, nil, fmt.Errorf("%w: coin amount %q", domain.ErrConsistencyViolation, row.CoinAmount)
	}

	return domain.WithdrawalRequest{
		Network:        domain.Network(row.Network),
		Currency:       row.Currency,
		To:             meta.To,
		Amount:         amount,
		DestinationTag: meta.DestinationTag,
	}, amount, nil
}

// fail applies the terminal failed transition and reports the cause.
func (e *engine) fail(ctx context.Context, row *schema.LedgerTransaction, from domain.LedgerStatus, cause error) error {
	if _, err := e.ledger.UpdateStatus(ctx, row.ID, from, domain.LedgerStatusFailed, nil); err != nil {
		return fmt.Errorf("transition to failed (cause %v): %w", cause, err)
	}
	logger.WarnCtx(ctx, "withdrawal failed",
		zap.Int64("ledger_id", row.ID),
		zap.Uint32("user_id", row.UserID),
		zap.String("network", row.Network),
		zap.Error(cause),
	)
	return nil
}
