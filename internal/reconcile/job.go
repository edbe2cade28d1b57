// Package reconcile diffs on-chain activity against the internal ledger and
// credits deposits at most once.
//
// The credit path is deliberately single-file and sequential: the unique
// chain-event insert is the gate, and everything after it only runs for the
// one caller that won the insert. A crashed run re-credits nothing on replay
// because both the event hash and the ledger external_ref are unique.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/notify"
	"github.com/helixpay/custody-engine/internal/rates"
	"github.com/helixpay/custody-engine/internal/store"
	"github.com/helixpay/custody-engine/internal/store/schema"
)

// widenFactor multiplies the lookback when the persisted cursor is not in the
// fetched window, meaning runs were missed and deposits may sit deeper.
const widenFactor = 5

// Job reconciles users' on-chain deposits into the ledger.
//
//go:generate mockgen -source=job.go -destination=../mocks/reconcile.go -package=mocks -mock_names=Job=MockReconcileJob
type Job interface {
	// ReconcileUser scans every chain the user has a wallet on and credits
	// unseen deposits. Per-chain errors are logged and isolated.
	ReconcileUser(ctx context.Context, userID uint32) error

	// ReconcileAll runs ReconcileUser over the whole wallet population.
	ReconcileAll(ctx context.Context) error
}

type job struct {
	registry *chains.Registry
	wallets  store.WalletStore
	ledger   store.LedgerStore
	events   store.EventStore
	cursors  store.CursorStore
	oracle   rates.Oracle
	sink     notify.Sink
	// window is the per-chain incoming-history lookback
	window        int
	localCurrency string
}

// Config wires the job's collaborators.
type Config struct {
	Registry      *chains.Registry
	Wallets       store.WalletStore
	Ledger        store.LedgerStore
	Events        store.EventStore
	Cursors       store.CursorStore
	Oracle        rates.Oracle
	Sink          notify.Sink
	Window        int
	LocalCurrency string
}

// New creates a reconciliation Job.
func New(cfg Config) Job {
	if cfg.Window <= 0 {
		cfg.Window = 10
	}
	return &job{
		registry:      cfg.Registry,
		wallets:       cfg.Wallets,
		ledger:        cfg.Ledger,
		events:        cfg.Events,
		cursors:       cfg.Cursors,
		oracle:        cfg.Oracle,
		sink:          cfg.Sink,
		window:        cfg.Window,
		localCurrency: cfg.LocalCurrency,
	}
}

func (j *job) ReconcileUser(ctx context.Context, userID uint32) error {
	var firstErr error
	for _, network := range j.registry.Networks() {
		if err := j.reconcileChain(ctx, userID, network); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "chain reconciliation failed"),
				zap.Uint32("user_id", userID),
				zap.String("network", string(network)),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", network, err)
			}
		}
	}
	return firstErr
}

func (j *job) reconcileChain(ctx context.Context, userID uint32, network domain.Network) error {
	wallet, err := j.wallets.FindByUserAndNetwork(ctx, userID, network)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return nil
		}
		return fmt.Errorf("find wallet: %w", err)
	}

	adapter, err := j.registry.Adapter(network)
	if err != nil {
		return err
	}

	incoming, err := j.fetchWindow(ctx, adapter, userID, network, wallet.Address)
	if err != nil {
		return fmt.Errorf("incoming history: %w", err)
	}
	if len(incoming) == 0 {
		return nil
	}

	// Bulk-diff against the ledger first; the per-credit event gate still
	// guards the survivors against concurrent runs.
	refs := make([]string, 0, len(incoming))
	for _, tx := range incoming {
		refs = append(refs, tx.Hash)
	}
	seen, err := j.ledger.ExistingRefs(ctx, userID, network, refs)
	if err != nil {
		return fmt.Errorf("existing refs: %w", err)
	}

	for _, tx := range incoming {
		if _, ok := seen[tx.Hash]; ok {
			continue
		}
		if err := j.credit(ctx, userID, network, tx); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "deposit credit failed"),
				zap.Uint32("user_id", userID),
				zap.String("network", string(network)),
				zap.String("tx_hash", tx.Hash),
			)
		}
	}

	// Newest-first ordering means index 0 is the high-water mark.
	if err := j.cursors.SetReconcileCursor(ctx, userID, network, incoming[0].Hash); err != nil {
		logger.WarnCtx(ctx, "cursor update failed",
			zap.Uint32("user_id", userID),
			zap.String("network", string(network)),
			zap.Error(err),
		)
	}
	return nil
}

// fetchWindow reads the recent incoming transfers, widening the window when
// the persisted cursor fell out of it.
func (j *job) fetchWindow(ctx context.Context, adapter chains.Adapter, userID uint32, network domain.Network, address string) ([]domain.IncomingTx, error) {
	incoming, err := adapter.IncomingHistory(ctx, address, j.window)
	if err != nil {
		return nil, err
	}
	if len(incoming) == 0 {
		// Nothing to credit; widening an empty answer gains nothing.
		return nil, nil
	}

	cursor, err := j.cursors.GetReconcileCursor(ctx, userID, network)
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	if cursor == "" || containsHash(incoming, cursor) {
		return incoming, nil
	}

	logger.InfoCtx(ctx, "cursor outside window, widening lookback",
		zap.Uint32("user_id", userID),
		zap.String("network", string(network)),
	)
	return adapter.IncomingHistory(ctx, address, j.window*widenFactor)
}

func containsHash(txs []domain.IncomingTx, hash string) bool {
	for _, tx := range txs {
		if tx.Hash == hash {
			return true
		}
	}
	return false
}

// credit records one deposit: event gate, wallet resolution, rate
// conversion, ledger insert, notification.
func (j *job) credit(ctx context.Context, userID uint32, network domain.Network, tx domain.IncomingTx) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	inserted, err := j.events.InsertIfAbsent(ctx, &schema.ChainEvent{
		EventHash: tx.Hash,
		UserID:    userID,
		Network:   string(network),
		Payload:   datatypes.JSON(payload),
	})
	if err != nil {
		return fmt.Errorf("event gate: %w", err)
	}
	if !inserted {
		// Another run (or a duplicate trigger) holds this hash; the whole
		// credit short-circuits.
		return nil
	}

	// Past the gate every failure must release the event row again:
	// a surviving row would make each later run short-circuit on the
	// duplicate check and strand the deposit for good.
	wallet, err := j.wallets.FindByAddress(ctx, tx.To)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return j.releaseEvent(ctx, tx.Hash,
				fmt.Errorf("%w: deposit address %s not in directory", domain.ErrConsistencyViolation, tx.To))
		}
		return j.releaseEvent(ctx, tx.Hash, fmt.Errorf("resolve wallet: %w", err))
	}
	if wallet.UserID != userID {
		return j.releaseEvent(ctx, tx.Hash,
			fmt.Errorf("%w: address %s belongs to user %d, reconciling %d",
				domain.ErrConsistencyViolation, tx.To, wallet.UserID, userID))
	}

	localAmount, err := j.localValue(ctx, tx)
	if err != nil {
		return j.releaseEvent(ctx, tx.Hash, err)
	}

	ref := tx.Hash
	inserted, err = j.ledger.InsertCreditIfAbsent(ctx, &schema.LedgerTransaction{
		UserID:      userID,
		Network:     string(network),
		Currency:    tx.Asset.Symbol,
		Mode:        string(domain.LedgerModeCredit),
		EntityType:  string(domain.LedgerEntityDeposit),
		Amount:      localAmount,
		CoinAmount:  tx.Amount.String(),
		Status:      string(domain.LedgerStatusSuccess),
		ExternalRef: &ref,
		Metadata:    datatypes.JSON(payload),
	})
	if err != nil {
		return j.releaseEvent(ctx, tx.Hash, fmt.Errorf("ledger credit: %w", err))
	}
	if !inserted {
		return nil
	}

	logger.InfoCtx(ctx, "deposit credited",
		zap.Uint32("user_id", userID),
		zap.String("network", string(network)),
		zap.String("asset", tx.Asset.Symbol),
		zap.String("coin_amount", tx.Amount.String()),
		zap.String("tx_hash", tx.Hash),
	)

	// Notification failures never undo or retry the credit.
	if err := j.sink.NotifyDeposit(ctx, notify.Deposit{
		UserID:     userID,
		Network:    network,
		Symbol:     tx.Asset.Symbol,
		Amount:     localAmount,
		CoinAmount: tx.Amount.String(),
		TxHash:     tx.Hash,
	}); err != nil {
		logger.WarnCtx(ctx, "deposit notification failed",
			zap.Uint32("user_id", userID),
			zap.String("tx_hash", tx.Hash),
			zap.Error(err),
		)
	}
	return nil
}

// releaseEvent deletes the gate row taken for an event whose credit did not
// complete, then returns the causing error. When the delete itself fails the
// hash stays claimed and the deposit needs an operator to clear the row.
func (j *job) releaseEvent(ctx context.Context, eventHash string, cause error) error {
	if err := j.events.Delete(ctx, eventHash); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "event gate release failed, deposit stuck until row is cleared"),
			zap.String("tx_hash", eventHash),
		)
	}
	return cause
}

// localValue converts the on-chain amount into local currency through USD.
func (j *job) localValue(ctx context.Context, tx domain.IncomingTx) (decimal.Decimal, error) {
	spot, err := j.oracle.GetSpotPriceUSD(ctx, tx.Asset.Symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("spot price: %w", err)
	}
	rate, err := j.oracle.GetActiveRate(ctx, j.localCurrency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("active rate: %w", err)
	}

	display := decimal.NewFromBigInt(tx.Amount, -int32(tx.Asset.Decimals))
	return display.Mul(spot).Mul(rate), nil
}

func (j *job) ReconcileAll(ctx context.Context) error {
	userIDs, err := j.wallets.DistinctUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		// Per-user isolation: ReconcileUser already swallows per-chain
		// errors, so only context cancellation stops the scan.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = j.ReconcileUser(ctx, userID)
	}
	return nil
}
