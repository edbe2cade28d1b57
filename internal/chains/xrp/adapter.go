// Package xrp implements the reserve-ledger chain adapter for the XRP
// Ledger. Accounts must keep a base reserve locked, so a sweep can only move
// what sits above reserve plus a safety margin. The adapter also supports a
// shared-address mode where every user deposits to the treasury directly,
// distinguished by destination tag, and sweeping becomes a no-op.
package xrp

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/rubblelabs/ripple/crypto"
	"github.com/rubblelabs/ripple/data"
	"github.com/rubblelabs/ripple/websockets"
	"github.com/shopspring/decimal"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
)

const (
	// feeDrops is the flat transaction cost; the ledger escalates it only
	// under load and a sweep is never urgent enough to chase that.
	feeDrops    = 12
	dropsPerXRP = 1_000_000
)

// Config holds everything the adapter needs at construction time.
type Config struct {
	Seed   []byte
	WSURL  string
	Native domain.Asset
	// ReserveDrops is the base reserve the ledger forces an account to hold.
	ReserveDrops int64
	// MarginDrops stays behind on top of the reserve to absorb fee drift and
	// owner-count changes.
	MarginDrops int64
	// SharedAddress routes all deposits to the treasury address with
	// per-user destination tags.
	SharedAddress bool
	Guard         *chains.Guard
}

// Adapter is the XRP Ledger chain adapter.
type Adapter struct {
	remote *websockets.Remote
	key    crypto.Key
	cfg    Config

	masterAccount data.Account
	masterAddress string
}

// New derives the treasury account and opens the websocket connection. One
// family key covers every user: the ledger's key derivation takes an account
// sequence, so user N's account is the family key at sequence N.
func New(cfg Config) (*Adapter, error) {
	key, err := crypto.NewECDSAKey(cfg.Seed[:16])
	if err != nil {
		return nil, fmt.Errorf("%w: family key: %v", domain.ErrDerivation, err)
	}

	remote, err := websockets.NewRemote(cfg.WSURL)
	if err != nil {
		return nil, fmt.Errorf("xrp remote: %w", err)
	}

	a := &Adapter{remote: remote, key: key, cfg: cfg}

	a.masterAccount, a.masterAddress, err = a.accountAt(chains.MasterIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: treasury account: %v", domain.ErrDerivation, err)
	}
	return a, nil
}

func (a *Adapter) Network() domain.Network { return domain.NetworkXRP }
func (a *Adapter) Family() domain.Family   { return domain.FamilyReserveLedger }

// MasterAddress returns the treasury address.
func (a *Adapter) MasterAddress() string { return a.masterAddress }

func (a *Adapter) accountAt(index uint32) (data.Account, string, error) {
	seq := index
	hash, err := crypto.AccountId(a.key, &seq)
	if err != nil {
		return data.Account{}, "", err
	}

	account, err := data.NewAccountFromAddress(hash.String())
	if err != nil {
		return data.Account{}, "", err
	}
	return *account, hash.String(), nil
}

// DeriveAddress returns the deposit address for a user. In shared-address
// mode that is the treasury address qualified by a destination tag.
func (a *Adapter) DeriveAddress(_ context.Context, userID uint32) (string, error) {
	if a.cfg.SharedAddress {
		return fmt.Sprintf("%s?dt=%d", a.masterAddress, userID), nil
	}

	_, addr, err := a.accountAt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return addr, nil
}

// splitAddress strips an optional ?dt= destination-tag qualifier.
func splitAddress(address string) (string, *uint32, error) {
	base, tagPart, found := strings.Cut(address, "?dt=")
	if !found {
		return address, nil, nil
	}
	tag64, err := strconv.ParseUint(tagPart, 10, 32)
	if err != nil {
		return "", nil, fmt.Errorf("destination tag %q: %w", tagPart, err)
	}
	tag := uint32(tag64)
	return base, &tag, nil
}

func (a *Adapter) accountInfo(ctx context.Context, address string) (*websockets.AccountInfoResult, error) {
	account, err := data.NewAccountFromAddress(address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	var info *websockets.AccountInfoResult
	err = a.cfg.Guard.Do(ctx, func(context.Context) error {
		var err error
		info, err = a.remote.AccountInfo(*account)
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "actNotFound") {
			return nil, nil
		}
		return nil, fmt.Errorf("account info: %w", err)
	}
	return info, nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset domain.Asset) (*big.Int, error) {
	if !asset.Native() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, asset.Symbol)
	}

	base, _, err := splitAddress(address)
	if err != nil {
		return nil, err
	}

	info, err := a.accountInfo(ctx, base)
	if err != nil {
		return nil, err
	}
	if info == nil {
		// Unfunded accounts do not exist on the ledger yet.
		return big.NewInt(0), nil
	}
	return valueToDrops(info.AccountData.Balance)
}

// sweepable returns what a balance can move once the base reserve, the safety
// margin and the transaction fee stay behind.
func (a *Adapter) sweepable(balance *big.Int) *big.Int {
	locked := a.cfg.ReserveDrops + a.cfg.MarginDrops + feeDrops
	return new(big.Int).Sub(balance, big.NewInt(locked))
}

// valueToDrops converts a native ledger value to integer drops.
func valueToDrops(v *data.Value) (*big.Int, error) {
	if v == nil {
		return big.NewInt(0), nil
	}
	xrp, err := decimal.NewFromString(v.String())
	if err != nil {
		return nil, fmt.Errorf("%w: balance %q", domain.ErrConsistencyViolation, v.String())
	}
	return xrp.Mul(decimal.NewFromInt(dropsPerXRP)).BigInt(), nil
}

func (a *Adapter) IncomingHistory(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	base, tag, err := splitAddress(address)
	if err != nil {
		return nil, err
	}

	account, err := data.NewAccountFromAddress(base)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	var out []domain.IncomingTx
	err = a.cfg.Guard.Do(ctx, func(context.Context) error {
		for twm := range a.remote.AccountTx(*account, limit, -1, -1) {
			tx, ok := a.incomingPayment(twm, *account, tag, address)
			if !ok {
				continue
			}
			out = append(out, tx)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// incomingPayment maps one history entry onto a deposit record. The second
// return is false for anything that is not a successful native payment to
// the account; in shared-address mode only payments carrying the user's tag
// belong to that user.
func (a *Adapter) incomingPayment(twm *data.TransactionWithMetaData, account data.Account, tag *uint32, address string) (domain.IncomingTx, bool) {
	payment, ok := twm.Transaction.(*data.Payment)
	if !ok || !twm.MetaData.TransactionResult.Success() {
		return domain.IncomingTx{}, false
	}
	if !payment.Destination.Equals(account) {
		return domain.IncomingTx{}, false
	}
	if tag != nil && (payment.DestinationTag == nil || *payment.DestinationTag != *tag) {
		return domain.IncomingTx{}, false
	}

	delivered := twm.MetaData.DeliveredAmount
	if delivered == nil || !delivered.IsNative() {
		return domain.IncomingTx{}, false
	}
	drops, err := valueToDrops(delivered.Value)
	if err != nil || drops.Sign() == 0 {
		return domain.IncomingTx{}, false
	}

	return domain.IncomingTx{
		Hash:      twm.GetHash().String(),
		From:      payment.Account.String(),
		To:        address,
		Asset:     a.cfg.Native,
		Amount:    drops,
		BlockTime: twm.Date.Time(),
	}, true
}

// Sweep moves what a child holds above reserve plus margin to the treasury.
func (a *Adapter) Sweep(ctx context.Context, userID uint32, asset domain.Asset) domain.SweepAttempt {
	attempt := domain.SweepAttempt{
		Network: a.Network(),
		UserID:  userID,
		Asset:   asset,
	}

	if !asset.Native() {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, asset.Symbol)
		return attempt
	}

	// Shared-address deposits already sit on the treasury.
	if a.cfg.SharedAddress {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	childAccount, childAddr, err := a.accountAt(userID)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("%w: %v", domain.ErrDerivation, err)
		return attempt
	}

	info, err := a.accountInfo(ctx, childAddr)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	if info == nil {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	balance, err := valueToDrops(info.AccountData.Balance)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	attempt.Detected = balance
	attempt.Fee = big.NewInt(feeDrops)

	amount := a.sweepable(balance)
	if amount.Sign() <= 0 {
		attempt.Outcome = domain.SweepSkippedDust
		return attempt
	}

	seq := userID
	hash, err := a.pay(ctx, childAccount, &seq, *info.AccountData.Sequence, a.masterAccount, amount.Int64(), nil)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = hash
	return attempt
}

// Withdraw sends treasury funds to an external address, honoring an optional
// destination tag for exchange deposits.
func (a *Adapter) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	if !strings.EqualFold(req.Currency, a.cfg.Native.Symbol) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, req.Currency)
	}

	info, err := a.accountInfo(ctx, a.masterAddress)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", domain.ErrInsufficientFunds
	}

	balance, err := valueToDrops(info.AccountData.Balance)
	if err != nil {
		return "", err
	}

	// The treasury keeps its own reserve and margin untouchable too.
	available := a.sweepable(balance)
	if req.Amount.Cmp(available) > 0 {
		return "", domain.ErrInsufficientFunds
	}

	dest, err := data.NewAccountFromAddress(req.To)
	if err != nil {
		return "", fmt.Errorf("%w: destination: %v", domain.ErrProviderRejected, err)
	}

	masterSeq := chains.MasterIndex
	return a.pay(ctx, a.masterAccount, &masterSeq, *info.AccountData.Sequence, *dest, req.Amount.Int64(), req.DestinationTag)
}

func (a *Adapter) TransactionStatus(ctx context.Context, txHash string) (domain.TxState, error) {
	hash, err := data.NewHash256(txHash)
	if err != nil {
		return domain.TxStateUnknown, fmt.Errorf("parse hash: %w", err)
	}

	state := domain.TxStateUnknown
	err = a.cfg.Guard.Do(ctx, func(context.Context) error {
		res, err := a.remote.Tx(*hash)
		if err != nil {
			if strings.Contains(err.Error(), "txnNotFound") {
				state = domain.TxStatePending
				return nil
			}
			return fmt.Errorf("tx lookup: %w", err)
		}

		switch {
		case !res.Validated:
			state = domain.TxStatePending
		case res.MetaData.TransactionResult.Success():
			state = domain.TxStateConfirmed
		default:
			state = domain.TxStateFailed
		}
		return nil
	})
	if err != nil {
		return domain.TxStateUnknown, err
	}
	return state, nil
}

// pay signs and submits one native payment. keySeq selects which account of
// the family key signs; txSeq is that account's on-ledger sequence.
func (a *Adapter) pay(ctx context.Context, from data.Account, keySeq *uint32, txSeq uint32, to data.Account, drops int64, tag *uint32) (string, error) {
	amount, err := data.NewAmount(drops)
	if err != nil {
		return "", fmt.Errorf("amount: %w", err)
	}
	fee, err := data.NewNativeValue(feeDrops)
	if err != nil {
		return "", fmt.Errorf("fee: %w", err)
	}

	payment := &data.Payment{
		TxBase: data.TxBase{
			TransactionType: data.PAYMENT,
			Account:         from,
			Sequence:        txSeq,
			Fee:             *fee,
		},
		Destination:    to,
		Amount:         *amount,
		DestinationTag: tag,
	}

	if err := data.Sign(payment, a.key, keySeq); err != nil {
		return "", fmt.Errorf("sign payment: %w", err)
	}

	var hash string
	err = a.cfg.Guard.Do(ctx, func(context.Context) error {
		res, err := a.remote.Submit(payment)
		if err != nil {
			return fmt.Errorf("%w: submit: %v", domain.ErrProviderRejected, err)
		}
		if !res.EngineResult.Success() {
			return fmt.Errorf("%w: %s", domain.ErrProviderRejected, res.EngineResultMessage)
		}
		hash = payment.GetHash().String()
		return nil
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}
