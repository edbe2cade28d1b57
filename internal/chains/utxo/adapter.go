// Package utxo implements the chain adapter shared by Bitcoin and Dogecoin.
// Both are legacy P2PKH chains here; they differ only in network parameters,
// derivation coin type, dust threshold and fee scale, so one adapter serves
// both with different configs.
package utxo

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
)

// Conservative legacy P2PKH size model: 148 vbytes per input, 34 per output,
// 10 of fixed overhead.
const (
	inputVBytes    = 148
	outputVBytes   = 34
	overheadVBytes = 10
)

// Config holds everything the adapter needs at construction time.
type Config struct {
	Network  domain.Network
	CoinType uint32
	Params   *chaincfg.Params
	Seed     []byte
	Native   domain.Asset
	Gateway  Gateway
	// DustLimit is the smallest economical output, in base units.
	DustLimit int64
	// FallbackFeeRate applies when the gateway estimate is unavailable,
	// in base units per vbyte.
	FallbackFeeRate int64
	Guard           *chains.Guard
}

// Adapter is the UTXO chain adapter.
type Adapter struct {
	cfg        Config
	masterAddr btcutil.Address
	masterKey  *btcec.PrivateKey
}

// New materializes the treasury key and its P2PKH address.
func New(cfg Config) (*Adapter, error) {
	a := &Adapter{cfg: cfg}

	var err error
	a.masterKey, a.masterAddr, err = a.keyAt(chains.MasterIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: treasury key: %v", domain.ErrDerivation, err)
	}
	return a, nil
}

func (a *Adapter) Network() domain.Network { return a.cfg.Network }
func (a *Adapter) Family() domain.Family   { return domain.FamilyUTXO }

// MasterAddress returns the treasury address.
func (a *Adapter) MasterAddress() string { return a.masterAddr.EncodeAddress() }

func (a *Adapter) keyAt(index uint32) (*btcec.PrivateKey, btcutil.Address, error) {
	key, err := chains.DeriveKey(a.cfg.Seed, chains.BIP44Path(a.cfg.CoinType, index), a.cfg.Params)
	if err != nil {
		return nil, nil, err
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, nil, err
	}

	addr, err := key.Address(a.cfg.Params)
	if err != nil {
		return nil, nil, err
	}
	return priv, addr, nil
}

func (a *Adapter) DeriveAddress(_ context.Context, userID uint32) (string, error) {
	_, addr, err := a.keyAt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return addr.EncodeAddress(), nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset domain.Asset) (*big.Int, error) {
	if !asset.Native() || !strings.EqualFold(asset.Symbol, a.cfg.Native.Symbol) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, asset.Symbol)
	}

	utxos, err := a.spendable(ctx, address)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, u := range utxos {
		total += u.Value
	}
	return big.NewInt(total), nil
}

// spendable lists the confirmed UTXOs on an address.
func (a *Adapter) spendable(ctx context.Context, address string) ([]UTXO, error) {
	var utxos []UTXO
	err := a.cfg.Guard.Do(ctx, func(ctx context.Context) error {
		all, err := a.cfg.Gateway.ListUnspent(ctx, address)
		if err != nil {
			return err
		}
		for _, u := range all {
			if u.Confirmed {
				utxos = append(utxos, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utxos, nil
}

func (a *Adapter) IncomingHistory(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	var txs []AddressTx
	err := a.cfg.Guard.Do(ctx, func(ctx context.Context) error {
		var err error
		txs, err = a.cfg.Gateway.AddressTxs(ctx, address)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.IncomingTx, 0, len(txs))
	for _, tx := range txs {
		if !tx.Confirmed {
			continue
		}
		// A transaction this address helped fund is a sweep or spend, not a
		// deposit, even when change comes back.
		if spentBy(tx.Inputs, address) {
			continue
		}

		var credited int64
		for _, o := range tx.Outputs {
			if o.Address == address {
				credited += o.Value
			}
		}
		if credited == 0 {
			continue
		}

		from := ""
		if len(tx.Inputs) > 0 {
			from = tx.Inputs[0]
		}
		out = append(out, domain.IncomingTx{
			Hash:      tx.TxID,
			From:      from,
			To:        address,
			Asset:     a.cfg.Native,
			Amount:    big.NewInt(credited),
			BlockTime: tx.BlockTime,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func spentBy(inputs []string, address string) bool {
	for _, in := range inputs {
		if in == address {
			return true
		}
	}
	return false
}

// Sweep drains every confirmed UTXO on the child address into a single
// output to the treasury. The fee comes off the top; if the remainder would
// not clear the dust threshold the sweep is skipped and the funds wait for
// more deposits.
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

	childKey, childAddr, err := a.keyAt(userID)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("%w: %v", domain.ErrDerivation, err)
		return attempt
	}

	utxos, err := a.spendable(ctx, childAddr.EncodeAddress())
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	var total int64
	for _, u := range utxos {
		total += u.Value
	}
	attempt.Detected = big.NewInt(total)

	if total == 0 {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	rate := a.feeRate(ctx)
	size := txSize(len(utxos), 1)
	fee := size * rate
	attempt.Fee = big.NewInt(fee)

	amount := total - fee
	if amount <= a.cfg.DustLimit {
		attempt.Outcome = domain.SweepSkippedDust
		return attempt
	}

	rawHex, err := a.buildAndSign(utxos, childKey, childAddr, []txOut{{addr: a.masterAddr, value: amount}})
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	txid, err := a.broadcast(ctx, rawHex)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = txid
	return attempt
}

// Withdraw spends treasury UTXOs to an external address, returning change to
// the treasury unless it would be dust, in which case it is left to the
// miners.
func (a *Adapter) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	if !strings.EqualFold(req.Currency, a.cfg.Native.Symbol) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, req.Currency)
	}
	if !req.Amount.IsInt64() {
		return "", fmt.Errorf("%w: amount out of range", domain.ErrInsufficientFunds)
	}
	amount := req.Amount.Int64()

	toAddr, err := btcutil.DecodeAddress(req.To, a.cfg.Params)
	if err != nil {
		return "", fmt.Errorf("%w: destination: %v", domain.ErrProviderRejected, err)
	}

	utxos, err := a.spendable(ctx, a.masterAddr.EncodeAddress())
	if err != nil {
		return "", err
	}
	// Largest-first keeps the input count, and with it the fee, down.
	sort.Slice(utxos, func(i, j int) bool { return utxos[i].Value > utxos[j].Value })

	rate := a.feeRate(ctx)

	var selected []UTXO
	var inTotal int64
	var fee int64
	funded := false
	for _, u := range utxos {
		selected = append(selected, u)
		inTotal += u.Value
		fee = txSize(len(selected), 2) * rate
		if inTotal >= amount+fee {
			funded = true
			break
		}
	}
	if !funded {
		return "", domain.ErrInsufficientFunds
	}

	outs := []txOut{{addr: toAddr, value: amount}}
	change := inTotal - amount - fee
	if change > a.cfg.DustLimit {
		outs = append(outs, txOut{addr: a.masterAddr, value: change})
	}

	rawHex, err := a.buildAndSign(selected, a.masterKey, a.masterAddr, outs)
	if err != nil {
		return "", err
	}
	return a.broadcast(ctx, rawHex)
}

func (a *Adapter) TransactionStatus(ctx context.Context, txHash string) (domain.TxState, error) {
	state := domain.TxStateUnknown
	err := a.cfg.Guard.Do(ctx, func(ctx context.Context) error {
		confirmed, found, err := a.cfg.Gateway.TxStatus(ctx, txHash)
		if err != nil {
			return err
		}
		switch {
		case confirmed:
			state = domain.TxStateConfirmed
		case found:
			state = domain.TxStatePending
		default:
			// Not in the mempool or any block yet; broadcast may still be
			// propagating.
			state = domain.TxStatePending
		}
		return nil
	})
	if err != nil {
		return domain.TxStateUnknown, err
	}
	return state, nil
}

func txSize(inputs, outputs int) int64 {
	return int64(inputs*inputVBytes + outputs*outputVBytes + overheadVBytes)
}

func (a *Adapter) feeRate(ctx context.Context) int64 {
	var rate int64
	err := a.cfg.Guard.Do(ctx, func(ctx context.Context) error {
		var err error
		rate, err = a.cfg.Gateway.FeeRate(ctx)
		return err
	})
	if err != nil || rate <= 0 {
		logger.Warn("fee estimate unavailable, using fallback rate",
			zap.String("network", string(a.cfg.Network)),
			zap.Int64("fallback", a.cfg.FallbackFeeRate),
		)
		return a.cfg.FallbackFeeRate
	}
	return rate
}

type txOut struct {
	addr  btcutil.Address
	value int64
}

// buildAndSign assembles a legacy transaction spending the given UTXOs, all
// of which must sit on the P2PKH address owned by key.
func (a *Adapter) buildAndSign(utxos []UTXO, key *btcec.PrivateKey, owner btcutil.Address, outs []txOut) (string, error) {
	tx := wire.NewMsgTx(wire.TxVersion)

	for _, u := range utxos {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return "", fmt.Errorf("parse txid: %w", err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, u.Vout), nil, nil))
	}

	for _, o := range outs {
		script, err := txscript.PayToAddrScript(o.addr)
		if err != nil {
			return "", fmt.Errorf("output script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(o.value, script))
	}

	prevScript, err := txscript.PayToAddrScript(owner)
	if err != nil {
		return "", fmt.Errorf("prev script: %w", err)
	}

	for i := range tx.TxIn {
		sigScript, err := txscript.SignatureScript(tx, i, prevScript, txscript.SigHashAll, key, true)
		if err != nil {
			return "", fmt.Errorf("sign input %d: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func (a *Adapter) broadcast(ctx context.Context, rawHex string) (string, error) {
	var txid string
	err := a.cfg.Guard.Do(ctx, func(ctx context.Context) error {
		var err error
		txid, err = a.cfg.Gateway.Broadcast(ctx, rawHex)
		return err
	})
	if err != nil {
		return "", err
	}
	return txid, nil
}
