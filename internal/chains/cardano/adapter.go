// Package cardano implements the extended-UTXO chain adapter for Cardano.
// Unlike the Bitcoin-family adapter it cannot price a transaction up front:
// fees depend on the serialized size under the live protocol parameters, so
// the builder computes them and a sweep sends everything minus fee as change
// to the treasury. Multi-asset bundles ride along with the lovelace
// automatically.
package cardano

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/echovl/cardano-go"
	"github.com/echovl/cardano-go/blockfrost"
	"github.com/echovl/cardano-go/crypto"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
)

const (
	hardened        = 0x80000000
	purposeCIP1852  = 1852
	coinTypeADA     = 1815
	roleExternal    = 0
	roleStaking     = 2
)

// Config holds everything the adapter needs at construction time.
type Config struct {
	// Entropy is the mnemonic entropy, not the BIP-39 seed; Cardano key
	// derivation consumes entropy directly.
	Entropy        []byte
	ProjectID      string
	Testnet        bool
	Native         domain.Asset
	TTLOffsetSlots uint64
	Guard          *chains.Guard
}

// Adapter is the Cardano chain adapter.
type Adapter struct {
	node       cardano.Node
	network    cardano.Network
	rootKey    crypto.XPrvKey
	native     domain.Asset
	ttlOffset  uint64
	guard      *chains.Guard
	masterKey  crypto.XPrvKey
	masterAddr cardano.Address
}

// New derives the treasury address and connects the blockfrost node.
func New(cfg Config) (*Adapter, error) {
	network := cardano.Mainnet
	if cfg.Testnet {
		network = cardano.Testnet
	}

	a := &Adapter{
		node:      blockfrost.NewNode(network, cfg.ProjectID),
		network:   network,
		rootKey:   crypto.NewXPrvKeyFromEntropy(cfg.Entropy, ""),
		native:    cfg.Native,
		ttlOffset: cfg.TTLOffsetSlots,
		guard:     cfg.Guard,
	}

	var err error
	a.masterKey, a.masterAddr, err = a.keyAt(chains.MasterIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: treasury key: %v", domain.ErrDerivation, err)
	}
	return a, nil
}

func (a *Adapter) Network() domain.Network { return domain.NetworkCardano }
func (a *Adapter) Family() domain.Family   { return domain.FamilyExtendedUTXO }

// MasterAddress returns the treasury address in bech32.
func (a *Adapter) MasterAddress() string { return a.masterAddr.Bech32() }

// keyAt derives the payment key and base address for one index along the
// CIP-1852 path m/1852'/1815'/0'/0/index, sharing a single staking key.
func (a *Adapter) keyAt(index uint32) (crypto.XPrvKey, cardano.Address, error) {
	accountKey := a.rootKey.
		Derive(hardened + purposeCIP1852).
		Derive(hardened + coinTypeADA).
		Derive(hardened)

	paymentKey := accountKey.Derive(roleExternal).Derive(index)
	stakeKey := accountKey.Derive(roleStaking).Derive(0)

	paymentCred, err := cardano.NewKeyCredential(paymentKey.PubKey())
	if err != nil {
		return nil, cardano.Address{}, fmt.Errorf("payment credential: %w", err)
	}
	stakeCred, err := cardano.NewKeyCredential(stakeKey.PubKey())
	if err != nil {
		return nil, cardano.Address{}, fmt.Errorf("stake credential: %w", err)
	}

	addr, err := cardano.NewBaseAddress(a.network, paymentCred, stakeCred)
	if err != nil {
		return nil, cardano.Address{}, fmt.Errorf("base address: %w", err)
	}
	return paymentKey, addr, nil
}

func (a *Adapter) DeriveAddress(_ context.Context, userID uint32) (string, error) {
	_, addr, err := a.keyAt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return addr.Bech32(), nil
}

func (a *Adapter) utxosAt(ctx context.Context, address string) ([]cardano.UTxO, error) {
	addr, err := cardano.NewAddress(address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	var utxos []cardano.UTxO
	err = a.guard.Do(ctx, func(context.Context) error {
		var err error
		utxos, err = a.node.UTxOs(addr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("utxos: %w", err)
	}
	return utxos, nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset domain.Asset) (*big.Int, error) {
	if !asset.Native() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, asset.Symbol)
	}

	utxos, err := a.utxosAt(ctx, address)
	if err != nil {
		return nil, err
	}

	total := big.NewInt(0)
	for _, u := range utxos {
		total.Add(total, big.NewInt(int64(u.Amount.Coin)))
	}
	return total, nil
}

// IncomingHistory reports the unspent outputs sitting on the address. The
// node interface has no per-address transaction log, but for a custodial
// child address every unswept deposit is still a UTxO there, which is
// exactly the set reconciliation needs to credit.
func (a *Adapter) IncomingHistory(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	utxos, err := a.utxosAt(ctx, address)
	if err != nil {
		return nil, err
	}

	out := make([]domain.IncomingTx, 0, len(utxos))
	for _, u := range utxos {
		out = append(out, domain.IncomingTx{
			Hash:   fmt.Sprintf("%s#%d", u.TxHash.String(), u.Index),
			To:     address,
			Asset:  a.native,
			Amount: big.NewInt(int64(u.Amount.Coin)),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Sweep drains every UTxO on the child address, assets included, into the
// treasury as builder change.
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

	utxos, err := a.utxosAt(ctx, childAddr.Bech32())
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	total := big.NewInt(0)
	for _, u := range utxos {
		total.Add(total, big.NewInt(int64(u.Amount.Coin)))
	}
	attempt.Detected = total

	if total.Sign() == 0 {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	hash, fee, err := a.submitDrain(ctx, utxos, childKey, a.masterAddr)
	if err != nil {
		// The builder refuses outputs below the protocol minimum; funds
		// that small stay parked until more deposits arrive.
		if isTooSmall(err) {
			attempt.Fee = fee
			attempt.Outcome = domain.SweepSkippedDust
			return attempt
		}
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Fee = fee
	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = hash
	return attempt
}

// txInputs converts the node's UTxO listing into the builder's input form.
func txInputs(utxos []cardano.UTxO) []*cardano.TxInput {
	inputs := make([]*cardano.TxInput, 0, len(utxos))
	for _, u := range utxos {
		inputs = append(inputs, cardano.NewTxInput(u.TxHash, uint(u.Index), u.Amount))
	}
	return inputs
}

func isTooSmall(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient") || strings.Contains(msg, "less than the minimum")
}

// submitDrain spends all given UTxOs and lets the change mechanism route
// everything minus fee to the destination.
func (a *Adapter) submitDrain(ctx context.Context, utxos []cardano.UTxO, key crypto.XPrvKey, dest cardano.Address) (string, *big.Int, error) {
	var hash string
	var fee *big.Int
	err := a.guard.Do(ctx, func(context.Context) error {
		pparams, err := a.node.ProtocolParams()
		if err != nil {
			return fmt.Errorf("protocol params: %w", err)
		}
		tip, err := a.node.Tip()
		if err != nil {
			return fmt.Errorf("tip: %w", err)
		}

		builder := cardano.NewTxBuilder(pparams)
		builder.AddInputs(txInputs(utxos)...)
		builder.SetTTL(tip.Slot + a.ttlOffset)
		builder.AddChangeIfNeeded(dest)
		builder.Sign(key.PrvKey())

		tx, err := builder.Build()
		if err != nil {
			return fmt.Errorf("build tx: %w", err)
		}

		fee = big.NewInt(int64(tx.Body.Fee))

		h, err := a.node.SubmitTx(tx)
		if err != nil {
			return fmt.Errorf("%w: submit: %v", domain.ErrProviderRejected, err)
		}
		hash = h.String()
		return nil
	})
	if err != nil {
		return "", fee, err
	}
	return hash, fee, nil
}

// Withdraw sends treasury lovelace to an external address.
func (a *Adapter) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	if !strings.EqualFold(req.Currency, a.native.Symbol) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, req.Currency)
	}

	dest, err := cardano.NewAddress(req.To)
	if err != nil {
		return "", fmt.Errorf("%w: destination: %v", domain.ErrProviderRejected, err)
	}

	utxos, err := a.utxosAt(ctx, a.masterAddr.Bech32())
	if err != nil {
		return "", err
	}

	total := big.NewInt(0)
	for _, u := range utxos {
		total.Add(total, big.NewInt(int64(u.Amount.Coin)))
	}
	if req.Amount.Cmp(total) > 0 {
		return "", domain.ErrInsufficientFunds
	}

	var hash string
	err = a.guard.Do(ctx, func(context.Context) error {
		pparams, err := a.node.ProtocolParams()
		if err != nil {
			return fmt.Errorf("protocol params: %w", err)
		}
		tip, err := a.node.Tip()
		if err != nil {
			return fmt.Errorf("tip: %w", err)
		}

		builder := cardano.NewTxBuilder(pparams)
		builder.AddInputs(txInputs(utxos)...)
		builder.AddOutputs(cardano.NewTxOutput(dest, cardano.NewValue(cardano.Coin(req.Amount.Uint64()))))
		builder.SetTTL(tip.Slot + a.ttlOffset)
		builder.AddChangeIfNeeded(a.masterAddr)
		builder.Sign(a.masterKey.PrvKey())

		tx, err := builder.Build()
		if err != nil {
			if isTooSmall(err) {
				return domain.ErrInsufficientFunds
			}
			return fmt.Errorf("build tx: %w", err)
		}

		h, err := a.node.SubmitTx(tx)
		if err != nil {
			return fmt.Errorf("%w: submit: %v", domain.ErrProviderRejected, err)
		}
		hash = h.String()
		return nil
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}

// TransactionStatus reports on a submitted transaction. The node interface
// cannot look a transaction up after submission, so acceptance is inferred:
// once the TTL window has certainly elapsed an unseen transaction would have
// expired, but without a lookup the state stays unknown and the verification
// job keeps the withdrawal pending until an operator resolves it.
func (a *Adapter) TransactionStatus(ctx context.Context, _ string) (domain.TxState, error) {
	return domain.TxStateUnknown, nil
}
