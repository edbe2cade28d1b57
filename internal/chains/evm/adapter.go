// Package evm implements the account-model chain adapter for the EVM family.
// Sweeping a token is a two-phase, non-atomic operation: a native gas top-up
// from the treasury may land while the following token transfer fails,
// stranding the top-up on the child address. That outcome is logged and left
// for the next sweep pass, never retried inside the same call.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/seed"
)

const (
	coinTypeETH   = 60
	nativeGasUnit = 21000
)

// Config holds everything the adapter needs at construction time.
type Config struct {
	Seed          []byte
	RPCURL        string
	ChainID       *big.Int
	Native        domain.Asset
	Tokens        []domain.Asset
	TokenGasLimit uint64
	TopUpWei      *big.Int
	Explorer      Explorer
	Guard         *chains.Guard
}

// Adapter is the EVM chain adapter.
type Adapter struct {
	client        *ethclient.Client
	chainID       *big.Int
	masterSeed    []byte
	native        domain.Asset
	tokens        map[string]domain.Asset
	tokenGasLimit uint64
	topUpWei      *big.Int
	explorer      Explorer
	guard         *chains.Guard

	masterKey  *ecdsa.PrivateKey
	masterAddr common.Address
}

// New dials the RPC endpoint and materializes the treasury key once. The
// treasury key stays resident because every sweep needs it; child keys are
// derived per call and discarded.
func New(cfg Config) (*Adapter, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("eth dial: %w", err)
	}

	tokens := make(map[string]domain.Asset, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[strings.ToUpper(t.Symbol)] = t
	}

	a := &Adapter{
		client:        client,
		chainID:       cfg.ChainID,
		masterSeed:    cfg.Seed,
		native:        cfg.Native,
		tokens:        tokens,
		tokenGasLimit: cfg.TokenGasLimit,
		topUpWei:      cfg.TopUpWei,
		explorer:      cfg.Explorer,
		guard:         cfg.Guard,
	}

	var err2 error
	a.masterKey, a.masterAddr, err2 = a.keyAt(chains.MasterIndex)
	if err2 != nil {
		return nil, fmt.Errorf("%w: treasury key: %v", domain.ErrDerivation, err2)
	}
	return a, nil
}

func (a *Adapter) Network() domain.Network { return domain.NetworkEthereum }
func (a *Adapter) Family() domain.Family   { return domain.FamilyAccount }

// MasterAddress returns the treasury address.
func (a *Adapter) MasterAddress() string { return a.masterAddr.Hex() }

// keyAt rematerializes the signing key for one derivation index.
func (a *Adapter) keyAt(index uint32) (*ecdsa.PrivateKey, common.Address, error) {
	key, err := chains.DeriveKey(a.masterSeed, chains.BIP44Path(coinTypeETH, index), &chaincfg.MainNetParams)
	if err != nil {
		return nil, common.Address{}, err
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, common.Address{}, err
	}

	privBytes := priv.Serialize()
	ecdsaKey, err := crypto.ToECDSA(privBytes)
	seed.Zero(privBytes)
	if err != nil {
		return nil, common.Address{}, err
	}

	return ecdsaKey, crypto.PubkeyToAddress(ecdsaKey.PublicKey), nil
}

func (a *Adapter) DeriveAddress(_ context.Context, userID uint32) (string, error) {
	_, addr, err := a.keyAt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return addr.Hex(), nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset domain.Asset) (*big.Int, error) {
	addr := common.HexToAddress(address)

	var out *big.Int
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		if asset.Native() {
			out, err = a.client.BalanceAt(ctx, addr, nil)
		} else {
			out, err = a.erc20Balance(ctx, common.HexToAddress(asset.Contract), addr)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) IncomingHistory(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	var txs []domain.IncomingTx
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		txs, err = a.explorer.IncomingTransfers(ctx, address, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Sweep moves a child's balance of one asset to the treasury.
func (a *Adapter) Sweep(ctx context.Context, userID uint32, asset domain.Asset) domain.SweepAttempt {
	attempt := domain.SweepAttempt{
		Network: a.Network(),
		UserID:  userID,
		Asset:   asset,
	}

	childKey, childAddr, err := a.keyAt(userID)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("%w: %v", domain.ErrDerivation, err)
		return attempt
	}

	if asset.Native() {
		return a.sweepNative(ctx, attempt, childKey, childAddr)
	}
	return a.sweepToken(ctx, attempt, childKey, childAddr, asset)
}

func (a *Adapter) sweepNative(ctx context.Context, attempt domain.SweepAttempt, childKey *ecdsa.PrivateKey, childAddr common.Address) domain.SweepAttempt {
	balance, err := a.Balance(ctx, childAddr.Hex(), a.native)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	attempt.Detected = balance

	if balance.Sign() == 0 {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	quote, err := a.quoteFees(ctx)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	amount, fee := nativeDrain(balance, quote.feeCap)
	attempt.Fee = fee

	if amount.Sign() <= 0 {
		attempt.Outcome = domain.SweepSkippedDust
		return attempt
	}

	tx, err := a.sendNative(ctx, childKey, childAddr, a.masterAddr, amount, quote)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = tx.Hash().Hex()
	return attempt
}

func (a *Adapter) sweepToken(ctx context.Context, attempt domain.SweepAttempt, childKey *ecdsa.PrivateKey, childAddr common.Address, asset domain.Asset) domain.SweepAttempt {
	tokenBal, err := a.Balance(ctx, childAddr.Hex(), asset)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	attempt.Detected = tokenBal

	if tokenBal.Sign() == 0 {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	quote, err := a.quoteFees(ctx)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	gasNeeded := new(big.Int).Mul(quote.feeCap, new(big.Int).SetUint64(a.tokenGasLimit))
	attempt.Fee = gasNeeded

	nativeBal, err := a.Balance(ctx, childAddr.Hex(), a.native)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	// Phase one: gas top-up from the treasury, confirmed before the token
	// transfer because the transfer spends it.
	if nativeBal.Cmp(gasNeeded) < 0 {
		if err := a.topUpChild(ctx, childAddr); err != nil {
			attempt.Outcome = domain.SweepFailed
			attempt.Err = fmt.Errorf("gas top-up: %w", err)
			return attempt
		}
	}

	// Phase two: the token transfer itself. A failure here strands the
	// top-up on the child until the next sweep pass.
	tx, err := a.sendToken(ctx, childKey, childAddr, a.masterAddr, common.HexToAddress(asset.Contract), tokenBal, quote)
	if err != nil {
		logger.Warn("token sweep failed after top-up, native remainder stranded on child",
			zap.String("network", string(a.Network())),
			zap.Uint32("user_id", attempt.UserID),
			zap.String("asset", asset.Symbol),
		)
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = tx.Hash().Hex()
	return attempt
}

func (a *Adapter) topUpChild(ctx context.Context, childAddr common.Address) error {
	quote, err := a.quoteFees(ctx)
	if err != nil {
		return err
	}
	tx, err := a.sendNative(ctx, a.masterKey, a.masterAddr, childAddr, a.topUpWei, quote)
	if err != nil {
		return err
	}

	return a.guard.Do(ctx, func(ctx context.Context) error {
		receipt, err := bind.WaitMined(ctx, a.client, tx)
		if err != nil {
			return fmt.Errorf("wait top-up mined: %w", err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return fmt.Errorf("%w: top-up reverted", domain.ErrProviderRejected)
		}
		return nil
	})
}

// Withdraw sends treasury funds to an external address.
func (a *Adapter) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	if strings.EqualFold(req.Currency, a.native.Symbol) {
		return a.withdrawNative(ctx, req)
	}

	token, ok := a.tokens[strings.ToUpper(req.Currency)]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, req.Currency)
	}
	return a.withdrawToken(ctx, token, req)
}

func (a *Adapter) withdrawNative(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	balance, err := a.Balance(ctx, a.masterAddr.Hex(), a.native)
	if err != nil {
		return "", err
	}

	quote, err := a.quoteFees(ctx)
	if err != nil {
		return "", err
	}
	fee := new(big.Int).Mul(quote.feeCap, big.NewInt(nativeGasUnit))
	if new(big.Int).Add(req.Amount, fee).Cmp(balance) > 0 {
		return "", domain.ErrInsufficientFunds
	}

	tx, err := a.sendNative(ctx, a.masterKey, a.masterAddr, common.HexToAddress(req.To), req.Amount, quote)
	if err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (a *Adapter) withdrawToken(ctx context.Context, token domain.Asset, req domain.WithdrawalRequest) (string, error) {
	balance, err := a.Balance(ctx, a.masterAddr.Hex(), token)
	if err != nil {
		return "", err
	}
	if req.Amount.Cmp(balance) > 0 {
		return "", domain.ErrInsufficientFunds
	}

	quote, err := a.quoteFees(ctx)
	if err != nil {
		return "", err
	}
	tx, err := a.sendToken(ctx, a.masterKey, a.masterAddr, common.HexToAddress(req.To), common.HexToAddress(token.Contract), req.Amount, quote)
	if err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (a *Adapter) TransactionStatus(ctx context.Context, txHash string) (domain.TxState, error) {
	state := domain.TxStateUnknown
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		receipt, err := a.client.TransactionReceipt(ctx, common.HexToHash(txHash))
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				state = domain.TxStatePending
				return nil
			}
			return fmt.Errorf("transaction receipt: %w", err)
		}
		if receipt.Status == types.ReceiptStatusSuccessful {
			state = domain.TxStateConfirmed
		} else {
			state = domain.TxStateFailed
		}
		return nil
	})
	if err != nil {
		return domain.TxStateUnknown, err
	}
	return state, nil
}

// feeQuote is a priced EIP-1559 fee snapshot. The node validates submitted
// transactions against balance >= value + feeCap*gas, so anything that drains
// an account has to budget against the same quote the broadcast will carry.
type feeQuote struct {
	tip    *big.Int
	feeCap *big.Int
}

// quoteFees prices a transaction with the tip from the node estimate and a
// fee cap of twice the base fee plus tip.
func (a *Adapter) quoteFees(ctx context.Context) (feeQuote, error) {
	var quote feeQuote
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		tip, err := a.client.SuggestGasTipCap(ctx)
		if err != nil {
			return fmt.Errorf("suggest tip cap: %w", err)
		}

		header, err := a.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return fmt.Errorf("header by number: %w", err)
		}

		quote = feeQuote{tip: tip, feeCap: feeCapFor(header.BaseFee, tip)}
		return nil
	})
	if err != nil {
		return feeQuote{}, err
	}
	return quote, nil
}

func feeCapFor(baseFee, tip *big.Int) *big.Int {
	return new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
}

// nativeDrain splits a balance into the sweepable value and the worst-case
// fee reservation for a plain transfer priced at feeCap.
func nativeDrain(balance, feeCap *big.Int) (amount, fee *big.Int) {
	fee = new(big.Int).Mul(feeCap, big.NewInt(nativeGasUnit))
	return new(big.Int).Sub(balance, fee), fee
}

// sendNative signs and broadcasts a plain value transfer.
func (a *Adapter) sendNative(ctx context.Context, key *ecdsa.PrivateKey, from, to common.Address, amount *big.Int, quote feeQuote) (*types.Transaction, error) {
	return a.broadcast(ctx, key, from, &to, amount, nativeGasUnit, nil, quote)
}

// sendToken signs and broadcasts an ERC-20 transfer(to, amount) call.
func (a *Adapter) sendToken(ctx context.Context, key *ecdsa.PrivateKey, from, to, contract common.Address, amount *big.Int, quote feeQuote) (*types.Transaction, error) {
	data, err := packTransfer(to, amount)
	if err != nil {
		return nil, fmt.Errorf("pack transfer: %w", err)
	}
	return a.broadcast(ctx, key, from, &contract, nil, a.tokenGasLimit, data, quote)
}

// broadcast assembles an EIP-1559 transaction priced at the given quote,
// signs it with the given key, and submits it.
func (a *Adapter) broadcast(ctx context.Context, key *ecdsa.PrivateKey, from common.Address, to *common.Address, value *big.Int, gasLimit uint64, data []byte, quote feeQuote) (*types.Transaction, error) {
	var signedTx *types.Transaction
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		nonce, err := a.client.PendingNonceAt(ctx, from)
		if err != nil {
			return fmt.Errorf("pending nonce: %w", err)
		}

		tx := types.NewTx(&types.DynamicFeeTx{
			ChainID:   a.chainID,
			Nonce:     nonce,
			GasTipCap: quote.tip,
			GasFeeCap: quote.feeCap,
			Gas:       gasLimit,
			To:        to,
			Value:     value,
			Data:      data,
		})

		signedTx, err = types.SignTx(tx, types.NewLondonSigner(a.chainID), key)
		if err != nil {
			return fmt.Errorf("sign tx: %w", err)
		}

		if err := a.client.SendTransaction(ctx, signedTx); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrProviderRejected, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return signedTx, nil
}
