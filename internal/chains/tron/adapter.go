// Package tron implements the account-model chain adapter for TRON. It
// follows the same two-phase top-up-then-transfer sweep as the EVM adapter:
// TRC-20 transfers burn TRX for energy, so children that cannot cover the fee
// limit get a TRX advance from the treasury first.
package tron

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"github.com/fbsobreira/gotron-sdk/pkg/client"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/api"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/seed"
)

const coinTypeTRX = 195

// Config holds everything the adapter needs at construction time.
type Config struct {
	Seed     []byte
	GRPCAddr string
	APIKey   string
	Native   domain.Asset
	Tokens   []domain.Asset
	FeeLimit int64
	TopUpSun int64
	History  History
	Guard    *chains.Guard
}

// Adapter is the TRON chain adapter.
type Adapter struct {
	conn       *client.GrpcClient
	masterSeed []byte
	native     domain.Asset
	tokens     map[string]domain.Asset
	feeLimit   int64
	topUpSun   int64
	history    History
	guard      *chains.Guard

	masterKey  *ecdsa.PrivateKey
	masterAddr address.Address
}

// New connects to the full node and materializes the treasury key.
func New(cfg Config) (*Adapter, error) {
	conn := client.NewGrpcClient(cfg.GRPCAddr)
	if cfg.APIKey != "" {
		if err := conn.SetAPIKey(cfg.APIKey); err != nil {
			return nil, fmt.Errorf("tron api key: %w", err)
		}
	}
	if err := conn.Start(grpc.WithTransportCredentials(insecure.NewCredentials())); err != nil {
		return nil, fmt.Errorf("tron grpc start: %w", err)
	}

	tokens := make(map[string]domain.Asset, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[strings.ToUpper(t.Symbol)] = t
	}

	a := &Adapter{
		conn:       conn,
		masterSeed: cfg.Seed,
		native:     cfg.Native,
		tokens:     tokens,
		feeLimit:   cfg.FeeLimit,
		topUpSun:   cfg.TopUpSun,
		history:    cfg.History,
		guard:      cfg.Guard,
	}

	var err error
	a.masterKey, a.masterAddr, err = a.keyAt(chains.MasterIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: treasury key: %v", domain.ErrDerivation, err)
	}
	return a, nil
}

func (a *Adapter) Network() domain.Network { return domain.NetworkTron }
func (a *Adapter) Family() domain.Family   { return domain.FamilyAccount }

// MasterAddress returns the treasury address in base58.
func (a *Adapter) MasterAddress() string { return a.masterAddr.String() }

func (a *Adapter) keyAt(index uint32) (*ecdsa.PrivateKey, address.Address, error) {
	key, err := chains.DeriveKey(a.masterSeed, chains.BIP44Path(coinTypeTRX, index), &chaincfg.MainNetParams)
	if err != nil {
		return nil, nil, err
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, nil, err
	}

	privBytes := priv.Serialize()
	ecdsaKey, err := crypto.ToECDSA(privBytes)
	seed.Zero(privBytes)
	if err != nil {
		return nil, nil, err
	}

	return ecdsaKey, address.PubkeyToAddress(ecdsaKey.PublicKey), nil
}

func (a *Adapter) DeriveAddress(_ context.Context, userID uint32) (string, error) {
	_, addr, err := a.keyAt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return addr.String(), nil
}

func (a *Adapter) Balance(ctx context.Context, addr string, asset domain.Asset) (*big.Int, error) {
	var out *big.Int
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		if asset.Native() {
			acct, err := a.conn.GetAccount(addr)
			if err != nil {
				// Accounts unseen by the chain do not exist yet; that is a
				// zero balance, not a fault.
				if strings.Contains(err.Error(), "account not found") {
					out = big.NewInt(0)
					return nil
				}
				return fmt.Errorf("get account: %w", err)
			}
			out = big.NewInt(acct.GetBalance())
			return nil
		}

		bal, err := a.conn.TRC20ContractBalance(addr, asset.Contract)
		if err != nil {
			if strings.Contains(err.Error(), "account not found") {
				out = big.NewInt(0)
				return nil
			}
			return fmt.Errorf("trc20 balance: %w", err)
		}
		out = bal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) IncomingHistory(ctx context.Context, addr string, limit int) ([]domain.IncomingTx, error) {
	var txs []domain.IncomingTx
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		txs, err = a.history.IncomingTransfers(ctx, addr, limit)
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

func (a *Adapter) sweepNative(ctx context.Context, attempt domain.SweepAttempt, childKey *ecdsa.PrivateKey, childAddr address.Address) domain.SweepAttempt {
	balance, err := a.Balance(ctx, childAddr.String(), a.native)
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

	// Plain TRX transfers between established accounts consume free
	// bandwidth; the fee reserve covers account-activation edge cases.
	fee := big.NewInt(feeReserveSun)
	attempt.Fee = fee

	amount := new(big.Int).Sub(balance, fee)
	if amount.Sign() <= 0 {
		attempt.Outcome = domain.SweepSkippedDust
		return attempt
	}

	hash, err := a.sendTRX(ctx, childKey, childAddr.String(), a.masterAddr.String(), amount.Int64())
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = hash
	return attempt
}

const feeReserveSun = 1_100_000 // covers activation plus bandwidth burn

func (a *Adapter) sweepToken(ctx context.Context, attempt domain.SweepAttempt, childKey *ecdsa.PrivateKey, childAddr address.Address, asset domain.Asset) domain.SweepAttempt {
	tokenBal, err := a.Balance(ctx, childAddr.String(), asset)
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

	attempt.Fee = big.NewInt(a.feeLimit)

	nativeBal, err := a.Balance(ctx, childAddr.String(), a.native)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	// Phase one: TRX advance so the child can burn energy for the TRC-20
	// call. The chain has no receipt wait primitive over gRPC, so the
	// advance is broadcast and the transfer issued immediately after; a race
	// fails the transfer and the next pass retries with the advance landed.
	if nativeBal.Int64() < a.feeLimit {
		if _, err := a.sendTRX(ctx, a.masterKey, a.masterAddr.String(), childAddr.String(), a.topUpSun); err != nil {
			attempt.Outcome = domain.SweepFailed
			attempt.Err = fmt.Errorf("trx top-up: %w", err)
			return attempt
		}
	}

	hash, err := a.sendTRC20(ctx, childKey, childAddr.String(), a.masterAddr.String(), asset.Contract, tokenBal)
	if err != nil {
		logger.Warn("trc20 sweep failed after top-up, trx remainder stranded on child",
			zap.String("network", string(a.Network())),
			zap.Uint32("user_id", attempt.UserID),
			zap.String("asset", asset.Symbol),
		)
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = hash
	return attempt
}

// Withdraw sends treasury funds to an external address.
func (a *Adapter) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	if strings.EqualFold(req.Currency, a.native.Symbol) {
		balance, err := a.Balance(ctx, a.masterAddr.String(), a.native)
		if err != nil {
			return "", err
		}
		need := new(big.Int).Add(req.Amount, big.NewInt(feeReserveSun))
		if need.Cmp(balance) > 0 {
			return "", domain.ErrInsufficientFunds
		}
		return a.sendTRX(ctx, a.masterKey, a.masterAddr.String(), req.To, req.Amount.Int64())
	}

	token, ok := a.tokens[strings.ToUpper(req.Currency)]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, req.Currency)
	}

	balance, err := a.Balance(ctx, a.masterAddr.String(), token)
	if err != nil {
		return "", err
	}
	if req.Amount.Cmp(balance) > 0 {
		return "", domain.ErrInsufficientFunds
	}
	return a.sendTRC20(ctx, a.masterKey, a.masterAddr.String(), req.To, token.Contract, req.Amount)
}

func (a *Adapter) TransactionStatus(ctx context.Context, txHash string) (domain.TxState, error) {
	state := domain.TxStateUnknown
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		info, err := a.conn.GetTransactionInfoByID(txHash)
		if err != nil {
			if strings.Contains(err.Error(), "not found") {
				state = domain.TxStatePending
				return nil
			}
			return fmt.Errorf("transaction info: %w", err)
		}
		if info.GetResult() == core.TransactionInfo_SUCESS {
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

func (a *Adapter) sendTRX(ctx context.Context, key *ecdsa.PrivateKey, from, to string, amount int64) (string, error) {
	var hash string
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		ext, err := a.conn.Transfer(from, to, amount)
		if err != nil {
			return fmt.Errorf("build transfer: %w", err)
		}
		hash, err = a.signAndBroadcast(ext, key)
		return err
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (a *Adapter) sendTRC20(ctx context.Context, key *ecdsa.PrivateKey, from, to, contract string, amount *big.Int) (string, error) {
	var hash string
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		ext, err := a.conn.TRC20Send(from, to, contract, amount, a.feeLimit)
		if err != nil {
			return fmt.Errorf("build trc20 send: %w", err)
		}
		hash, err = a.signAndBroadcast(ext, key)
		return err
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}

// signAndBroadcast signs the raw transaction with the secp256k1 key and
// submits it. The transaction id is the sha256 of the serialized raw data.
func (a *Adapter) signAndBroadcast(ext *api.TransactionExtention, key *ecdsa.PrivateKey) (string, error) {
	rawData, err := proto.Marshal(ext.GetTransaction().GetRawData())
	if err != nil {
		return "", fmt.Errorf("marshal raw data: %w", err)
	}

	digest := sha256.Sum256(rawData)
	signature, err := crypto.Sign(digest[:], key)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	ext.Transaction.Signature = append(ext.Transaction.Signature, signature)

	ret, err := a.conn.Broadcast(ext.Transaction)
	if err != nil {
		return "", fmt.Errorf("%w: broadcast: %v", domain.ErrProviderRejected, err)
	}
	if !ret.GetResult() {
		return "", fmt.Errorf("%w: broadcast: %s", domain.ErrProviderRejected, string(ret.GetMessage()))
	}

	return fmt.Sprintf("%x", digest), nil
}
