// Package solana implements the token-ledger chain adapter for Solana.
// SPL balances live in associated token accounts derived from the owner and
// mint, so sweeping a token may first have to create the treasury's ATA and
// advance lamports to the child for fees and rent.
package solana

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/seed"
)

const (
	coinTypeSOL = 501
	// lamports burned per signature; the chain's base fee has been flat for
	// years
	feePerSignature = 5000

	confirmPollInterval = 2 * time.Second
	confirmWait         = 90 * time.Second
)

// Config holds everything the adapter needs at construction time.
type Config struct {
	Seed          []byte
	RPCURL        string
	Native        domain.Asset
	Tokens        []domain.Asset
	TopUpLamports uint64
	Guard         *chains.Guard
}

// Adapter is the Solana chain adapter.
type Adapter struct {
	client        *rpc.Client
	masterSeed    []byte
	native        domain.Asset
	tokens        map[string]domain.Asset
	mints         map[solanago.PublicKey]domain.Asset
	topUpLamports uint64
	guard         *chains.Guard

	masterKey solanago.PrivateKey
	masterPub solanago.PublicKey
}

// New connects the RPC client and materializes the treasury key.
func New(cfg Config) (*Adapter, error) {
	tokens := make(map[string]domain.Asset, len(cfg.Tokens))
	mints := make(map[solanago.PublicKey]domain.Asset, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[strings.ToUpper(t.Symbol)] = t
		mint, err := solanago.PublicKeyFromBase58(t.Contract)
		if err != nil {
			return nil, fmt.Errorf("token %s mint: %w", t.Symbol, err)
		}
		mints[mint] = t
	}

	a := &Adapter{
		client:        rpc.New(cfg.RPCURL),
		masterSeed:    cfg.Seed,
		native:        cfg.Native,
		tokens:        tokens,
		mints:         mints,
		topUpLamports: cfg.TopUpLamports,
		guard:         cfg.Guard,
	}

	var err error
	a.masterKey, a.masterPub, err = a.keyAt(chains.MasterIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: treasury key: %v", domain.ErrDerivation, err)
	}
	return a, nil
}

func (a *Adapter) Network() domain.Network { return domain.NetworkSolana }
func (a *Adapter) Family() domain.Family   { return domain.FamilyTokenLedger }

// MasterAddress returns the treasury address in base58.
func (a *Adapter) MasterAddress() string { return a.masterPub.String() }

// keyAt rematerializes the keypair for one derivation index along
// m/44'/501'/index'/0'.
func (a *Adapter) keyAt(index uint32) (solanago.PrivateKey, solanago.PublicKey, error) {
	raw := deriveEd25519(a.masterSeed, []uint32{44, coinTypeSOL, index, 0})
	defer seed.Zero(raw)

	priv := solanago.PrivateKey(ed25519.NewKeyFromSeed(raw))
	return priv, priv.PublicKey(), nil
}

func (a *Adapter) DeriveAddress(_ context.Context, userID uint32) (string, error) {
	_, pub, err := a.keyAt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return pub.String(), nil
}

func (a *Adapter) Balance(ctx context.Context, address string, asset domain.Asset) (*big.Int, error) {
	owner, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	if asset.Native() {
		return a.lamports(ctx, owner)
	}

	mint, err := solanago.PublicKeyFromBase58(asset.Contract)
	if err != nil {
		return nil, fmt.Errorf("parse mint: %w", err)
	}
	return a.tokenBalance(ctx, owner, mint)
}

func (a *Adapter) lamports(ctx context.Context, owner solanago.PublicKey) (*big.Int, error) {
	var out *big.Int
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		res, err := a.client.GetBalance(ctx, owner, rpc.CommitmentFinalized)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		out = new(big.Int).SetUint64(res.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) tokenBalance(ctx context.Context, owner, mint solanago.PublicKey) (*big.Int, error) {
	acct, _, err := solanago.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("find ata: %w", err)
	}

	var out *big.Int
	err = a.guard.Do(ctx, func(ctx context.Context) error {
		res, err := a.client.GetTokenAccountBalance(ctx, acct, rpc.CommitmentFinalized)
		if err != nil {
			// An ATA that was never created holds nothing.
			if errors.Is(err, rpc.ErrNotFound) || strings.Contains(err.Error(), "could not find account") {
				out = big.NewInt(0)
				return nil
			}
			return fmt.Errorf("token balance: %w", err)
		}

		amount, ok := new(big.Int).SetString(res.Value.Amount, 10)
		if !ok {
			return fmt.Errorf("%w: token amount %q", domain.ErrConsistencyViolation, res.Value.Amount)
		}
		out = amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IncomingHistory reconstructs credits from recent signatures by diffing pre
// and post balances for the address and its token accounts.
func (a *Adapter) IncomingHistory(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	owner, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("parse address: %w", err)
	}

	var sigs []*rpc.TransactionSignature
	err = a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		sigs, err = a.client.GetSignaturesForAddressWithOpts(ctx, owner, &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: rpc.CommitmentFinalized,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("signatures for address: %w", err)
	}

	var out []domain.IncomingTx
	for _, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		credits, err := a.creditsIn(ctx, owner, sig)
		if err != nil {
			return nil, err
		}
		out = append(out, credits...)
	}
	return out, nil
}

func (a *Adapter) creditsIn(ctx context.Context, owner solanago.PublicKey, sig *rpc.TransactionSignature) ([]domain.IncomingTx, error) {
	var res *rpc.GetTransactionResult
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = a.client.GetTransaction(ctx, sig.Signature, &rpc.GetTransactionOpts{
			Encoding:   solanago.EncodingBase64,
			Commitment: rpc.CommitmentFinalized,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if res == nil || res.Meta == nil {
		return nil, nil
	}

	decoded, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	blockTime := sig.BlockTime.Time().UTC()
	from := ""
	if len(decoded.Message.AccountKeys) > 0 {
		from = decoded.Message.AccountKeys[0].String()
	}

	var out []domain.IncomingTx

	// Native delta at the owner's account index.
	for i, key := range decoded.Message.AccountKeys {
		if !key.Equals(owner) {
			continue
		}
		if i < len(res.Meta.PreBalances) && i < len(res.Meta.PostBalances) {
			pre := res.Meta.PreBalances[i]
			post := res.Meta.PostBalances[i]
			if post > pre {
				out = append(out, domain.IncomingTx{
					Hash:      sig.Signature.String(),
					From:      from,
					To:        owner.String(),
					Asset:     a.native,
					Amount:    new(big.Int).SetUint64(post - pre),
					BlockTime: blockTime,
				})
			}
		}
		break
	}

	// Token deltas on accounts the owner controls, for configured mints.
	pre := tokenAmounts(res.Meta.PreTokenBalances, owner)
	for _, pb := range res.Meta.PostTokenBalances {
		if pb.Owner == nil || !pb.Owner.Equals(owner) {
			continue
		}
		asset, known := a.mints[pb.Mint]
		if !known {
			continue
		}

		post, ok := new(big.Int).SetString(pb.UiTokenAmount.Amount, 10)
		if !ok {
			continue
		}
		delta := new(big.Int).Sub(post, pre[pb.Mint])
		if delta.Sign() > 0 {
			out = append(out, domain.IncomingTx{
				Hash:      sig.Signature.String(),
				From:      from,
				To:        owner.String(),
				Asset:     asset,
				Amount:    delta,
				BlockTime: blockTime,
			})
		}
	}
	return out, nil
}

func tokenAmounts(balances []rpc.TokenBalance, owner solanago.PublicKey) map[solanago.PublicKey]*big.Int {
	out := make(map[solanago.PublicKey]*big.Int)
	for _, b := range balances {
		if b.Owner == nil || !b.Owner.Equals(owner) {
			continue
		}
		if amount, ok := new(big.Int).SetString(b.UiTokenAmount.Amount, 10); ok {
			out[b.Mint] = amount
		}
	}
	for _, b := range balances {
		if _, ok := out[b.Mint]; !ok {
			out[b.Mint] = big.NewInt(0)
		}
	}
	return out
}

// Sweep moves a child's balance of one asset to the treasury.
func (a *Adapter) Sweep(ctx context.Context, userID uint32, asset domain.Asset) domain.SweepAttempt {
	attempt := domain.SweepAttempt{
		Network: a.Network(),
		UserID:  userID,
		Asset:   asset,
	}

	childKey, childPub, err := a.keyAt(userID)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("%w: %v", domain.ErrDerivation, err)
		return attempt
	}

	if asset.Native() {
		return a.sweepNative(ctx, attempt, childKey, childPub)
	}
	return a.sweepToken(ctx, attempt, childKey, childPub, asset)
}

func (a *Adapter) sweepNative(ctx context.Context, attempt domain.SweepAttempt, childKey solanago.PrivateKey, childPub solanago.PublicKey) domain.SweepAttempt {
	balance, err := a.lamports(ctx, childPub)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	attempt.Detected = balance
	attempt.Fee = big.NewInt(feePerSignature)

	if balance.Sign() == 0 {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	amount := new(big.Int).Sub(balance, big.NewInt(feePerSignature))
	if amount.Sign() <= 0 {
		attempt.Outcome = domain.SweepSkippedDust
		return attempt
	}

	ix := system.NewTransferInstruction(amount.Uint64(), childPub, a.masterPub).Build()
	sig, err := a.sendInstructions(ctx, []solanago.Instruction{ix}, childPub, childKey)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = sig
	return attempt
}

func (a *Adapter) sweepToken(ctx context.Context, attempt domain.SweepAttempt, childKey solanago.PrivateKey, childPub solanago.PublicKey, asset domain.Asset) domain.SweepAttempt {
	mint, err := solanago.PublicKeyFromBase58(asset.Contract)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("parse mint: %w", err)
		return attempt
	}

	tokenBal, err := a.tokenBalance(ctx, childPub, mint)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	attempt.Detected = tokenBal
	attempt.Fee = big.NewInt(feePerSignature)

	if tokenBal.Sign() == 0 {
		attempt.Outcome = domain.SweepSkippedEmpty
		return attempt
	}

	sourceATA, _, err := solanago.FindAssociatedTokenAddress(childPub, mint)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("find source ata: %w", err)
		return attempt
	}
	destATA, _, err := solanago.FindAssociatedTokenAddress(a.masterPub, mint)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = fmt.Errorf("find dest ata: %w", err)
		return attempt
	}

	// The treasury owns its ATA and pays the rent to create it; the child
	// only ever signs the transfer out of its own account.
	exists, err := a.accountExists(ctx, destATA)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	if !exists {
		createIx := ata.NewCreateInstruction(a.masterPub, a.masterPub, mint).Build()
		sig, err := a.sendInstructions(ctx, []solanago.Instruction{createIx}, a.masterPub, a.masterKey)
		if err != nil {
			attempt.Outcome = domain.SweepFailed
			attempt.Err = fmt.Errorf("create treasury ata: %w", err)
			return attempt
		}
		if err := a.awaitConfirmed(ctx, sig); err != nil {
			attempt.Outcome = domain.SweepFailed
			attempt.Err = fmt.Errorf("create treasury ata: %w", err)
			return attempt
		}
	}

	// Phase one: lamport advance so the child can pay the transfer fee.
	childLamports, err := a.lamports(ctx, childPub)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}
	if childLamports.Uint64() < feePerSignature {
		topUp := system.NewTransferInstruction(a.topUpLamports, a.masterPub, childPub).Build()
		sig, err := a.sendInstructions(ctx, []solanago.Instruction{topUp}, a.masterPub, a.masterKey)
		if err != nil {
			attempt.Outcome = domain.SweepFailed
			attempt.Err = fmt.Errorf("lamport top-up: %w", err)
			return attempt
		}
		// The transfer is fee-paid by the child out of this advance, so
		// the cluster has to see the lamports land first.
		if err := a.awaitConfirmed(ctx, sig); err != nil {
			attempt.Outcome = domain.SweepFailed
			attempt.Err = fmt.Errorf("lamport top-up: %w", err)
			return attempt
		}
	}

	// Phase two: the transfer itself, signed and paid by the child.
	transferIx := token.NewTransferInstruction(tokenBal.Uint64(), sourceATA, destATA, childPub, nil).Build()
	sig, err := a.sendInstructions(ctx, []solanago.Instruction{transferIx}, childPub, childKey)
	if err != nil {
		attempt.Outcome = domain.SweepFailed
		attempt.Err = err
		return attempt
	}

	attempt.Outcome = domain.SweepSuccess
	attempt.TxHash = sig
	return attempt
}

// awaitConfirmed polls a submitted signature until the cluster reports it
// confirmed or failed.
func (a *Adapter) awaitConfirmed(ctx context.Context, signature string) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(confirmWait)
	defer deadline.Stop()

	for {
		state, err := a.TransactionStatus(ctx, signature)
		if err != nil {
			return err
		}
		switch state {
		case domain.TxStateConfirmed:
			return nil
		case domain.TxStateFailed:
			return fmt.Errorf("%w: transaction %s failed on chain", domain.ErrProviderRejected, signature)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: transaction %s unconfirmed after %s", domain.ErrProviderTimeout, signature, confirmWait)
		case <-ticker.C:
		}
	}
}

func (a *Adapter) accountExists(ctx context.Context, account solanago.PublicKey) (bool, error) {
	exists := false
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		_, err := a.client.GetAccountInfo(ctx, account)
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("get account info: %w", err)
		}
		exists = true
		return nil
	})
	return exists, err
}

// Withdraw sends treasury funds to an external address.
func (a *Adapter) Withdraw(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	dest, err := solanago.PublicKeyFromBase58(req.To)
	if err != nil {
		return "", fmt.Errorf("%w: destination: %v", domain.ErrProviderRejected, err)
	}

	if strings.EqualFold(req.Currency, a.native.Symbol) {
		balance, err := a.lamports(ctx, a.masterPub)
		if err != nil {
			return "", err
		}
		need := new(big.Int).Add(req.Amount, big.NewInt(feePerSignature))
		if need.Cmp(balance) > 0 {
			return "", domain.ErrInsufficientFunds
		}

		ix := system.NewTransferInstruction(req.Amount.Uint64(), a.masterPub, dest).Build()
		return a.sendInstructions(ctx, []solanago.Instruction{ix}, a.masterPub, a.masterKey)
	}

	tok, ok := a.tokens[strings.ToUpper(req.Currency)]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, req.Currency)
	}
	mint, err := solanago.PublicKeyFromBase58(tok.Contract)
	if err != nil {
		return "", fmt.Errorf("parse mint: %w", err)
	}

	balance, err := a.tokenBalance(ctx, a.masterPub, mint)
	if err != nil {
		return "", err
	}
	if req.Amount.Cmp(balance) > 0 {
		return "", domain.ErrInsufficientFunds
	}

	sourceATA, _, err := solanago.FindAssociatedTokenAddress(a.masterPub, mint)
	if err != nil {
		return "", fmt.Errorf("find source ata: %w", err)
	}
	destATA, _, err := solanago.FindAssociatedTokenAddress(dest, mint)
	if err != nil {
		return "", fmt.Errorf("find dest ata: %w", err)
	}

	var instructions []solanago.Instruction
	exists, err := a.accountExists(ctx, destATA)
	if err != nil {
		return "", err
	}
	if !exists {
		instructions = append(instructions, ata.NewCreateInstruction(a.masterPub, dest, mint).Build())
	}
	instructions = append(instructions,
		token.NewTransferInstruction(req.Amount.Uint64(), sourceATA, destATA, a.masterPub, nil).Build(),
	)

	return a.sendInstructions(ctx, instructions, a.masterPub, a.masterKey)
}

func (a *Adapter) TransactionStatus(ctx context.Context, txHash string) (domain.TxState, error) {
	sig, err := solanago.SignatureFromBase58(txHash)
	if err != nil {
		return domain.TxStateUnknown, fmt.Errorf("parse signature: %w", err)
	}

	state := domain.TxStateUnknown
	err = a.guard.Do(ctx, func(ctx context.Context) error {
		res, err := a.client.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return fmt.Errorf("signature statuses: %w", err)
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			state = domain.TxStatePending
			return nil
		}

		status := res.Value[0]
		switch {
		case status.Err != nil:
			state = domain.TxStateFailed
		case status.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
			status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed:
			state = domain.TxStateConfirmed
		default:
			state = domain.TxStatePending
		}
		return nil
	})
	if err != nil {
		return domain.TxStateUnknown, err
	}
	return state, nil
}

// sendInstructions assembles, signs and submits one transaction.
func (a *Adapter) sendInstructions(ctx context.Context, instructions []solanago.Instruction, payer solanago.PublicKey, signers ...solanago.PrivateKey) (string, error) {
	var sig solanago.Signature
	err := a.guard.Do(ctx, func(ctx context.Context) error {
		blockhash, err := a.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return fmt.Errorf("latest blockhash: %w", err)
		}

		tx, err := solanago.NewTransaction(instructions, blockhash.Value.Blockhash, solanago.TransactionPayer(payer))
		if err != nil {
			return fmt.Errorf("build transaction: %w", err)
		}

		_, err = tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
			for i := range signers {
				if signers[i].PublicKey().Equals(key) {
					return &signers[i]
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("sign transaction: %w", err)
		}

		sig, err = a.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			PreflightCommitment: rpc.CommitmentFinalized,
		})
		if err != nil {
			return fmt.Errorf("%w: send transaction: %v", domain.ErrProviderRejected, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}
