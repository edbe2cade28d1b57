package domain

import (
	"fmt"
	"math/big"
	"time"
)

// Network identifies one supported blockchain.
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkTron     Network = "tron"
	NetworkBitcoin  Network = "bitcoin"
	NetworkDogecoin Network = "dogecoin"
	NetworkCardano  Network = "cardano"
	NetworkSolana   Network = "solana"
	NetworkXRP      Network = "xrp"
)

// IsValidNetwork checks if a network is one of the supported chains
func IsValidNetwork(n Network) bool {
	switch n {
	case NetworkEthereum, NetworkTron, NetworkBitcoin, NetworkDogecoin,
		NetworkCardano, NetworkSolana, NetworkXRP:
		return true
	}
	return false
}

// Family is the ledger model a network belongs to. Sweep and fee policy is
// decided per family, not per network.
type Family string

const (
	FamilyAccount       Family = "account"        // EVM, TRON
	FamilyUTXO          Family = "utxo"           // Bitcoin, Dogecoin
	FamilyExtendedUTXO  Family = "extended_utxo"  // Cardano
	FamilyTokenLedger   Family = "token_ledger"   // Solana
	FamilyReserveLedger Family = "reserve_ledger" // XRP
)

// Asset identifies a currency on a network. Contract is empty for the native
// currency; for tokens it holds the ERC-20/TRC-20 contract address, the SPL
// mint, or the Cardano policy ID.
type Asset struct {
	Symbol   string
	Contract string
	Decimals uint8
}

// Native reports whether the asset is the network's native currency.
func (a Asset) Native() bool {
	return a.Contract == ""
}

func (a Asset) String() string {
	if a.Native() {
		return a.Symbol
	}
	return fmt.Sprintf("%s(%s)", a.Symbol, a.Contract)
}

// IncomingTx is one confirmed incoming transfer to a deposit address, as
// reported by a chain adapter.
type IncomingTx struct {
	Hash      string
	From      string
	To        string
	Asset     Asset
	Amount    *big.Int // base units (wei, satoshi, lovelace, lamports, drops)
	BlockTime time.Time
}

// SweepOutcome classifies the result of a single sweep attempt.
type SweepOutcome string

const (
	SweepSuccess       SweepOutcome = "success"
	SweepSkippedDust   SweepOutcome = "skipped_dust"
	SweepSkippedEmpty  SweepOutcome = "skipped_no_funds"
	SweepFailed        SweepOutcome = "failed"
)

// SweepAttempt is the transient result of one adapter sweep call. It is never
// persisted; it exists for logging and telemetry only.
type SweepAttempt struct {
	Network Network
	UserID  uint32
	Asset   Asset
	// Detected is the child balance observed before sweeping, in base units.
	Detected *big.Int
	// Fee is the fee reserved for the sweep transaction, in base units.
	Fee     *big.Int
	Outcome SweepOutcome
	TxHash  string
	Err     error
}

// WithdrawalRequest describes one outbound transfer from the treasury.
type WithdrawalRequest struct {
	Network  Network
	Currency string
	To       string
	Amount   *big.Int // base units
	// DestinationTag disambiguates shared deposit addresses on XRP.
	DestinationTag *uint32
}

// WithdrawalReceipt is the uniform result shape of a dispatched withdrawal.
type WithdrawalReceipt struct {
	TxHash string
}

// TxState is the on-chain lifecycle of a broadcast transaction.
type TxState string

const (
	TxStatePending   TxState = "pending"
	TxStateConfirmed TxState = "confirmed"
	TxStateFailed    TxState = "failed"
	TxStateUnknown   TxState = "unknown"
)

// LedgerStatus is the internal lifecycle of a ledger transaction.
type LedgerStatus string

const (
	LedgerStatusSuccess    LedgerStatus = "success"
	LedgerStatusProcessing LedgerStatus = "processing"
	LedgerStatusPending    LedgerStatus = "pending"
	LedgerStatusFailed     LedgerStatus = "failed"
)

// LedgerMode distinguishes credits from debits.
type LedgerMode string

const (
	LedgerModeCredit LedgerMode = "credit"
	LedgerModeDebit  LedgerMode = "debit"
)

// LedgerEntity classifies what a ledger transaction records.
type LedgerEntity string

const (
	LedgerEntityDeposit    LedgerEntity = "deposit"
	LedgerEntityWithdrawal LedgerEntity = "withdrawal"
	LedgerEntityPurchase   LedgerEntity = "purchase"
)
