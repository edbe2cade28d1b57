package domain

import "errors"

var (
	// ErrInvalidSeed is returned at startup when a configured mnemonic fails
	// BIP-39 validation. It is fatal for the process.
	ErrInvalidSeed = errors.New("invalid master seed")

	// ErrDerivation is returned when key or address derivation fails. It is
	// fatal for the chain adapter instance that reports it.
	ErrDerivation = errors.New("derivation failed")

	// ErrInsufficientFunds is returned when the treasury cannot cover a
	// withdrawal amount plus fees.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnsupportedAsset is returned when a currency is not configured on
	// the requested network.
	ErrUnsupportedAsset = errors.New("unsupported asset")

	// ErrProviderRejected is returned when a chain node or payout provider
	// refuses a transaction.
	ErrProviderRejected = errors.New("provider rejected transaction")

	// ErrProviderTimeout is returned when a chain RPC call exceeds its hard
	// timeout. It is recoverable for the unit of work that hit it.
	ErrProviderTimeout = errors.New("provider timed out")

	// ErrDuplicateCredit arises from the uniqueness constraint on event
	// hashes. It is the expected result of a duplicate delivery and must be
	// swallowed, never surfaced as a failure.
	ErrDuplicateCredit = errors.New("credit already recorded")

	// ErrConsistencyViolation is returned when an on-chain deposit address
	// resolves to no known wallet record. The credit is aborted.
	ErrConsistencyViolation = errors.New("address does not belong to a known wallet")

	// ErrWalletNotFound is returned when no wallet record exists for a
	// (user, network) pair.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrIllegalTransition is returned when a withdrawal status update does
	// not follow the state machine.
	ErrIllegalTransition = errors.New("illegal withdrawal status transition")
)
