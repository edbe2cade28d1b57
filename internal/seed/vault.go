// Package seed holds the master secrets the engine derives every deposit
// address and signing key from. The vault is built once at startup, is
// immutable for the process lifetime, and is never persisted or logged.
package seed

import (
	"fmt"

	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/helixpay/custody-engine/internal/domain"
)

// Vault maps each network to its master seed material.
type Vault struct {
	seeds     map[domain.Network][]byte
	entropies map[domain.Network][]byte
}

// NewVault validates every configured mnemonic and precomputes the BIP-39
// seeds. A bad mnemonic returns domain.ErrInvalidSeed and must abort startup.
func NewVault(mnemonics map[domain.Network]string) (*Vault, error) {
	v := &Vault{
		seeds:     make(map[domain.Network][]byte, len(mnemonics)),
		entropies: make(map[domain.Network][]byte, len(mnemonics)),
	}

	for network, mnemonic := range mnemonics {
		if mnemonic == "" {
			continue // chain not configured
		}
		if !bip39.IsMnemonicValid(mnemonic) {
			return nil, fmt.Errorf("%w: network %s", domain.ErrInvalidSeed, network)
		}

		// Empty BIP-39 passphrase; an extra passphrase would have to be
		// supplied out of band on every restart.
		v.seeds[network] = bip39.NewSeed(mnemonic, "")

		entropy, err := bip39.EntropyFromMnemonic(mnemonic)
		if err != nil {
			return nil, fmt.Errorf("%w: network %s: %v", domain.ErrInvalidSeed, network, err)
		}
		v.entropies[network] = entropy
	}

	return v, nil
}

// Seed returns the 64-byte BIP-39 seed for a network. The returned slice is
// shared; callers must treat it as read-only and must not retain derived key
// material beyond a single operation.
func (v *Vault) Seed(network domain.Network) ([]byte, error) {
	s, ok := v.seeds[network]
	if !ok {
		return nil, fmt.Errorf("%w: no seed for network %s", domain.ErrInvalidSeed, network)
	}
	return s, nil
}

// Entropy returns the raw mnemonic entropy for a network. Cardano key
// derivation consumes entropy rather than the BIP-39 seed.
func (v *Vault) Entropy(network domain.Network) ([]byte, error) {
	e, ok := v.entropies[network]
	if !ok {
		return nil, fmt.Errorf("%w: no entropy for network %s", domain.ErrInvalidSeed, network)
	}
	return e, nil
}

// Configured reports whether a network has seed material.
func (v *Vault) Configured(network domain.Network) bool {
	_, ok := v.seeds[network]
	return ok
}

// Zero wipes a byte slice in place. Adapters call it on private key bytes as
// soon as signing is done.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
