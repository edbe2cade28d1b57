// Package directory owns the (user, network) -> deposit address mapping.
// Addresses are derived on demand and inserted with insert-or-ignore
// semantics, so concurrent calls for the same user converge on one record.
package directory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/store"
	"github.com/helixpay/custody-engine/internal/store/schema"
)

// Directory hands out deposit addresses.
//
//go:generate mockgen -source=directory.go -destination=../mocks/directory.go -package=mocks -mock_names=Directory=MockDirectory
type Directory interface {
	// EnsureWallet derives and records the user's address on one chain.
	// Safe to call repeatedly and concurrently; every call returns the same
	// address.
	EnsureWallet(ctx context.Context, userID uint32, network domain.Network) (string, error)

	// EnsureWallets ensures an address on every configured chain. A chain
	// failing derivation or storage is logged and left out of the result;
	// the remaining chains still get their wallets.
	EnsureWallets(ctx context.Context, userID uint32) (map[domain.Network]string, error)
}

type directory struct {
	registry *chains.Registry
	wallets  store.WalletStore
}

// New creates a Directory over the configured chains.
func New(registry *chains.Registry, wallets store.WalletStore) Directory {
	return &directory{registry: registry, wallets: wallets}
}

func (d *directory) EnsureWallet(ctx context.Context, userID uint32, network domain.Network) (string, error) {
	if userID == chains.MasterIndex {
		return "", fmt.Errorf("%w: user id %d is reserved for the treasury", domain.ErrDerivation, userID)
	}

	adapter, err := d.registry.Adapter(network)
	if err != nil {
		return "", err
	}

	address, err := adapter.DeriveAddress(ctx, userID)
	if err != nil {
		return "", err
	}

	native := d.registry.Assets(network)
	currency := ""
	if len(native) > 0 {
		currency = native[0].Symbol
	}

	inserted, err := d.wallets.InsertIfAbsent(ctx, &schema.Wallet{
		UserID:   userID,
		Network:  string(network),
		Currency: currency,
		Address:  address,
	})
	if err != nil {
		return "", fmt.Errorf("record wallet: %w", err)
	}
	if inserted {
		logger.InfoCtx(ctx, "wallet created",
			zap.Uint32("user_id", userID),
			zap.String("network", string(network)),
			zap.String("address", address),
		)
	}
	return address, nil
}

func (d *directory) EnsureWallets(ctx context.Context, userID uint32) (map[domain.Network]string, error) {
	out := make(map[domain.Network]string)
	var firstErr error
	for _, network := range d.registry.Networks() {
		address, err := d.EnsureWallet(ctx, userID, network)
		if err != nil {
			logger.ErrorCtx(ctx, err,
				zap.String("message", "ensure wallet failed"),
				zap.Uint32("user_id", userID),
				zap.String("network", string(network)),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", network, err)
			}
			continue
		}
		out[network] = address
	}

	if len(out) == 0 && firstErr != nil {
		return out, firstErr
	}
	return out, nil
}
