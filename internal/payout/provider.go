// Package payout abstracts the external payout provider the withdrawal jobs
// drive. In this deployment the provider IS the chain: submissions go through
// the chain adapters and status checks read transaction receipts. The
// interface exists so a managed payout service can replace that without
// touching the state machine.
package payout

import (
	"context"
	"math/big"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
)

// Provider submits withdrawals and answers status polls.
//
//go:generate mockgen -source=provider.go -destination=../mocks/payout.go -package=mocks -mock_names=Provider=MockPayoutProvider
type Provider interface {
	// Submit executes the withdrawal and returns its external reference
	Submit(ctx context.Context, req domain.WithdrawalRequest) (string, error)

	// CheckStatus reports the lifecycle state of a submitted withdrawal
	CheckStatus(ctx context.Context, network domain.Network, ref string) (domain.TxState, error)

	// TreasuryBalance returns the treasury balance for an asset, in base
	// units
	TreasuryBalance(ctx context.Context, network domain.Network, currency string) (*big.Int, error)
}

type chainProvider struct {
	registry *chains.Registry
}

// NewChainProvider builds a Provider backed directly by the chain adapters.
func NewChainProvider(registry *chains.Registry) Provider {
	return &chainProvider{registry: registry}
}

func (p *chainProvider) Submit(ctx context.Context, req domain.WithdrawalRequest) (string, error) {
	adapter, err := p.registry.Adapter(req.Network)
	if err != nil {
		return "", err
	}
	return adapter.Withdraw(ctx, req)
}

func (p *chainProvider) CheckStatus(ctx context.Context, network domain.Network, ref string) (domain.TxState, error) {
	adapter, err := p.registry.Adapter(network)
	if err != nil {
		return domain.TxStateUnknown, err
	}
	return adapter.TransactionStatus(ctx, ref)
}

func (p *chainProvider) TreasuryBalance(ctx context.Context, network domain.Network, currency string) (*big.Int, error) {
	adapter, err := p.registry.Adapter(network)
	if err != nil {
		return nil, err
	}
	asset, err := p.registry.Asset(network, currency)
	if err != nil {
		return nil, err
	}
	return adapter.Balance(ctx, adapter.MasterAddress(), asset)
}
