package engine_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/engine"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/mocks"
	"github.com/helixpay/custody-engine/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var (
	ethAsset  = domain.Asset{Symbol: "ETH", Decimals: 18}
	usdtAsset = domain.Asset{Symbol: "USDT", Contract: "0xdac1", Decimals: 6}
)

type facadeMocks struct {
	adapter    *mocks.MockAdapter
	wallets    *mocks.MockWalletStore
	directory  *mocks.MockDirectory
	sweeper    *mocks.MockSweepCoordinator
	withdrawer *mocks.MockWithdrawEngine
	reconciler *mocks.MockReconcileJob
}

func newFacade(t *testing.T) (*engine.Engine, *facadeMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &facadeMocks{
		adapter:    mocks.NewMockAdapter(ctrl),
		wallets:    mocks.NewMockWalletStore(ctrl),
		directory:  mocks.NewMockDirectory(ctrl),
		sweeper:    mocks.NewMockSweepCoordinator(ctrl),
		withdrawer: mocks.NewMockWithdrawEngine(ctrl),
		reconciler: mocks.NewMockReconcileJob(ctrl),
	}
	m.adapter.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()

	registry := chains.NewRegistry()
	registry.Register(m.adapter, []domain.Asset{ethAsset, usdtAsset})

	return engine.New(registry, m.wallets, m.directory, m.sweeper, m.withdrawer, m.reconciler), m
}

func TestWithdraw_ReturnsReceiptOnSubmission(t *testing.T) {
	eng, m := newFacade(t)
	ctx := context.Background()

	req := domain.WithdrawalRequest{
		Network:  domain.NetworkEthereum,
		Currency: "ETH",
		To:       "0xdest",
		Amount:   big.NewInt(1000),
	}
	row := &schema.LedgerTransaction{ID: 42, Status: string(domain.LedgerStatusProcessing)}

	gomock.InOrder(
		m.withdrawer.EXPECT().Request(ctx, uint32(7), req).Return(row, nil),
		m.withdrawer.EXPECT().
			Submit(ctx, row).
			DoAndReturn(func(_ context.Context, r *schema.LedgerTransaction) error {
				hash := "0xhash"
				r.Status = string(domain.LedgerStatusPending)
				r.ExternalRef = &hash
				return nil
			}),
	)

	receipt, err := eng.Withdraw(ctx, 7, req)
	require.NoError(t, err)
	assert.Equal(t, "0xhash", receipt.TxHash)
}

func TestWithdraw_TransientSubmissionFaultDefers(t *testing.T) {
	eng, m := newFacade(t)
	ctx := context.Background()

	req := domain.WithdrawalRequest{
		Network:  domain.NetworkEthereum,
		Currency: "ETH",
		To:       "0xdest",
		Amount:   big.NewInt(1000),
	}
	row := &schema.LedgerTransaction{ID: 42, Status: string(domain.LedgerStatusProcessing)}

	m.withdrawer.EXPECT().Request(ctx, uint32(7), req).Return(row, nil)
	m.withdrawer.EXPECT().Submit(ctx, row).Return(errors.New("rpc unavailable"))

	// The row is queued; the verification job will submit it.
	receipt, err := eng.Withdraw(ctx, 7, req)
	require.NoError(t, err)
	assert.Empty(t, receipt.TxHash)
}

func TestWithdraw_InvalidRequestSurfaces(t *testing.T) {
	eng, m := newFacade(t)
	ctx := context.Background()

	req := domain.WithdrawalRequest{Network: domain.NetworkEthereum, Currency: "PEPE"}
	m.withdrawer.EXPECT().Request(ctx, uint32(7), req).Return(nil, domain.ErrUnsupportedAsset)

	_, err := eng.Withdraw(ctx, 7, req)
	assert.ErrorIs(t, err, domain.ErrUnsupportedAsset)
}

func TestGetAllBalances_ReadsEveryAsset(t *testing.T) {
	eng, m := newFacade(t)
	ctx := context.Background()

	m.wallets.EXPECT().
		ListByUser(ctx, uint32(7)).
		Return([]schema.Wallet{{UserID: 7, Network: "ethereum", Address: "0xchild7"}}, nil)
	m.adapter.EXPECT().
		Balance(ctx, "0xchild7", ethAsset).
		Return(big.NewInt(1500), nil)
	m.adapter.EXPECT().
		Balance(ctx, "0xchild7", usdtAsset).
		Return(big.NewInt(0), nil)

	balances, err := eng.GetAllBalances(ctx, 7)
	require.NoError(t, err)
	require.Contains(t, balances, domain.NetworkEthereum)
	assert.Equal(t, big.NewInt(1500), balances[domain.NetworkEthereum]["ETH"])
	assert.Equal(t, big.NewInt(0), balances[domain.NetworkEthereum]["USDT"])
}

func TestGetAllBalances_FailingAssetIsOmitted(t *testing.T) {
	eng, m := newFacade(t)
	ctx := context.Background()

	m.wallets.EXPECT().
		ListByUser(ctx, uint32(7)).
		Return([]schema.Wallet{{UserID: 7, Network: "ethereum", Address: "0xchild7"}}, nil)
	m.adapter.EXPECT().
		Balance(ctx, "0xchild7", ethAsset).
		Return(nil, domain.ErrProviderTimeout)
	m.adapter.EXPECT().
		Balance(ctx, "0xchild7", usdtAsset).
		Return(big.NewInt(7), nil)

	balances, err := eng.GetAllBalances(ctx, 7)
	require.NoError(t, err)
	assert.NotContains(t, balances[domain.NetworkEthereum], "ETH")
	assert.Equal(t, big.NewInt(7), balances[domain.NetworkEthereum]["USDT"])
}

func TestFacadeDelegation(t *testing.T) {
	eng, m := newFacade(t)
	ctx := context.Background()

	m.directory.EXPECT().
		EnsureWallets(ctx, uint32(7)).
		Return(map[domain.Network]string{domain.NetworkEthereum: "0xchild7"}, nil)
	m.sweeper.EXPECT().
		SweepUser(ctx, uint32(7)).
		Return([]domain.SweepAttempt{{UserID: 7, Outcome: domain.SweepSkippedEmpty}})
	m.reconciler.EXPECT().
		ReconcileUser(ctx, uint32(7)).
		Return(nil)

	addresses, err := eng.EnsureWallets(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, addresses, 1)

	attempts := eng.SweepUser(ctx, 7)
	assert.Len(t, attempts, 1)

	require.NoError(t, eng.ReconcileUser(ctx, 7))
}
