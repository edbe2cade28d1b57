package sweep_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixpay/custody-engine/internal/adapter"
	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/mocks"
	"github.com/helixpay/custody-engine/internal/sweep"
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
	trxAsset  = domain.Asset{Symbol: "TRX", Decimals: 6}
)

func TestSweepUser_AttemptsEveryConfiguredPair(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockAdapter(ctrl)
	eth.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	tron := mocks.NewMockAdapter(ctrl)
	tron.EXPECT().Network().Return(domain.NetworkTron).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(eth, []domain.Asset{ethAsset, usdtAsset})
	registry.Register(tron, []domain.Asset{trxAsset})
	coordinator := sweep.New(registry, wallets, adapter.NewClock(), 4, 100)

	eth.EXPECT().
		Sweep(gomock.Any(), uint32(7), ethAsset).
		Return(domain.SweepAttempt{Network: domain.NetworkEthereum, UserID: 7, Asset: ethAsset, Outcome: domain.SweepSuccess, TxHash: "0xs1"})
	eth.EXPECT().
		Sweep(gomock.Any(), uint32(7), usdtAsset).
		Return(domain.SweepAttempt{Network: domain.NetworkEthereum, UserID: 7, Asset: usdtAsset, Outcome: domain.SweepSkippedDust})
	tron.EXPECT().
		Sweep(gomock.Any(), uint32(7), trxAsset).
		Return(domain.SweepAttempt{Network: domain.NetworkTron, UserID: 7, Asset: trxAsset, Outcome: domain.SweepSkippedEmpty})

	attempts := coordinator.SweepUser(context.Background(), 7)
	require.Len(t, attempts, 3)

	outcomes := map[string]domain.SweepOutcome{}
	for _, a := range attempts {
		outcomes[string(a.Network)+"/"+a.Asset.Symbol] = a.Outcome
	}
	assert.Equal(t, domain.SweepSuccess, outcomes["ethereum/ETH"])
	assert.Equal(t, domain.SweepSkippedDust, outcomes["ethereum/USDT"])
	assert.Equal(t, domain.SweepSkippedEmpty, outcomes["tron/TRX"])
}

func TestSweepUser_FailureDoesNotStopOtherPairs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockAdapter(ctrl)
	eth.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(eth, []domain.Asset{ethAsset, usdtAsset})
	coordinator := sweep.New(registry, wallets, adapter.NewClock(), 4, 100)

	eth.EXPECT().
		Sweep(gomock.Any(), uint32(7), ethAsset).
		Return(domain.SweepAttempt{Network: domain.NetworkEthereum, UserID: 7, Asset: ethAsset, Outcome: domain.SweepFailed, Err: errors.New("rpc unavailable")})
	eth.EXPECT().
		Sweep(gomock.Any(), uint32(7), usdtAsset).
		Return(domain.SweepAttempt{Network: domain.NetworkEthereum, UserID: 7, Asset: usdtAsset, Outcome: domain.SweepSuccess, TxHash: "0xs2"})

	attempts := coordinator.SweepUser(context.Background(), 7)
	require.Len(t, attempts, 2)
	assert.Equal(t, domain.SweepFailed, attempts[0].Outcome)
	assert.Equal(t, domain.SweepSuccess, attempts[1].Outcome)
}

func TestSweepUser_PanicIsContained(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockAdapter(ctrl)
	eth.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(eth, []domain.Asset{ethAsset, usdtAsset})
	coordinator := sweep.New(registry, wallets, adapter.NewClock(), 4, 100)

	eth.EXPECT().
		Sweep(gomock.Any(), uint32(7), ethAsset).
		DoAndReturn(func(context.Context, uint32, domain.Asset) domain.SweepAttempt {
			panic("nil adapter state")
		})
	eth.EXPECT().
		Sweep(gomock.Any(), uint32(7), usdtAsset).
		Return(domain.SweepAttempt{Network: domain.NetworkEthereum, UserID: 7, Asset: usdtAsset, Outcome: domain.SweepSuccess, TxHash: "0xs3"})

	attempts := coordinator.SweepUser(context.Background(), 7)
	require.Len(t, attempts, 2)
	assert.Equal(t, domain.SweepFailed, attempts[0].Outcome)
	assert.ErrorContains(t, attempts[0].Err, "sweep panic")
	assert.Equal(t, domain.SweepSuccess, attempts[1].Outcome)
}

func TestSweepAll_CoversPopulation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockAdapter(ctrl)
	eth.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(eth, []domain.Asset{ethAsset})
	coordinator := sweep.New(registry, wallets, adapter.NewClock(), 2, 100)

	wallets.EXPECT().
		DistinctUserIDs(gomock.Any()).
		Return([]uint32{1, 2, 3}, nil)
	for _, id := range []uint32{1, 2, 3} {
		eth.EXPECT().
			Sweep(gomock.Any(), id, ethAsset).
			Return(domain.SweepAttempt{Network: domain.NetworkEthereum, UserID: id, Asset: ethAsset, Outcome: domain.SweepSkippedEmpty})
	}

	require.NoError(t, coordinator.SweepAll(context.Background()))
}

func TestSweepAll_ListFaultStopsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	eth := mocks.NewMockAdapter(ctrl)
	eth.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(eth, []domain.Asset{ethAsset})
	coordinator := sweep.New(registry, wallets, adapter.NewClock(), 2, 100)

	wallets.EXPECT().
		DistinctUserIDs(gomock.Any()).
		Return(nil, errors.New("db down"))

	assert.Error(t, coordinator.SweepAll(context.Background()))
}
