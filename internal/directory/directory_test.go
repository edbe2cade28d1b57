package directory_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/directory"
	"github.com/helixpay/custody-engine/internal/domain"
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

func TestEnsureWallet_DerivesAndRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(adapter, []domain.Asset{{Symbol: "ETH", Decimals: 18}})
	dir := directory.New(registry, wallets)

	adapter.EXPECT().
		DeriveAddress(gomock.Any(), uint32(7)).
		Return("0xchild7", nil)
	wallets.EXPECT().
		InsertIfAbsent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, w *schema.Wallet) (bool, error) {
			assert.Equal(t, uint32(7), w.UserID)
			assert.Equal(t, "ethereum", w.Network)
			assert.Equal(t, "ETH", w.Currency)
			assert.Equal(t, "0xchild7", w.Address)
			return true, nil
		})

	address, err := dir.EnsureWallet(context.Background(), 7, domain.NetworkEthereum)
	require.NoError(t, err)
	assert.Equal(t, "0xchild7", address)
}

func TestEnsureWallet_RepeatCallReturnsSameAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(adapter, []domain.Asset{{Symbol: "ETH", Decimals: 18}})
	dir := directory.New(registry, wallets)

	adapter.EXPECT().
		DeriveAddress(gomock.Any(), uint32(7)).
		Return("0xchild7", nil).
		Times(2)
	gomock.InOrder(
		wallets.EXPECT().InsertIfAbsent(gomock.Any(), gomock.Any()).Return(true, nil),
		// Second call hits the unique address index and is a no-op.
		wallets.EXPECT().InsertIfAbsent(gomock.Any(), gomock.Any()).Return(false, nil),
	)

	first, err := dir.EnsureWallet(context.Background(), 7, domain.NetworkEthereum)
	require.NoError(t, err)
	second, err := dir.EnsureWallet(context.Background(), 7, domain.NetworkEthereum)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnsureWallet_RejectsTreasuryIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(adapter, []domain.Asset{{Symbol: "ETH", Decimals: 18}})
	dir := directory.New(registry, wallets)

	_, err := dir.EnsureWallet(context.Background(), chains.MasterIndex, domain.NetworkEthereum)
	assert.ErrorIs(t, err, domain.ErrDerivation)
}

func TestEnsureWallets_ChainFaultsAreIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	healthy := mocks.NewMockAdapter(ctrl)
	healthy.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	broken := mocks.NewMockAdapter(ctrl)
	broken.EXPECT().Network().Return(domain.NetworkTron).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(healthy, []domain.Asset{{Symbol: "ETH", Decimals: 18}})
	registry.Register(broken, []domain.Asset{{Symbol: "TRX", Decimals: 6}})
	dir := directory.New(registry, wallets)

	healthy.EXPECT().
		DeriveAddress(gomock.Any(), uint32(7)).
		Return("0xchild7", nil)
	broken.EXPECT().
		DeriveAddress(gomock.Any(), uint32(7)).
		Return("", errors.New("rpc unavailable"))
	wallets.EXPECT().
		InsertIfAbsent(gomock.Any(), gomock.Any()).
		Return(true, nil)

	out, err := dir.EnsureWallets(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Network]string{domain.NetworkEthereum: "0xchild7"}, out)
}

func TestEnsureWallets_AllChainsFailingReturnsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broken := mocks.NewMockAdapter(ctrl)
	broken.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()
	wallets := mocks.NewMockWalletStore(ctrl)

	registry := chains.NewRegistry()
	registry.Register(broken, []domain.Asset{{Symbol: "ETH", Decimals: 18}})
	dir := directory.New(registry, wallets)

	broken.EXPECT().
		DeriveAddress(gomock.Any(), uint32(7)).
		Return("", errors.New("rpc unavailable"))

	out, err := dir.EnsureWallets(context.Background(), 7)
	assert.Error(t, err)
	assert.Empty(t, out)
}
