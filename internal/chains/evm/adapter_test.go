package evm_test

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/chains/evm"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestAdapter(t *testing.T) *evm.Adapter {
	t.Helper()
	a, err := evm.New(evm.Config{
		Seed:    bip39.NewSeed(testMnemonic, ""),
		RPCURL:  "http://127.0.0.1:8545",
		ChainID: big.NewInt(1),
		Native:  domain.Asset{Symbol: "ETH", Decimals: 18},
		Tokens:  []domain.Asset{{Symbol: "USDT", Contract: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6}},
		Guard:   chains.NewGuard(100, 100, 5*time.Second),
	})
	require.NoError(t, err)
	return a
}

func TestDeriveAddress_KnownVector(t *testing.T) {
	a := newTestAdapter(t)

	// m/44'/60'/0'/0/0 of the BIP-39 reference mnemonic.
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", a.MasterAddress())
}

func TestDeriveAddress_Deterministic(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	first, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	second, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := a.DeriveAddress(ctx, 8)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, first, a.MasterAddress())

	// A fresh adapter over the same seed lands on the same addresses.
	b := newTestAdapter(t)
	again, err := b.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestAdapterIdentity(t *testing.T) {
	a := newTestAdapter(t)
	assert.Equal(t, domain.NetworkEthereum, a.Network())
	assert.Equal(t, domain.FamilyAccount, a.Family())
}
