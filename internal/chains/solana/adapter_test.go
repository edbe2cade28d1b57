package solana_test

import (
	"context"
	"os"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/chains/solana"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestAdapter(t *testing.T) *solana.Adapter {
	t.Helper()
	a, err := solana.New(solana.Config{
		Seed:   bip39.NewSeed(testMnemonic, ""),
		RPCURL: "http://127.0.0.1:8899",
		Native: domain.Asset{Symbol: "SOL", Decimals: 9},
		Tokens: []domain.Asset{
			{Symbol: "USDC", Contract: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
		},
		TopUpLamports: 2_000_000,
		Guard:         chains.NewGuard(100, 100, 5*time.Second),
	})
	require.NoError(t, err)
	return a
}

func TestDeriveAddress_Deterministic(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	first, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	again, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := a.DeriveAddress(ctx, 8)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, first, a.MasterAddress())

	// Same seed in a fresh adapter lands on the same keypair.
	b := newTestAdapter(t)
	rederived, err := b.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first, rederived)
}

func TestDeriveAddress_YieldsValidKeys(t *testing.T) {
	a := newTestAdapter(t)

	for _, raw := range []string{a.MasterAddress(), mustDerive(t, a, 1), mustDerive(t, a, 42)} {
		pub, err := solanago.PublicKeyFromBase58(raw)
		require.NoError(t, err)
		assert.True(t, pub.IsOnCurve())
	}
}

func TestAdapterIdentity(t *testing.T) {
	a := newTestAdapter(t)

	assert.Equal(t, domain.NetworkSolana, a.Network())
	assert.Equal(t, domain.FamilyTokenLedger, a.Family())
}

func TestNew_RejectsMalformedMint(t *testing.T) {
	_, err := solana.New(solana.Config{
		Seed:   bip39.NewSeed(testMnemonic, ""),
		RPCURL: "http://127.0.0.1:8899",
		Native: domain.Asset{Symbol: "SOL", Decimals: 9},
		Tokens: []domain.Asset{{Symbol: "BAD", Contract: "not-base58!", Decimals: 6}},
	})
	assert.Error(t, err)
}

func mustDerive(t *testing.T, a *solana.Adapter, userID uint32) string {
	t.Helper()
	addr, err := a.DeriveAddress(context.Background(), userID)
	require.NoError(t, err)
	return addr
}
