package chains_test

import (
	"os"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestBIP44Path(t *testing.T) {
	assert.Equal(t, "m/44'/60'/0'/0/0", chains.BIP44Path(60, 0))
	assert.Equal(t, "m/44'/0'/0'/0/12345", chains.BIP44Path(0, 12345))
}

func TestDeriveKey_KnownVector(t *testing.T) {
	seed := bip39.NewSeed(testMnemonic, "")

	key, err := chains.DeriveKey(seed, chains.BIP44Path(0, 0), &chaincfg.MainNetParams)
	require.NoError(t, err)

	// First receiving address of the BIP-39 reference mnemonic.
	addr, err := key.Address(&chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA", addr.String())
}

func TestDeriveKey_Deterministic(t *testing.T) {
	seed := bip39.NewSeed(testMnemonic, "")

	first, err := chains.DeriveKey(seed, chains.BIP44Path(0, 7), &chaincfg.MainNetParams)
	require.NoError(t, err)
	again, err := chains.DeriveKey(seed, chains.BIP44Path(0, 7), &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, first.String(), again.String())

	other, err := chains.DeriveKey(seed, chains.BIP44Path(0, 8), &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.NotEqual(t, first.String(), other.String())
}

func TestDeriveKey_RejectsMalformedPath(t *testing.T) {
	seed := bip39.NewSeed(testMnemonic, "")

	for _, path := range []string{"", "m/", "m/44'//0", "m/44'/abc'/0"} {
		_, err := chains.DeriveKey(seed, path, &chaincfg.MainNetParams)
		assert.Error(t, err, "path %q", path)
	}
}
