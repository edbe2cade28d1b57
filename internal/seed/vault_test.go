package seed_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/seed"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewVault_ValidMnemonic(t *testing.T) {
	vault, err := seed.NewVault(map[domain.Network]string{
		domain.NetworkEthereum: testMnemonic,
	})
	require.NoError(t, err)

	s, err := vault.Seed(domain.NetworkEthereum)
	require.NoError(t, err)
	assert.Len(t, s, 64)

	entropy, err := vault.Entropy(domain.NetworkEthereum)
	require.NoError(t, err)
	assert.Len(t, entropy, 16)

	assert.True(t, vault.Configured(domain.NetworkEthereum))
	assert.False(t, vault.Configured(domain.NetworkTron))
}

func TestNewVault_InvalidMnemonicAborts(t *testing.T) {
	_, err := seed.NewVault(map[domain.Network]string{
		domain.NetworkEthereum: "definitely not twelve valid bip39 words at all here no sir nope",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSeed)
}

func TestNewVault_SkipsUnconfiguredChains(t *testing.T) {
	vault, err := seed.NewVault(map[domain.Network]string{
		domain.NetworkEthereum: testMnemonic,
		domain.NetworkTron:     "",
	})
	require.NoError(t, err)

	_, err = vault.Seed(domain.NetworkTron)
	assert.ErrorIs(t, err, domain.ErrInvalidSeed)
	_, err = vault.Entropy(domain.NetworkTron)
	assert.ErrorIs(t, err, domain.ErrInvalidSeed)
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	seed.Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}
