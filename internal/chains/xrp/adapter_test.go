package xrp

import (
	"context"
	"math/big"
	"testing"

	"github.com/rubblelabs/ripple/crypto"
	"github.com/rubblelabs/ripple/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var xrpAsset = domain.Asset{Symbol: "XRP", Decimals: 6}

// newTestAdapter builds an adapter without a websocket connection. Everything
// exercised here is pure key and arithmetic work.
func newTestAdapter(t *testing.T, shared bool) *Adapter {
	t.Helper()
	masterSeed := bip39.NewSeed(testMnemonic, "")

	key, err := crypto.NewECDSAKey(masterSeed[:16])
	require.NoError(t, err)

	a := &Adapter{
		key: key,
		cfg: Config{
			Seed:          masterSeed,
			Native:        xrpAsset,
			ReserveDrops:  10_000_000,
			MarginDrops:   1_000_000,
			SharedAddress: shared,
		},
	}
	a.masterAccount, a.masterAddress, err = a.accountAt(chains.MasterIndex)
	require.NoError(t, err)
	return a
}

func TestDeriveAddress_Deterministic(t *testing.T) {
	a := newTestAdapter(t, false)
	ctx := context.Background()

	first, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	second, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, len(first) > 25 && first[0] == 'r', "classic address expected, got %q", first)

	other, err := a.DeriveAddress(ctx, 8)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, first, a.MasterAddress())
}

func TestDeriveAddress_SharedModeUsesDestinationTags(t *testing.T) {
	a := newTestAdapter(t, true)
	ctx := context.Background()

	addr, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, a.MasterAddress()+"?dt=7", addr)

	base, tag, err := splitAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, a.MasterAddress(), base)
	require.NotNil(t, tag)
	assert.Equal(t, uint32(7), *tag)
}

func TestSplitAddress(t *testing.T) {
	base, tag, err := splitAddress("rPlainAddress")
	require.NoError(t, err)
	assert.Equal(t, "rPlainAddress", base)
	assert.Nil(t, tag)

	_, _, err = splitAddress("rAddr?dt=notanumber")
	assert.Error(t, err)
}

func TestSweepable_KeepsReserveMarginAndFee(t *testing.T) {
	a := newTestAdapter(t, false)

	// locked = 10_000_000 reserve + 1_000_000 margin + 12 fee
	tests := []struct {
		name    string
		balance int64
		want    int64
	}{
		{name: "above reserve", balance: 25_000_000, want: 13_999_988},
		{name: "exactly locked", balance: 11_000_012, want: 0},
		{name: "below reserve", balance: 5_000_000, want: -6_000_012},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.sweepable(big.NewInt(tt.balance))
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestSweep_SharedModeIsNoOp(t *testing.T) {
	a := newTestAdapter(t, true)

	attempt := a.Sweep(context.Background(), 7, xrpAsset)
	assert.Equal(t, domain.SweepSkippedEmpty, attempt.Outcome)
	assert.Empty(t, attempt.TxHash)
}

func TestSweep_NonNativeAssetFails(t *testing.T) {
	a := newTestAdapter(t, false)

	attempt := a.Sweep(context.Background(), 7, domain.Asset{Symbol: "USD", Contract: "issuer"})
	assert.Equal(t, domain.SweepFailed, attempt.Outcome)
	assert.ErrorIs(t, attempt.Err, domain.ErrUnsupportedAsset)
}

func historyEntry(t *testing.T, dest data.Account, tag *uint32, delivered string, when uint32) *data.TransactionWithMetaData {
	t.Helper()
	amount, err := data.NewAmount(delivered)
	require.NoError(t, err)

	payment := &data.Payment{Destination: dest}
	payment.DestinationTag = tag

	twm := &data.TransactionWithMetaData{
		Transaction: payment,
		Date:        *data.NewRippleTime(when),
	}
	twm.MetaData.DeliveredAmount = amount
	return twm
}

func TestIncomingPayment_CarriesLedgerCloseTime(t *testing.T) {
	a := newTestAdapter(t, false)

	const closeTime = 783_346_409 // seconds since the ripple epoch
	twm := historyEntry(t, a.masterAccount, nil, "25", closeTime)

	tx, ok := a.incomingPayment(twm, a.masterAccount, nil, a.masterAddress)
	require.True(t, ok)

	assert.Equal(t, a.masterAddress, tx.To)
	assert.Equal(t, "XRP", tx.Asset.Symbol)
	assert.Positive(t, tx.Amount.Sign())
	// The ripple epoch is 2000-01-01T00:00:00Z.
	assert.Equal(t, int64(946_684_800+closeTime), tx.BlockTime.Unix())
}

func TestIncomingPayment_SharedModeFiltersByTag(t *testing.T) {
	a := newTestAdapter(t, true)

	mine := uint32(7)
	other := uint32(8)

	_, ok := a.incomingPayment(historyEntry(t, a.masterAccount, &other, "25", 1), a.masterAccount, &mine, a.masterAddress)
	assert.False(t, ok)

	_, ok = a.incomingPayment(historyEntry(t, a.masterAccount, nil, "25", 1), a.masterAccount, &mine, a.masterAddress)
	assert.False(t, ok)

	_, ok = a.incomingPayment(historyEntry(t, a.masterAccount, &mine, "25", 1), a.masterAccount, &mine, a.masterAddress)
	assert.True(t, ok)
}

func TestIncomingPayment_RejectsFailedAndEmptyDeliveries(t *testing.T) {
	a := newTestAdapter(t, false)

	failed := historyEntry(t, a.masterAccount, nil, "25", 1)
	failed.MetaData.TransactionResult = data.TransactionResult(100) // tecCLAIM
	_, ok := a.incomingPayment(failed, a.masterAccount, nil, a.masterAddress)
	assert.False(t, ok)

	undelivered := historyEntry(t, a.masterAccount, nil, "25", 1)
	undelivered.MetaData.DeliveredAmount = nil
	_, ok = a.incomingPayment(undelivered, a.masterAccount, nil, a.masterAddress)
	assert.False(t, ok)
}
