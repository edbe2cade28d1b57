package utxo

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/helixpay/custody-engine/internal/chains"
	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
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

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var btcAsset = domain.Asset{Symbol: "BTC", Decimals: 8}

func bigInt(v int64) *big.Int { return big.NewInt(v) }

type fakeGateway struct {
	unspent    map[string][]UTXO
	feeRate    int64
	feeRateErr error
	broadcasts []string
	txs        map[string][]AddressTx
}

func (f *fakeGateway) ListUnspent(_ context.Context, address string) ([]UTXO, error) {
	return f.unspent[address], nil
}

func (f *fakeGateway) FeeRate(context.Context) (int64, error) {
	if f.feeRateErr != nil {
		return 0, f.feeRateErr
	}
	return f.feeRate, nil
}

func (f *fakeGateway) Broadcast(_ context.Context, rawHex string) (string, error) {
	f.broadcasts = append(f.broadcasts, rawHex)
	return fmt.Sprintf("txid-%d", len(f.broadcasts)), nil
}

func (f *fakeGateway) AddressTxs(_ context.Context, address string) ([]AddressTx, error) {
	return f.txs[address], nil
}

func (f *fakeGateway) TxStatus(context.Context, string) (bool, bool, error) {
	return false, false, nil
}

func newTestAdapter(t *testing.T, gw Gateway) *Adapter {
	t.Helper()

	a, err := New(Config{
		Network:         domain.NetworkBitcoin,
		CoinType:        0,
		Params:          &chaincfg.MainNetParams,
		Seed:            bip39.NewSeed(testMnemonic, ""),
		Native:          btcAsset,
		Gateway:         gw,
		DustLimit:       546,
		FallbackFeeRate: 10,
		Guard:           chains.NewGuard(1000, 1000, 5*time.Second),
	})
	require.NoError(t, err)
	return a
}

func decodeTx(t *testing.T, rawHex string) *wire.MsgTx {
	t.Helper()

	raw, err := hex.DecodeString(rawHex)
	require.NoError(t, err)

	var tx wire.MsgTx
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))
	return &tx
}

func TestDeriveAddressDeterministic(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})
	b := newTestAdapter(t, &fakeGateway{})

	ctx := context.Background()

	addr1, err := a.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	addr2, err := b.DeriveAddress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)

	other, err := a.DeriveAddress(ctx, 8)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, other)

	assert.NotEqual(t, a.MasterAddress(), addr1)
}

func TestSweepDrainsConfirmedUTXOs(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})

	ctx := context.Background()
	childAddr, err := a.DeriveAddress(ctx, 3)
	require.NoError(t, err)

	gw := &fakeGateway{
		feeRate: 10,
		unspent: map[string][]UTXO{
			childAddr: {
				{TxID: "8f3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 0, Value: 50000, Confirmed: true},
			},
		},
	}
	a = newTestAdapter(t, gw)

	attempt := a.Sweep(ctx, 3, btcAsset)
	require.NoError(t, attempt.Err)
	assert.Equal(t, domain.SweepSuccess, attempt.Outcome)
	assert.Equal(t, int64(50000), attempt.Detected.Int64())

	// one input, one output: (148 + 34 + 10) vbytes at 10 per vbyte
	assert.Equal(t, int64(1920), attempt.Fee.Int64())

	require.Len(t, gw.broadcasts, 1)
	tx := decodeTx(t, gw.broadcasts[0])
	require.Len(t, tx.TxOut, 1)
	assert.Equal(t, int64(48080), tx.TxOut[0].Value)
	require.Len(t, tx.TxIn, 1)
	assert.NotEmpty(t, tx.TxIn[0].SignatureScript)
}

func TestSweepSkipsDust(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})

	ctx := context.Background()
	childAddr, err := a.DeriveAddress(ctx, 4)
	require.NoError(t, err)

	gw := &fakeGateway{
		feeRate: 10,
		unspent: map[string][]UTXO{
			childAddr: {
				{TxID: "aa3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 1, Value: 1500, Confirmed: true},
			},
		},
	}
	a = newTestAdapter(t, gw)

	attempt := a.Sweep(ctx, 4, btcAsset)
	assert.Equal(t, domain.SweepSkippedDust, attempt.Outcome)
	assert.NoError(t, attempt.Err)
	assert.Empty(t, gw.broadcasts, "dust sweep must not broadcast")
	assert.Empty(t, attempt.TxHash)
}

func TestSweepSkipsWhenEmpty(t *testing.T) {
	gw := &fakeGateway{feeRate: 10}
	a := newTestAdapter(t, gw)

	attempt := a.Sweep(context.Background(), 5, btcAsset)
	assert.Equal(t, domain.SweepSkippedEmpty, attempt.Outcome)
	assert.Empty(t, gw.broadcasts)
}

func TestSweepIgnoresUnconfirmed(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})

	ctx := context.Background()
	childAddr, err := a.DeriveAddress(ctx, 6)
	require.NoError(t, err)

	gw := &fakeGateway{
		feeRate: 10,
		unspent: map[string][]UTXO{
			childAddr: {
				{TxID: "bb3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 0, Value: 90000, Confirmed: false},
			},
		},
	}
	a = newTestAdapter(t, gw)

	attempt := a.Sweep(ctx, 6, btcAsset)
	assert.Equal(t, domain.SweepSkippedEmpty, attempt.Outcome)
	assert.Empty(t, gw.broadcasts)
}

func TestSweepFallsBackToConfiguredFeeRate(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})

	ctx := context.Background()
	childAddr, err := a.DeriveAddress(ctx, 9)
	require.NoError(t, err)

	gw := &fakeGateway{
		feeRateErr: fmt.Errorf("estimator down"),
		unspent: map[string][]UTXO{
			childAddr: {
				{TxID: "cc3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 0, Value: 50000, Confirmed: true},
			},
		},
	}
	a = newTestAdapter(t, gw)

	attempt := a.Sweep(ctx, 9, btcAsset)
	require.Equal(t, domain.SweepSuccess, attempt.Outcome)
	assert.Equal(t, int64(1920), attempt.Fee.Int64(), "fallback rate of 10 per vbyte")
}

func TestWithdrawSelectsInputsAndReturnsChange(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})
	master := a.MasterAddress()

	ctx := context.Background()
	dest, err := a.DeriveAddress(ctx, 42)
	require.NoError(t, err)

	gw := &fakeGateway{
		feeRate: 10,
		unspent: map[string][]UTXO{
			master: {
				{TxID: "dd3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 0, Value: 8000, Confirmed: true},
				{TxID: "ee3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 1, Value: 7000, Confirmed: true},
			},
		},
	}
	a = newTestAdapter(t, gw)

	txid, err := a.Withdraw(ctx, domain.WithdrawalRequest{
		Network:  domain.NetworkBitcoin,
		Currency: "BTC",
		To:       dest,
		Amount:   bigInt(10000),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txid)

	require.Len(t, gw.broadcasts, 1)
	tx := decodeTx(t, gw.broadcasts[0])
	require.Len(t, tx.TxIn, 2)
	require.Len(t, tx.TxOut, 2)

	// two inputs, two outputs: (296 + 68 + 10) vbytes at 10 per vbyte
	assert.Equal(t, int64(10000), tx.TxOut[0].Value)
	assert.Equal(t, int64(15000-10000-3740), tx.TxOut[1].Value)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})
	master := a.MasterAddress()

	ctx := context.Background()
	dest, err := a.DeriveAddress(ctx, 42)
	require.NoError(t, err)

	gw := &fakeGateway{
		feeRate: 10,
		unspent: map[string][]UTXO{
			master: {
				{TxID: "ff3b8c6e3f1f0d0a0b0c0d0e0f101112131415161718191a1b1c1d1e1f202122", Vout: 0, Value: 5000, Confirmed: true},
			},
		},
	}
	a = newTestAdapter(t, gw)

	_, err = a.Withdraw(ctx, domain.WithdrawalRequest{
		Network:  domain.NetworkBitcoin,
		Currency: "BTC",
		To:       dest,
		Amount:   bigInt(20000),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Empty(t, gw.broadcasts)
}

func TestIncomingHistorySkipsSelfSpends(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})

	ctx := context.Background()
	childAddr, err := a.DeriveAddress(ctx, 11)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	gw := &fakeGateway{
		txs: map[string][]AddressTx{
			childAddr: {
				{
					TxID:      "deposit",
					Confirmed: true,
					BlockTime: now,
					Inputs:    []string{"someone-else"},
					Outputs:   []TxOutput{{Address: childAddr, Value: 30000}},
				},
				{
					// the sweep that drained the deposit
					TxID:      "sweep",
					Confirmed: true,
					BlockTime: now,
					Inputs:    []string{childAddr},
					Outputs:   []TxOutput{{Address: "treasury", Value: 28000}},
				},
				{
					TxID:      "unconfirmed",
					Confirmed: false,
					Inputs:    []string{"someone-else"},
					Outputs:   []TxOutput{{Address: childAddr, Value: 1000}},
				},
			},
		},
	}
	a = newTestAdapter(t, gw)

	txs, err := a.IncomingHistory(ctx, childAddr, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "deposit", txs[0].Hash)
	assert.Equal(t, int64(30000), txs[0].Amount.Int64())
	assert.Equal(t, "someone-else", txs[0].From)
}

func TestBalanceRejectsNonNativeAsset(t *testing.T) {
	a := newTestAdapter(t, &fakeGateway{})

	_, err := a.Balance(context.Background(), a.MasterAddress(), domain.Asset{Symbol: "USDT", Contract: "0xdead"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedAsset)
}
