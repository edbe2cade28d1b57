package withdraw_test

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
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/mocks"
	"github.com/helixpay/custody-engine/internal/store/schema"
	"github.com/helixpay/custody-engine/internal/withdraw"
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

var ethAsset = domain.Asset{Symbol: "ETH", Decimals: 18}

func testRegistry(ctrl *gomock.Controller) *chains.Registry {
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().Network().Return(domain.NetworkEthereum).AnyTimes()

	registry := chains.NewRegistry()
	registry.Register(adapter, []domain.Asset{ethAsset})
	return registry
}

func validRequest() domain.WithdrawalRequest {
	return domain.WithdrawalRequest{
		Network:  domain.NetworkEthereum,
		Currency: "ETH",
		To:       "0xdest",
		Amount:   big.NewInt(1_000_000_000_000_000_000),
	}
}

func processingRow(t *testing.T, engine withdraw.Engine, ledger *mocks.MockLedgerStore) *schema.LedgerTransaction {
	t.Helper()
	ledger.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, row *schema.LedgerTransaction) error {
			row.ID = 42
			return nil
		})
	row, err := engine.Request(context.Background(), 7, validRequest())
	require.NoError(t, err)
	return row
}

func TestRequest_RecordsProcessingDebit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	var inserted *schema.LedgerTransaction
	ledger.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, row *schema.LedgerTransaction) error {
			inserted = row
			return nil
		})

	row, err := engine.Request(context.Background(), 7, validRequest())
	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, row, inserted)
	assert.Equal(t, uint32(7), inserted.UserID)
	assert.Equal(t, "ethereum", inserted.Network)
	assert.Equal(t, string(domain.LedgerModeDebit), inserted.Mode)
	assert.Equal(t, string(domain.LedgerEntityWithdrawal), inserted.EntityType)
	assert.Equal(t, string(domain.LedgerStatusProcessing), inserted.Status)
	assert.Equal(t, "1000000000000000000", inserted.CoinAmount)
	assert.Equal(t, "1", inserted.Amount.String())
	assert.Equal(t, 0, inserted.RetryCount)
	assert.Nil(t, inserted.ExternalRef)
}

func TestRequest_RejectsInvalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	tests := []struct {
		name   string
		mutate func(*domain.WithdrawalRequest)
	}{
		{name: "zero amount", mutate: func(r *domain.WithdrawalRequest) { r.Amount = big.NewInt(0) }},
		{name: "nil amount", mutate: func(r *domain.WithdrawalRequest) { r.Amount = nil }},
		{name: "empty destination", mutate: func(r *domain.WithdrawalRequest) { r.To = "" }},
		{name: "unknown asset", mutate: func(r *domain.WithdrawalRequest) { r.Currency = "PEPE" }},
		{name: "unknown network", mutate: func(r *domain.WithdrawalRequest) { r.Network = domain.NetworkSolana }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := engine.Request(context.Background(), 7, req)
			assert.Error(t, err)
		})
	}
}

func TestSubmit_TransitionsToPendingAndCountsRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)
	row := processingRow(t, engine, ledger)

	provider.EXPECT().
		TreasuryBalance(gomock.Any(), domain.NetworkEthereum, "ETH").
		Return(big.NewInt(2_000_000_000_000_000_000), nil)
	provider.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return("0xhash", nil)

	var patch map[string]interface{}
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusProcessing, domain.LedgerStatusPending, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _, _ domain.LedgerStatus, p map[string]interface{}) (bool, error) {
			patch = p
			return true, nil
		})

	require.NoError(t, engine.Submit(context.Background(), row))

	assert.Equal(t, "0xhash", patch["external_ref"])
	// retry_count only moves on this transition, and only upward.
	assert.Contains(t, patch, "retry_count")
	assert.Equal(t, string(domain.LedgerStatusPending), row.Status)
	require.NotNil(t, row.ExternalRef)
	assert.Equal(t, "0xhash", *row.ExternalRef)
	assert.Equal(t, 1, row.RetryCount)
}

func TestSubmit_InsufficientTreasuryFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)
	row := processingRow(t, engine, ledger)

	provider.EXPECT().
		TreasuryBalance(gomock.Any(), domain.NetworkEthereum, "ETH").
		Return(big.NewInt(1), nil)
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusProcessing, domain.LedgerStatusFailed, nil).
		Return(true, nil)

	require.NoError(t, engine.Submit(context.Background(), row))
}

func TestSubmit_ProviderRejectionFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)
	row := processingRow(t, engine, ledger)

	provider.EXPECT().
		TreasuryBalance(gomock.Any(), domain.NetworkEthereum, "ETH").
		Return(big.NewInt(2_000_000_000_000_000_000), nil)
	provider.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return("", domain.ErrProviderRejected)
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusProcessing, domain.LedgerStatusFailed, nil).
		Return(true, nil)

	require.NoError(t, engine.Submit(context.Background(), row))
}

func TestSubmit_TransientBalanceFaultLeavesRowProcessing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)
	row := processingRow(t, engine, ledger)

	provider.EXPECT().
		TreasuryBalance(gomock.Any(), domain.NetworkEthereum, "ETH").
		Return(nil, errors.New("rpc unavailable"))

	// No UpdateStatus expected: the row stays processing for the next run.
	err := engine.Submit(context.Background(), row)
	assert.Error(t, err)
	assert.Equal(t, string(domain.LedgerStatusProcessing), row.Status)
}

func TestSubmit_CorruptMetadataFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	row := &schema.LedgerTransaction{
		ID:         9,
		Network:    "ethereum",
		Currency:   "ETH",
		CoinAmount: "1000",
		Status:     string(domain.LedgerStatusProcessing),
		Metadata:   []byte("{not json"),
	}
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(9), domain.LedgerStatusProcessing, domain.LedgerStatusFailed, nil).
		Return(true, nil)

	require.NoError(t, engine.Submit(context.Background(), row))
}

func TestSubmit_LostRaceSkips(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)
	row := processingRow(t, engine, ledger)

	provider.EXPECT().
		TreasuryBalance(gomock.Any(), domain.NetworkEthereum, "ETH").
		Return(big.NewInt(2_000_000_000_000_000_000), nil)
	provider.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return("0xhash", nil)
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusProcessing, domain.LedgerStatusPending, gomock.Any()).
		Return(false, nil)

	require.NoError(t, engine.Submit(context.Background(), row))
	// The losing run must not mutate its copy of the row.
	assert.Equal(t, string(domain.LedgerStatusProcessing), row.Status)
	assert.Equal(t, 0, row.RetryCount)
}

func verifiableRow(hash string) *schema.LedgerTransaction {
	return &schema.LedgerTransaction{
		ID:          42,
		UserID:      7,
		Network:     "ethereum",
		Currency:    "ETH",
		Status:      string(domain.LedgerStatusPending),
		ExternalRef: &hash,
	}
}

func TestVerify_ConfirmedSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	provider.EXPECT().
		CheckStatus(gomock.Any(), domain.NetworkEthereum, "0xhash").
		Return(domain.TxStateConfirmed, nil)
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusPending, domain.LedgerStatusSuccess, nil).
		Return(true, nil)

	require.NoError(t, engine.Verify(context.Background(), verifiableRow("0xhash")))
}

func TestVerify_FailedTransitionsToFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	provider.EXPECT().
		CheckStatus(gomock.Any(), domain.NetworkEthereum, "0xhash").
		Return(domain.TxStateFailed, nil)
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusPending, domain.LedgerStatusFailed, nil).
		Return(true, nil)

	require.NoError(t, engine.Verify(context.Background(), verifiableRow("0xhash")))
}

func TestVerify_InFlightLeavesPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	provider.EXPECT().
		CheckStatus(gomock.Any(), domain.NetworkEthereum, "0xhash").
		Return(domain.TxStatePending, nil)

	// No UpdateStatus: the next run polls again.
	require.NoError(t, engine.Verify(context.Background(), verifiableRow("0xhash")))
}

func TestVerify_MissingRefIsConsistencyFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	row := verifiableRow("")
	row.ExternalRef = nil
	ledger.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), domain.LedgerStatusPending, domain.LedgerStatusFailed, nil).
		Return(true, nil)

	require.NoError(t, engine.Verify(context.Background(), row))
}

func TestWithdraw_ImmediateSubmission(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	provider := mocks.NewMockPayoutProvider(ctrl)
	engine := withdraw.New(testRegistry(ctrl), provider, ledger)

	provider.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return("0xabc", nil)

	receipt, err := engine.Withdraw(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", receipt.TxHash)
}
