package verify_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixpay/custody-engine/internal/domain"
	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/mocks"
	"github.com/helixpay/custody-engine/internal/store/schema"
	"github.com/helixpay/custody-engine/internal/verify"
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

func withdrawalRows(ids ...int64) []schema.LedgerTransaction {
	rows := make([]schema.LedgerTransaction, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, schema.LedgerTransaction{ID: id, Network: "ethereum"})
	}
	return rows
}

func TestSubmitPending_RowFaultsAreIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	engine := mocks.NewMockWithdrawEngine(ctrl)
	job := verify.New(ledger, engine)
	ctx := context.Background()

	ledger.EXPECT().
		FindWithdrawals(ctx, domain.LedgerStatusProcessing, 0).
		Return(withdrawalRows(1, 2, 3), nil)

	// Row 2 hits a transient fault; rows 1 and 3 still get submitted.
	engine.EXPECT().Submit(ctx, rowWithID(1)).Return(nil)
	engine.EXPECT().Submit(ctx, rowWithID(2)).Return(errors.New("rpc unavailable"))
	engine.EXPECT().Submit(ctx, rowWithID(3)).Return(nil)

	require.NoError(t, job.SubmitPending(ctx))
}

func TestSubmitPending_ListFaultStopsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	engine := mocks.NewMockWithdrawEngine(ctrl)
	job := verify.New(ledger, engine)
	ctx := context.Background()

	ledger.EXPECT().
		FindWithdrawals(ctx, domain.LedgerStatusProcessing, 0).
		Return(nil, errors.New("db down"))

	assert.Error(t, job.SubmitPending(ctx))
}

func TestVerifySubmitted_ChecksEveryPendingRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	engine := mocks.NewMockWithdrawEngine(ctrl)
	job := verify.New(ledger, engine)
	ctx := context.Background()

	ledger.EXPECT().
		FindWithdrawals(ctx, domain.LedgerStatusPending, -1).
		Return(withdrawalRows(5, 6), nil)
	engine.EXPECT().Verify(ctx, rowWithID(5)).Return(errors.New("rpc unavailable"))
	engine.EXPECT().Verify(ctx, rowWithID(6)).Return(nil)

	require.NoError(t, job.VerifySubmitted(ctx))
}

func TestRun_SubmitsBeforeVerifying(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ledger := mocks.NewMockLedgerStore(ctrl)
	engine := mocks.NewMockWithdrawEngine(ctrl)
	job := verify.New(ledger, engine)
	ctx := context.Background()

	gomock.InOrder(
		ledger.EXPECT().
			FindWithdrawals(ctx, domain.LedgerStatusProcessing, 0).
			Return(withdrawalRows(1), nil),
		engine.EXPECT().Submit(ctx, rowWithID(1)).Return(nil),
		ledger.EXPECT().
			FindWithdrawals(ctx, domain.LedgerStatusPending, -1).
			Return(nil, nil),
	)

	require.NoError(t, job.Run(ctx))
}

// rowWithID matches a ledger row pointer by primary key.
func rowWithID(id int64) gomock.Matcher {
	return rowIDMatcher{id: id}
}

type rowIDMatcher struct {
	id int64
}

func (m rowIDMatcher) Matches(x interface{}) bool {
	row, ok := x.(*schema.LedgerTransaction)
	return ok && row.ID == m.id
}

func (m rowIDMatcher) String() string {
	return "ledger row with matching id"
}
