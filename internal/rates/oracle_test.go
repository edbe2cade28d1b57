package rates_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixpay/custody-engine/internal/logger"
	"github.com/helixpay/custody-engine/internal/mocks"
	"github.com/helixpay/custody-engine/internal/rates"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: false})
	os.Exit(m.Run())
}

func respondWith(payload string) func(ctx context.Context, url string, headers map[string]string, result interface{}) error {
	return func(_ context.Context, _ string, _ map[string]string, result interface{}) error {
		return json.Unmarshal([]byte(payload), result)
	}
}

func TestGetSpotPriceUSD(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		GetWithHeaders(gomock.Any(), "https://rates.test/v1/spot/ETH", map[string]string{"X-API-Key": "k"}, gomock.Any()).
		DoAndReturn(respondWith(`{"price_usd":"2000.5"}`))

	oracle := rates.NewHTTPOracle(httpClient, "https://rates.test", "k")

	price, err := oracle.GetSpotPriceUSD(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("2000.5")))
}

func TestGetActiveRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	// No API key configured, so no extra headers go out.
	httpClient.EXPECT().
		GetWithHeaders(gomock.Any(), "https://rates.test/v1/rates/PHP", nil, gomock.Any()).
		DoAndReturn(respondWith(`{"rate":"56.1"}`))

	oracle := rates.NewHTTPOracle(httpClient, "https://rates.test", "")

	rate, err := oracle.GetActiveRate(context.Background(), "PHP")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("56.1")))
}

func TestOracle_RejectsNonPositiveAnswers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		GetWithHeaders(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respondWith(`{"price_usd":"0"}`))
	httpClient.EXPECT().
		GetWithHeaders(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respondWith(`{"rate":"-1"}`))

	oracle := rates.NewHTTPOracle(httpClient, "https://rates.test", "")

	_, err := oracle.GetSpotPriceUSD(context.Background(), "ETH")
	assert.Error(t, err)
	_, err = oracle.GetActiveRate(context.Background(), "PHP")
	assert.Error(t, err)
}

func TestOracle_SurfacesTransportFaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("connection refused")
	httpClient := mocks.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		GetWithHeaders(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(boom)

	oracle := rates.NewHTTPOracle(httpClient, "https://rates.test", "")

	_, err := oracle.GetSpotPriceUSD(context.Background(), "ETH")
	assert.ErrorIs(t, err, boom)
}
