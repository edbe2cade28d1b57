// Package rates resolves exchange rates for deposit crediting: the USD spot
// price of a crypto asset and the local-currency rate applied on top of it.
package rates

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/helixpay/custody-engine/internal/adapter"
)

// Oracle answers the two rate questions the reconciliation credit path asks.
//
//go:generate mockgen -source=oracle.go -destination=../mocks/oracle.go -package=mocks -mock_names=Oracle=MockOracle
type Oracle interface {
	// GetActiveRate returns the local-currency units per USD
	GetActiveRate(ctx context.Context, currency string) (decimal.Decimal, error)

	// GetSpotPriceUSD returns the USD price of one display unit of the asset
	GetSpotPriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type httpOracle struct {
	http    adapter.HTTPClient
	baseURL string
	apiKey  string
}

// NewHTTPOracle builds an Oracle over the rate service's REST API. Retry and
// timeout policy comes from the shared HTTP client.
func NewHTTPOracle(http adapter.HTTPClient, baseURL, apiKey string) Oracle {
	return &httpOracle{http: http, baseURL: baseURL, apiKey: apiKey}
}

func (o *httpOracle) headers() map[string]string {
	if o.apiKey == "" {
		return nil
	}
	return map[string]string{"X-API-Key": o.apiKey}
}

type rateResponse struct {
	Rate decimal.Decimal `json:"rate"`
}

type spotResponse struct {
	PriceUSD decimal.Decimal `json:"price_usd"`
}

func (o *httpOracle) GetActiveRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	var resp rateResponse
	endpoint := fmt.Sprintf("%s/v1/rates/%s", o.baseURL, url.PathEscape(currency))
	if err := o.http.GetWithHeaders(ctx, endpoint, o.headers(), &resp); err != nil {
		return decimal.Zero, fmt.Errorf("active rate %s: %w", currency, err)
	}
	if resp.Rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("active rate %s: non-positive rate", currency)
	}
	return resp.Rate, nil
}

func (o *httpOracle) GetSpotPriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var resp spotResponse
	endpoint := fmt.Sprintf("%s/v1/spot/%s", o.baseURL, url.PathEscape(symbol))
	if err := o.http.GetWithHeaders(ctx, endpoint, o.headers(), &resp); err != nil {
		return decimal.Zero, fmt.Errorf("spot price %s: %w", symbol, err)
	}
	if resp.PriceUSD.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("spot price %s: non-positive price", symbol)
	}
	return resp.PriceUSD, nil
}
