package evm

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixpay/custody-engine/internal/adapter"
	"github.com/helixpay/custody-engine/internal/domain"
)

// Explorer lists transfers credited to an address. Balance queries go to the
// node; history needs an indexed view the node does not offer, so it comes
// from an explorer API instead.
type Explorer interface {
	IncomingTransfers(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error)
}

type etherscanExplorer struct {
	http    adapter.HTTPClient
	baseURL string
	apiKey  string
	native  domain.Asset
	tokens  map[string]domain.Asset
}

// NewEtherscanExplorer builds an Explorer over an etherscan-compatible API.
// Token transfers are matched by contract address against the configured
// token list; transfers of unknown contracts are dropped.
func NewEtherscanExplorer(http adapter.HTTPClient, baseURL, apiKey string, native domain.Asset, tokens []domain.Asset) Explorer {
	byContract := make(map[string]domain.Asset, len(tokens))
	for _, t := range tokens {
		byContract[strings.ToLower(t.Contract)] = t
	}
	return &etherscanExplorer{
		http:    http,
		baseURL: baseURL,
		apiKey:  apiKey,
		native:  native,
		tokens:  byContract,
	}
}

type etherscanResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Result  []etherscanTx  `json:"result"`
}

type etherscanTx struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TimeStamp       string `json:"timeStamp"`
	IsError         string `json:"isError"`
}

func (e *etherscanExplorer) IncomingTransfers(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	native, err := e.list(ctx, "txlist", address, limit)
	if err != nil {
		return nil, err
	}

	tokens, err := e.list(ctx, "tokentx", address, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.IncomingTx, 0, len(native)+len(tokens))
	for _, tx := range native {
		if tx.IsError == "1" || !strings.EqualFold(tx.To, address) {
			continue
		}
		in, ok := e.convert(tx, e.native)
		if ok {
			out = append(out, in)
		}
	}
	for _, tx := range tokens {
		if !strings.EqualFold(tx.To, address) {
			continue
		}
		asset, ok := e.tokens[strings.ToLower(tx.ContractAddress)]
		if !ok {
			continue
		}
		in, ok := e.convert(tx, asset)
		if ok {
			out = append(out, in)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (e *etherscanExplorer) list(ctx context.Context, action, address string, limit int) ([]etherscanTx, error) {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", action)
	q.Set("address", address)
	q.Set("sort", "desc")
	q.Set("page", "1")
	if limit > 0 {
		q.Set("offset", strconv.Itoa(limit))
	}
	if e.apiKey != "" {
		q.Set("apikey", e.apiKey)
	}

	var resp etherscanResponse
	if err := e.http.Get(ctx, fmt.Sprintf("%s?%s", e.baseURL, q.Encode()), &resp); err != nil {
		return nil, fmt.Errorf("explorer %s: %w", action, err)
	}

	// Status "0" with "No transactions found" is an empty page, not a fault.
	if resp.Status != "1" && !strings.Contains(resp.Message, "No transactions") {
		return nil, fmt.Errorf("%w: explorer %s: %s", domain.ErrProviderRejected, action, resp.Message)
	}
	return resp.Result, nil
}

func (e *etherscanExplorer) convert(tx etherscanTx, asset domain.Asset) (domain.IncomingTx, bool) {
	amount, ok := new(big.Int).SetString(tx.Value, 10)
	if !ok || amount.Sign() == 0 {
		return domain.IncomingTx{}, false
	}

	ts, err := strconv.ParseInt(tx.TimeStamp, 10, 64)
	if err != nil {
		ts = 0
	}

	return domain.IncomingTx{
		Hash:      tx.Hash,
		From:      tx.From,
		To:        tx.To,
		Asset:     asset,
		Amount:    amount,
		BlockTime: time.Unix(ts, 0).UTC(),
	}, true
}
