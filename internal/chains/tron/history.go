package tron

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

// History lists transfers credited to an address. The gRPC node has no
// per-address index, so history comes from a trongrid-compatible HTTP API.
type History interface {
	IncomingTransfers(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error)
}

type tronGridHistory struct {
	http    adapter.HTTPClient
	baseURL string
	apiKey  string
	native  domain.Asset
	tokens  map[string]domain.Asset
}

// NewTronGridHistory builds a History over the trongrid account endpoints.
func NewTronGridHistory(http adapter.HTTPClient, baseURL, apiKey string, native domain.Asset, tokens []domain.Asset) History {
	byContract := make(map[string]domain.Asset, len(tokens))
	for _, t := range tokens {
		byContract[t.Contract] = t
	}
	return &tronGridHistory{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		native:  native,
		tokens:  byContract,
	}
}

func (h *tronGridHistory) headers() map[string]string {
	if h.apiKey == "" {
		return nil
	}
	return map[string]string{"TRON-PRO-API-KEY": h.apiKey}
}

type gridTxPage struct {
	Success bool     `json:"success"`
	Data    []gridTx `json:"data"`
}

type gridTx struct {
	TxID           string `json:"txID"`
	BlockTimestamp int64  `json:"block_timestamp"`
	Ret            []struct {
		ContractRet string `json:"contractRet"`
	} `json:"ret"`
	RawData struct {
		Contract []struct {
			Type      string `json:"type"`
			Parameter struct {
				Value struct {
					Amount       int64  `json:"amount"`
					OwnerAddress string `json:"owner_address"`
					ToAddress    string `json:"to_address"`
				} `json:"value"`
			} `json:"parameter"`
		} `json:"contract"`
	} `json:"raw_data"`
}

type gridTRC20Page struct {
	Success bool         `json:"success"`
	Data    []gridTRC20Tx `json:"data"`
}

type gridTRC20Tx struct {
	TransactionID  string `json:"transaction_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Value          string `json:"value"`
	BlockTimestamp int64  `json:"block_timestamp"`
	TokenInfo      struct {
		Address string `json:"address"`
	} `json:"token_info"`
}

func (h *tronGridHistory) IncomingTransfers(ctx context.Context, address string, limit int) ([]domain.IncomingTx, error) {
	q := url.Values{}
	q.Set("only_to", "true")
	q.Set("only_confirmed", "true")
	q.Set("order_by", "block_timestamp,desc")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var native gridTxPage
	nativeURL := fmt.Sprintf("%s/v1/accounts/%s/transactions?%s", h.baseURL, address, q.Encode())
	if err := h.http.GetWithHeaders(ctx, nativeURL, h.headers(), &native); err != nil {
		return nil, fmt.Errorf("trongrid transactions: %w", err)
	}
	if !native.Success {
		return nil, fmt.Errorf("%w: trongrid transactions", domain.ErrProviderRejected)
	}

	var trc20 gridTRC20Page
	trc20URL := fmt.Sprintf("%s/v1/accounts/%s/transactions/trc20?%s", h.baseURL, address, q.Encode())
	if err := h.http.GetWithHeaders(ctx, trc20URL, h.headers(), &trc20); err != nil {
		return nil, fmt.Errorf("trongrid trc20: %w", err)
	}
	if !trc20.Success {
		return nil, fmt.Errorf("%w: trongrid trc20", domain.ErrProviderRejected)
	}

	out := make([]domain.IncomingTx, 0, len(native.Data)+len(trc20.Data))
	for _, tx := range native.Data {
		in, ok := h.convertNative(tx)
		if ok {
			out = append(out, in)
		}
	}
	for _, tx := range trc20.Data {
		asset, ok := h.tokens[tx.TokenInfo.Address]
		if !ok {
			continue
		}
		amount, ok := new(big.Int).SetString(tx.Value, 10)
		if !ok || amount.Sign() == 0 {
			continue
		}
		out = append(out, domain.IncomingTx{
			Hash:      tx.TransactionID,
			From:      tx.From,
			To:        tx.To,
			Asset:     asset,
			Amount:    amount,
			BlockTime: time.UnixMilli(tx.BlockTimestamp).UTC(),
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *tronGridHistory) convertNative(tx gridTx) (domain.IncomingTx, bool) {
	if len(tx.RawData.Contract) == 0 || tx.RawData.Contract[0].Type != "TransferContract" {
		return domain.IncomingTx{}, false
	}
	if len(tx.Ret) > 0 && tx.Ret[0].ContractRet != "SUCCESS" {
		return domain.IncomingTx{}, false
	}

	v := tx.RawData.Contract[0].Parameter.Value
	if v.Amount <= 0 {
		return domain.IncomingTx{}, false
	}

	return domain.IncomingTx{
		Hash:      tx.TxID,
		From:      v.OwnerAddress,
		To:        v.ToAddress,
		Asset:     h.native,
		Amount:    big.NewInt(v.Amount),
		BlockTime: time.UnixMilli(tx.BlockTimestamp).UTC(),
	}, true
}
