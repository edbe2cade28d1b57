package utxo

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/helixpay/custody-engine/internal/adapter"
	"github.com/helixpay/custody-engine/internal/domain"
)

// UTXO is one spendable output as the gateway reports it.
type UTXO struct {
	TxID      string
	Vout      uint32
	Value     int64 // base units
	Confirmed bool
}

// AddressTx is one transaction touching an address, reduced to the pieces
// deposit detection needs.
type AddressTx struct {
	TxID      string
	Confirmed bool
	BlockTime time.Time
	// Inputs lists the spending addresses, outputs the receiving ones.
	Inputs  []string
	Outputs []TxOutput
}

// TxOutput is one output of an AddressTx.
type TxOutput struct {
	Address string
	Value   int64
}

// Gateway is the explorer backing a UTXO chain. Implementations speak the
// esplora REST dialect; anything matching that surface works.
//
//go:generate mockgen -source=gateway.go -destination=../../mocks/utxo_gateway.go -package=mocks -mock_names=Gateway=MockUTXOGateway
type Gateway interface {
	ListUnspent(ctx context.Context, address string) ([]UTXO, error)
	// FeeRate returns the recommended fee rate in base units per vbyte.
	FeeRate(ctx context.Context) (int64, error)
	// Broadcast submits a raw transaction hex and returns the txid.
	Broadcast(ctx context.Context, rawHex string) (string, error)
	AddressTxs(ctx context.Context, address string) ([]AddressTx, error)
	// TxStatus reports whether the transaction is known and confirmed.
	TxStatus(ctx context.Context, txid string) (confirmed bool, found bool, err error)
}

type esploraGateway struct {
	http    adapter.HTTPClient
	baseURL string
}

// NewEsploraGateway builds a Gateway over an esplora-compatible REST API.
func NewEsploraGateway(http adapter.HTTPClient, baseURL string) Gateway {
	return &esploraGateway{http: http, baseURL: strings.TrimRight(baseURL, "/")}
}

type esploraStatus struct {
	Confirmed bool  `json:"confirmed"`
	BlockTime int64 `json:"block_time"`
}

type esploraUTXO struct {
	TxID   string        `json:"txid"`
	Vout   uint32        `json:"vout"`
	Value  int64         `json:"value"`
	Status esploraStatus `json:"status"`
}

type esploraTx struct {
	TxID   string        `json:"txid"`
	Status esploraStatus `json:"status"`
	Vin    []struct {
		Prevout struct {
			ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
}

func (g *esploraGateway) ListUnspent(ctx context.Context, address string) ([]UTXO, error) {
	var raw []esploraUTXO
	if err := g.http.Get(ctx, fmt.Sprintf("%s/address/%s/utxo", g.baseURL, address), &raw); err != nil {
		return nil, fmt.Errorf("list unspent: %w", err)
	}

	out := make([]UTXO, 0, len(raw))
	for _, u := range raw {
		out = append(out, UTXO{
			TxID:      u.TxID,
			Vout:      u.Vout,
			Value:     u.Value,
			Confirmed: u.Status.Confirmed,
		})
	}
	return out, nil
}

// FeeRate reads the fee estimate for a six-block confirmation target.
func (g *esploraGateway) FeeRate(ctx context.Context) (int64, error) {
	var estimates map[string]float64
	if err := g.http.Get(ctx, fmt.Sprintf("%s/fee-estimates", g.baseURL), &estimates); err != nil {
		return 0, fmt.Errorf("fee estimates: %w", err)
	}

	rate, ok := estimates["6"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("fee estimates: no 6-block target")
	}
	return int64(math.Ceil(rate)), nil
}

func (g *esploraGateway) Broadcast(ctx context.Context, rawHex string) (string, error) {
	body, err := g.http.Post(ctx, fmt.Sprintf("%s/tx", g.baseURL), "text/plain", strings.NewReader(rawHex))
	if err != nil {
		return "", fmt.Errorf("%w: broadcast: %v", domain.ErrProviderRejected, err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (g *esploraGateway) AddressTxs(ctx context.Context, address string) ([]AddressTx, error) {
	var raw []esploraTx
	if err := g.http.Get(ctx, fmt.Sprintf("%s/address/%s/txs", g.baseURL, address), &raw); err != nil {
		return nil, fmt.Errorf("address txs: %w", err)
	}

	out := make([]AddressTx, 0, len(raw))
	for _, tx := range raw {
		at := AddressTx{
			TxID:      tx.TxID,
			Confirmed: tx.Status.Confirmed,
			BlockTime: time.Unix(tx.Status.BlockTime, 0).UTC(),
		}
		for _, in := range tx.Vin {
			if in.Prevout.ScriptPubKeyAddress != "" {
				at.Inputs = append(at.Inputs, in.Prevout.ScriptPubKeyAddress)
			}
		}
		for _, o := range tx.Vout {
			at.Outputs = append(at.Outputs, TxOutput{Address: o.ScriptPubKeyAddress, Value: o.Value})
		}
		out = append(out, at)
	}
	return out, nil
}

func (g *esploraGateway) TxStatus(ctx context.Context, txid string) (bool, bool, error) {
	var status esploraStatus
	err := g.http.Get(ctx, fmt.Sprintf("%s/tx/%s/status", g.baseURL, txid), &status)
	if err != nil {
		// The explorer answers 404 for transactions it has never seen.
		if strings.Contains(err.Error(), "status code 404") {
			return false, false, nil
		}
		return false, false, fmt.Errorf("tx status: %w", err)
	}
	return status.Confirmed, true, nil
}
