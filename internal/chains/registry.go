package chains

import (
	"fmt"
	"sort"
	"strings"

	"github.com/helixpay/custody-engine/internal/domain"
)

// Registry holds one configured adapter per chain plus the asset list each
// chain sweeps and accepts withdrawals in. It is built once at process start
// and injected into jobs by reference; nothing here mutates after Build.
type Registry struct {
	adapters map[domain.Network]Adapter
	assets   map[domain.Network][]domain.Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.Network]Adapter),
		assets:   make(map[domain.Network][]domain.Asset),
	}
}

// Register installs an adapter and its configured assets.
func (r *Registry) Register(a Adapter, assets []domain.Asset) {
	r.adapters[a.Network()] = a
	r.assets[a.Network()] = assets
}

// Adapter resolves the adapter for a network.
func (r *Registry) Adapter(network domain.Network) (Adapter, error) {
	a, ok := r.adapters[network]
	if !ok {
		return nil, fmt.Errorf("%w: network %s not configured", domain.ErrUnsupportedAsset, network)
	}
	return a, nil
}

// Networks lists configured networks in stable order.
func (r *Registry) Networks() []domain.Network {
	out := make([]domain.Network, 0, len(r.adapters))
	for n := range r.adapters {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Assets lists the configured assets for a network.
func (r *Registry) Assets(network domain.Network) []domain.Asset {
	return r.assets[network]
}

// Asset resolves a configured asset by symbol on a network.
func (r *Registry) Asset(network domain.Network, symbol string) (domain.Asset, error) {
	for _, a := range r.assets[network] {
		if strings.EqualFold(a.Symbol, symbol) {
			return a, nil
		}
	}
	return domain.Asset{}, fmt.Errorf("%w: %s on %s", domain.ErrUnsupportedAsset, symbol, network)
}
