package chains

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownChain is returned for chain keys missing from the registry
var ErrUnknownChain = errors.New("unknown chain")

// Chain describes an EVM network the tracker can poll
type Chain struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	RPCURL       string `json:"rpc_url"`
	ExplorerURL  string `json:"explorer_url"`
	ChainID      int64  `json:"chain_id"`
	NativeSymbol string `json:"native_symbol"`
	Decimals     int32  `json:"decimals"`
}

// AddressURL returns the explorer page for an address on this chain
func (c Chain) AddressURL(address string) string {
	return strings.TrimRight(c.ExplorerURL, "/") + "/address/" + address
}

// Registry holds all supported chains, keyed by their short lowercase key
type Registry struct {
	chains map[string]Chain
	byID   map[int64]Chain
}

// DefaultChains are the networks known out of the box. RPC endpoints are public
// and can be overridden per chain.
var DefaultChains = []Chain{
	{
		Key:          "ethereum",
		Name:         "Ethereum",
		RPCURL:       "https://ethereum-rpc.publicnode.com",
		ExplorerURL:  "https://etherscan.io",
		ChainID:      1,
		NativeSymbol: "ETH",
		Decimals:     18,
	},
	{
		Key:          "bsc",
		Name:         "BNB Smart Chain",
		RPCURL:       "https://bsc-dataseed.binance.org",
		ExplorerURL:  "https://bscscan.com",
		ChainID:      56,
		NativeSymbol: "BNB",
		Decimals:     18,
	},
	{
		Key:          "polygon",
		Name:         "Polygon",
		RPCURL:       "https://polygon-rpc.com",
		ExplorerURL:  "https://polygonscan.com",
		ChainID:      137,
		NativeSymbol: "POL",
		Decimals:     18,
	},
	{
		Key:          "arbitrum",
		Name:         "Arbitrum One",
		RPCURL:       "https://arb1.arbitrum.io/rpc",
		ExplorerURL:  "https://arbiscan.io",
		ChainID:      42161,
		NativeSymbol: "ETH",
		Decimals:     18,
	},
	{
		Key:          "optimism",
		Name:         "Optimism",
		RPCURL:       "https://mainnet.optimism.io",
		ExplorerURL:  "https://optimistic.etherscan.io",
		ChainID:      10,
		NativeSymbol: "ETH",
		Decimals:     18,
	},
	{
		Key:          "base",
		Name:         "Base",
		RPCURL:       "https://mainnet.base.org",
		ExplorerURL:  "https://basescan.org",
		ChainID:      8453,
		NativeSymbol: "ETH",
		Decimals:     18,
	},
}

// NewRegistry builds a registry from the given chains. Keys are normalized to
// lowercase; duplicate keys or chain ids are rejected.
func NewRegistry(chains []Chain) (*Registry, error) {
	registry := &Registry{
		chains: make(map[string]Chain, len(chains)),
		byID:   make(map[int64]Chain, len(chains)),
	}

	for _, chain := range chains {
		chain.Key = strings.ToLower(strings.TrimSpace(chain.Key))
		if chain.Key == "" {
			return nil, fmt.Errorf("chain %q has an empty key", chain.Name)
		}
		if chain.RPCURL == "" {
			return nil, fmt.Errorf("chain %s has no RPC endpoint", chain.Key)
		}
		if _, exists := registry.chains[chain.Key]; exists {
			return nil, fmt.Errorf("duplicate chain key %s", chain.Key)
		}
		if _, exists := registry.byID[chain.ChainID]; exists {
			return nil, fmt.Errorf("duplicate chain id %d", chain.ChainID)
		}
		registry.chains[chain.Key] = chain
		registry.byID[chain.ChainID] = chain
	}

	return registry, nil
}

// NewDefaultRegistry builds the registry from DefaultChains, keeping only the
// enabled keys (all when empty) and applying RPC overrides.
func NewDefaultRegistry(enabled []string, rpcOverrides map[string]string) (*Registry, error) {
	allowed := make(map[string]bool, len(enabled))
	for _, key := range enabled {
		allowed[strings.ToLower(strings.TrimSpace(key))] = true
	}

	seen := make(map[string]bool, len(allowed))
	var selected []Chain
	for _, chain := range DefaultChains {
		if len(allowed) > 0 && !allowed[chain.Key] {
			continue
		}
		if url, ok := rpcOverrides[chain.Key]; ok && url != "" {
			chain.RPCURL = url
		}
		selected = append(selected, chain)
		seen[chain.Key] = true
	}

	var unknown []string
	for key := range allowed {
		if !seen[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, strings.Join(unknown, ", "))
	}

	return NewRegistry(selected)
}

// Get returns a chain by its key (case-insensitive)
func (r *Registry) Get(key string) (Chain, bool) {
	chain, exists := r.chains[strings.ToLower(strings.TrimSpace(key))]
	return chain, exists
}

// Lookup is Get with ErrUnknownChain as the failure value
func (r *Registry) Lookup(key string) (Chain, error) {
	chain, exists := r.Get(key)
	if !exists {
		return Chain{}, fmt.Errorf("%w: %s", ErrUnknownChain, key)
	}
	return chain, nil
}

// GetByChainID returns a chain by its numeric chain id
func (r *Registry) GetByChainID(chainID int64) (Chain, bool) {
	chain, exists := r.byID[chainID]
	return chain, exists
}

// All returns every chain sorted by key
func (r *Registry) All() []Chain {
	chains := make([]Chain, 0, len(r.chains))
	for _, chain := range r.chains {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].Key < chains[j].Key })
	return chains
}

// Keys returns all chain keys, sorted
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.chains))
	for key := range r.chains {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
