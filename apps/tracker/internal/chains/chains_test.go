package chains

import (
	"errors"
	"testing"
)

func TestNewDefaultRegistry(t *testing.T) {
	registry, err := NewDefaultRegistry(nil, map[string]string{"base": "http://localhost:8545"})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	if len(registry.All()) != len(DefaultChains) {
		t.Errorf("Expected %d chains, got %d", len(DefaultChains), len(registry.All()))
	}

	base, ok := registry.Get("BASE")
	if !ok {
		t.Fatal("Expected case-insensitive lookup of base to succeed")
	}
	if base.RPCURL != "http://localhost:8545" {
		t.Errorf("Expected RPC override to apply, got %s", base.RPCURL)
	}

	if chain, ok := registry.GetByChainID(1); !ok || chain.Key != "ethereum" {
		t.Errorf("Expected chain id 1 to map to ethereum, got %+v", chain)
	}
}

func TestNewDefaultRegistryEnabled(t *testing.T) {
	registry, err := NewDefaultRegistry([]string{"ethereum", "polygon"}, nil)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	keys := registry.Keys()
	if len(keys) != 2 || keys[0] != "ethereum" || keys[1] != "polygon" {
		t.Errorf("Unexpected keys %v", keys)
	}

	if _, err := NewDefaultRegistry([]string{"ethereum", "dogechain"}, nil); !errors.Is(err, ErrUnknownChain) {
		t.Errorf("Expected ErrUnknownChain for unknown enabled chain, got %v", err)
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Chain{
		{Key: "a", RPCURL: "http://a", ChainID: 1},
		{Key: "A", RPCURL: "http://b", ChainID: 2},
	})
	if err == nil {
		t.Error("Expected duplicate key to be rejected")
	}

	_, err = NewRegistry([]Chain{
		{Key: "a", RPCURL: "http://a", ChainID: 1},
		{Key: "b", RPCURL: "http://b", ChainID: 1},
	})
	if err == nil {
		t.Error("Expected duplicate chain id to be rejected")
	}
}

func TestLookupAndAddressURL(t *testing.T) {
	registry, err := NewRegistry([]Chain{{Key: "dev", RPCURL: "http://dev", ExplorerURL: "https://scan.dev/", ChainID: 1337}})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	chain, err := registry.Lookup("dev")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got := chain.AddressURL("0xabc"); got != "https://scan.dev/address/0xabc" {
		t.Errorf("Unexpected address URL %s", got)
	}

	if _, err := registry.Lookup("nope"); !errors.Is(err, ErrUnknownChain) {
		t.Errorf("Expected ErrUnknownChain, got %v", err)
	}
}

func TestNewDefaultRegistrySingleEnabledChain(t *testing.T) {
	// bsc precedes most defaults, every later chain must still be filtered out
	registry, err := NewDefaultRegistry([]string{"BSC"}, nil)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	keys := registry.Keys()
	if len(keys) != 1 || keys[0] != "bsc" {
		t.Errorf("Expected only bsc, got %v", keys)
	}
	if _, ok := registry.Get("base"); ok {
		t.Error("Expected base to be excluded")
	}
}

func TestNormalizeAddress(t *testing.T) {
	checksummed, err := NormalizeAddress("0x0b8fa6f76eb75ae3a4ca28eb3020dfc4503f2136")
	if err != nil {
		t.Fatalf("NormalizeAddress failed: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"Lowercase", "0x0b8fa6f76eb75ae3a4ca28eb3020dfc4503f2136", checksummed, nil},
		{"NoPrefix", "0B8FA6F76EB75AE3A4CA28EB3020DFC4503F2136", checksummed, nil},
		{"Padded", "  " + checksummed + " ", checksummed, nil},
		{"TooShort", "0x1234", "", ErrInvalidAddress},
		{"NotHex", "not-an-address", "", ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddress(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
