package chainclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/metrics"
)

var (
	// ErrChainUnavailable covers every transport or decoding failure. Callers
	// must treat it as "no observation", never as zero activity.
	ErrChainUnavailable = errors.New("chain unavailable")
	ErrInvalidAddress   = chains.ErrInvalidAddress
)

// ChainClient lazily dials one ethclient per chain and bounds every call with
// a timeout.
type ChainClient struct {
	registry *chains.Registry
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

func NewChainClient(registry *chains.Registry, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *ChainClient {
	return &ChainClient{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
		clients:  make(map[string]*ethclient.Client),
	}
}

// TransactionCount returns the nonce of address at the latest block
func (c *ChainClient) TransactionCount(ctx context.Context, chainKey, address string) (uint64, error) {
	chain, account, err := c.resolve(chainKey, address)
	if err != nil {
		return 0, err
	}

	client, err := c.client(ctx, chain)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	count, err := client.NonceAt(ctx, account, nil)
	c.observeLatency(chain.Key, "eth_getTransactionCount", start)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrChainUnavailable, chain.Key, err)
	}

	return count, nil
}

// Balance returns the native balance of address as a decimal string in the
// chain's native unit (e.g. "1.5" ETH)
func (c *ChainClient) Balance(ctx context.Context, chainKey, address string) (string, error) {
	chain, account, err := c.resolve(chainKey, address)
	if err != nil {
		return "", err
	}

	client, err := c.client(ctx, chain)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	wei, err := client.BalanceAt(ctx, account, nil)
	c.observeLatency(chain.Key, "eth_getBalance", start)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrChainUnavailable, chain.Key, err)
	}

	return FormatBalance(wei, chain.Decimals), nil
}

// Ping checks that the chain endpoint answers and reports the expected chain id
func (c *ChainClient) Ping(ctx context.Context, chainKey string) error {
	chain, err := c.registry.Lookup(chainKey)
	if err != nil {
		return err
	}

	client, err := c.client(ctx, chain)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	chainID, err := client.ChainID(ctx)
	c.observeLatency(chain.Key, "eth_chainId", start)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrChainUnavailable, chain.Key, err)
	}

	if chain.ChainID != 0 && chainID.Int64() != chain.ChainID {
		return fmt.Errorf("%w: %s: endpoint reports chain id %s, expected %d",
			ErrChainUnavailable, chain.Key, chainID.String(), chain.ChainID)
	}

	return nil
}

func (c *ChainClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, client := range c.clients {
		client.Close()
		delete(c.clients, key)
	}
	return nil
}

func (c *ChainClient) resolve(chainKey, address string) (chains.Chain, common.Address, error) {
	checksummed, err := chains.NormalizeAddress(address)
	if err != nil {
		return chains.Chain{}, common.Address{}, err
	}

	chain, err := c.registry.Lookup(chainKey)
	if err != nil {
		return chains.Chain{}, common.Address{}, err
	}

	return chain, common.HexToAddress(checksummed), nil
}

func (c *ChainClient) client(ctx context.Context, chain chains.Chain) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[chain.Key]; ok {
		return client, nil
	}

	client, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to connect: %w", ErrChainUnavailable, chain.Key, err)
	}

	c.logger.Info("Connected chain client", zap.String("chain", chain.Key), zap.String("rpc_url", chain.RPCURL))
	c.clients[chain.Key] = client
	return client, nil
}

func (c *ChainClient) observeLatency(chainKey, method string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RPCLatency.WithLabelValues(chainKey, method).Observe(time.Since(start).Seconds())
}

// FormatBalance converts a base-unit amount to its decimal representation
func FormatBalance(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}
