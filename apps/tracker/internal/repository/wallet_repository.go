package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/model"
)

var (
	ErrInvalidAddress  = chains.ErrInvalidAddress
	ErrDuplicateWallet = errors.New("wallet is already tracked on this chain")
	ErrWalletNotFound  = errors.New("wallet is not tracked on this chain")
)

// Observation is the outcome of recording a transaction count for a wallet
type Observation struct {
	Wallet   model.TrackedWallet // state after the observation
	Previous uint64
	Baseline bool // first observation, Previous is meaningless
	Changed  bool
}

// WalletRepository keeps tracked wallets in memory, in insertion order. All
// methods are safe for concurrent use and return copies.
type WalletRepository struct {
	registry *chains.Registry
	logger   *zap.Logger

	mu      sync.RWMutex
	wallets []*model.TrackedWallet
	index   map[string]*model.TrackedWallet
}

func NewWalletRepository(registry *chains.Registry, logger *zap.Logger) *WalletRepository {
	return &WalletRepository{
		registry: registry,
		logger:   logger,
		index:    make(map[string]*model.TrackedWallet),
	}
}

// walletKey accepts any spelling AddWallet accepts: mixed case, with or
// without the 0x prefix.
func walletKey(address, chainKey string) string {
	address = strings.TrimSpace(address)
	if normalized, err := chains.NormalizeAddress(address); err == nil {
		address = normalized
	}
	return strings.ToLower(address) + "@" + strings.ToLower(strings.TrimSpace(chainKey))
}

// AddWallet validates the address, then the chain, then uniqueness
func (r *WalletRepository) AddWallet(address, chainKey, label string) (model.TrackedWallet, error) {
	checksummed, err := chains.NormalizeAddress(address)
	if err != nil {
		return model.TrackedWallet{}, err
	}

	chain, err := r.registry.Lookup(chainKey)
	if err != nil {
		return model.TrackedWallet{}, err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		label = model.TruncateAddress(checksummed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := walletKey(checksummed, chain.Key)
	if _, exists := r.index[key]; exists {
		return model.TrackedWallet{}, fmt.Errorf("%w: %s on %s", ErrDuplicateWallet, checksummed, chain.Key)
	}

	wallet := &model.TrackedWallet{
		Address:  checksummed,
		ChainKey: chain.Key,
		Label:    label,
		AddedAt:  time.Now().UTC(),
	}
	r.wallets = append(r.wallets, wallet)
	r.index[key] = wallet

	r.logger.Info("Added tracked wallet",
		zap.String("wallet_address", checksummed),
		zap.String("chain", chain.Key),
		zap.String("label", label))

	return *wallet, nil
}

func (r *WalletRepository) RemoveWallet(address, chainKey string) error {
	key := walletKey(address, chainKey)

	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.index[key]
	if !exists {
		return fmt.Errorf("%w: %s on %s", ErrWalletNotFound, address, chainKey)
	}

	delete(r.index, key)
	for i, w := range r.wallets {
		if w == wallet {
			r.wallets = append(r.wallets[:i], r.wallets[i+1:]...)
			break
		}
	}

	r.logger.Info("Removed tracked wallet",
		zap.String("wallet_address", wallet.Address),
		zap.String("chain", wallet.ChainKey))
	return nil
}

// GetAllWallets returns a snapshot of every tracked wallet in insertion order
func (r *WalletRepository) GetAllWallets() []model.TrackedWallet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallets := make([]model.TrackedWallet, 0, len(r.wallets))
	for _, w := range r.wallets {
		wallets = append(wallets, copyWallet(w))
	}
	return wallets
}

func (r *WalletRepository) GetWallet(address, chainKey string) (model.TrackedWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallet, exists := r.index[walletKey(address, chainKey)]
	if !exists {
		return model.TrackedWallet{}, fmt.Errorf("%w: %s on %s", ErrWalletNotFound, address, chainKey)
	}
	return copyWallet(wallet), nil
}

func (r *WalletRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wallets)
}

// Observe records a transaction count and reports the resulting transition.
// The compare and the update happen under one lock, so concurrent observers
// of the same change see it only once.
func (r *WalletRepository) Observe(address, chainKey string, count uint64, at time.Time) (Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.index[walletKey(address, chainKey)]
	if !exists {
		return Observation{}, fmt.Errorf("%w: %s on %s", ErrWalletNotFound, address, chainKey)
	}

	checked := at
	wallet.LastChecked = &checked

	observation := Observation{}
	switch {
	case wallet.LastCount == nil:
		observation.Baseline = true
	case *wallet.LastCount != count:
		observation.Previous = *wallet.LastCount
		observation.Changed = true
	default:
		observation.Previous = *wallet.LastCount
	}

	observed := count
	wallet.LastCount = &observed
	observation.Wallet = copyWallet(wallet)

	return observation, nil
}

// MarkChecked updates only the last-checked time, leaving the count untouched
func (r *WalletRepository) MarkChecked(address, chainKey string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.index[walletKey(address, chainKey)]
	if !exists {
		return fmt.Errorf("%w: %s on %s", ErrWalletNotFound, address, chainKey)
	}
	checked := at
	wallet.LastChecked = &checked
	return nil
}

func copyWallet(w *model.TrackedWallet) model.TrackedWallet {
	c := *w
	if w.LastChecked != nil {
		checked := *w.LastChecked
		c.LastChecked = &checked
	}
	if w.LastCount != nil {
		count := *w.LastCount
		c.LastCount = &count
	}
	return c
}
