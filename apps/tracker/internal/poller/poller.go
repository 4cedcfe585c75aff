package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/metrics"
	"wallettracker/apps/tracker/internal/model"
	"wallettracker/apps/tracker/internal/repository"
)

// ChainReader is the subset of the chain client the poll loop needs
type ChainReader interface {
	TransactionCount(ctx context.Context, chainKey, address string) (uint64, error)
	Balance(ctx context.Context, chainKey, address string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, event model.ActivityEvent) error
}

type Options struct {
	PollInterval time.Duration
	WalletDelay  time.Duration
	ErrorBackoff time.Duration
}

// Poller checks every tracked wallet once per cycle and emits an activity
// event whenever a wallet's transaction count moves.
type Poller struct {
	opts       Options
	registry   *chains.Registry
	wallets    *repository.WalletRepository
	activities *repository.ActivityRepository
	reader     ChainReader
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewPoller(
	opts Options,
	registry *chains.Registry,
	wallets *repository.WalletRepository,
	activities *repository.ActivityRepository,
	reader ChainReader,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger) *Poller {
	return &Poller{
		opts:       opts,
		registry:   registry,
		wallets:    wallets,
		activities: activities,
		reader:     reader,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Run repeats RunCycle until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Starting wallet poller",
		zap.Duration("poll_interval", p.opts.PollInterval),
		zap.Duration("wallet_delay", p.opts.WalletDelay))

	for {
		wait := p.opts.PollInterval
		if err := p.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.metrics.PollCycleErrors.Inc()
			p.logger.Error("Poll cycle failed, backing off", zap.Duration("backoff", p.opts.ErrorBackoff), zap.Error(err))
			wait = p.opts.ErrorBackoff
		}

		if !sleep(ctx, wait) {
			break
		}
	}

	p.logger.Info("Wallet poller stopped")
}

// RunCycle checks each wallet in a snapshot of the store taken at the start of
// the cycle. Per-wallet failures are handled inside the cycle; only a panic or
// cancellation is returned.
func (p *Poller) RunCycle(ctx context.Context) (err error) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll cycle panicked: %v", r)
		}
	}()

	snapshot := p.wallets.GetAllWallets()
	p.metrics.TrackedWallets.Set(float64(len(snapshot)))

	for i, wallet := range snapshot {
		if i > 0 && !sleep(ctx, p.opts.WalletDelay) {
			return ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.checkWallet(ctx, wallet)
	}

	p.metrics.PollCycles.Inc()
	p.metrics.PollCycleDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("Poll cycle complete", zap.Int("wallets", len(snapshot)))
	return nil
}

func (p *Poller) checkWallet(ctx context.Context, wallet model.TrackedWallet) {
	count, err := p.reader.TransactionCount(ctx, wallet.ChainKey, wallet.Address)
	if err != nil {
		p.logger.Warn("Failed to fetch transaction count",
			zap.String("wallet_address", wallet.Address),
			zap.String("chain", wallet.ChainKey),
			zap.Error(err))

		if markErr := p.wallets.MarkChecked(wallet.Address, wallet.ChainKey, p.now()); errors.Is(markErr, repository.ErrWalletNotFound) {
			p.recordCheck(wallet.ChainKey, metrics.OutcomeRemoved)
			return
		}
		p.recordCheck(wallet.ChainKey, metrics.OutcomeUnavailable)
		return
	}

	observation, err := p.wallets.Observe(wallet.Address, wallet.ChainKey, count, p.now())
	if err != nil {
		// removed while the cycle was running
		p.logger.Debug("Skipping wallet", zap.String("wallet_address", wallet.Address), zap.Error(err))
		p.recordCheck(wallet.ChainKey, metrics.OutcomeRemoved)
		return
	}

	switch {
	case observation.Baseline:
		p.logger.Info("Recorded baseline transaction count",
			zap.String("wallet_address", wallet.Address),
			zap.String("chain", wallet.ChainKey),
			zap.Uint64("count", count))
		p.recordCheck(wallet.ChainKey, metrics.OutcomeBaseline)
	case observation.Changed:
		p.recordCheck(wallet.ChainKey, metrics.OutcomeChanged)
		p.emit(ctx, observation, count)
	default:
		p.recordCheck(wallet.ChainKey, metrics.OutcomeUnchanged)
	}
}

func (p *Poller) emit(ctx context.Context, observation repository.Observation, count uint64) {
	wallet := observation.Wallet

	event := model.ActivityEvent{
		ID:            uuid.New().String(),
		Label:         wallet.Label,
		Address:       wallet.Address,
		ChainKey:      wallet.ChainKey,
		PreviousCount: observation.Previous,
		ObservedCount: count,
		Timestamp:     p.now(),
	}
	if chain, ok := p.registry.Get(wallet.ChainKey); ok {
		event.ExplorerLink = chain.AddressURL(wallet.Address)
	}

	if balance, err := p.reader.Balance(ctx, wallet.ChainKey, wallet.Address); err != nil {
		p.logger.Warn("Failed to fetch balance for activity event",
			zap.String("wallet_address", wallet.Address),
			zap.String("chain", wallet.ChainKey),
			zap.Error(err))
	} else {
		event.ObservedBalance = &balance
	}

	p.activities.StoreEvent(event)
	p.metrics.ActivityEvents.WithLabelValues(wallet.ChainKey).Inc()

	p.logger.Info("Detected wallet activity",
		zap.String("event_id", event.ID),
		zap.String("wallet_address", wallet.Address),
		zap.String("chain", wallet.ChainKey),
		zap.Uint64("previous_count", event.PreviousCount),
		zap.Uint64("observed_count", event.ObservedCount))

	// delivery failures are logged by the notifier and do not affect the cycle
	if err := p.notifier.Notify(ctx, event); err != nil {
		p.logger.Warn("Activity notification not delivered", zap.String("event_id", event.ID), zap.Error(err))
	}
}

func (p *Poller) recordCheck(chainKey, outcome string) {
	p.metrics.WalletChecks.WithLabelValues(chainKey, outcome).Inc()
}

// sleep waits for d or until ctx is done, reporting whether the full duration elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
