package api

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/repository"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	maxPings = 4
)

type ChainPinger interface {
	Ping(ctx context.Context, chainKey string) error
}

// HealthHandler reports liveness and which configured chains answer right now
type HealthHandler struct {
	registry  *chains.Registry
	wallets   *repository.WalletRepository
	pinger    ChainPinger
	startedAt time.Time
	logger    *zap.Logger
}

func NewHealthHandler(registry *chains.Registry, wallets *repository.WalletRepository, pinger ChainPinger, startedAt time.Time, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		wallets:   wallets,
		pinger:    pinger,
		startedAt: startedAt,
		logger:    logger,
	}
}

// GetHealth handles GET /health. It always answers 200 while the process is
// serving; status is degraded when no chain is reachable.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	reachable := ReachableChains(r.Context(), h.registry, h.pinger, h.logger)

	status := statusHealthy
	if len(reachable) == 0 {
		status = statusDegraded
	}

	now := time.Now()
	writeJSONResponse(w, h.logger, http.StatusOK, HealthResponse{
		Status:          status,
		Time:            now.UTC(),
		UptimeSeconds:   int64(now.Sub(h.startedAt).Seconds()),
		TrackedWallets:  h.wallets.Count(),
		ReachableChains: reachable,
	})
}

// GetChains handles GET /chains
func (h *HealthHandler) GetChains(w http.ResponseWriter, _ *http.Request) {
	all := h.registry.All()
	response := make([]ChainResponse, 0, len(all))
	for _, chain := range all {
		response = append(response, ChainResponse{
			Key:          chain.Key,
			Name:         chain.Name,
			ChainID:      chain.ChainID,
			NativeSymbol: chain.NativeSymbol,
			ExplorerURL:  chain.ExplorerURL,
		})
	}
	writeJSONResponse(w, h.logger, http.StatusOK, response)
}

// ReachableChains pings every registered chain and returns the keys that
// answered, sorted.
func ReachableChains(ctx context.Context, registry *chains.Registry, pinger ChainPinger, logger *zap.Logger) []string {
	var (
		mu        sync.Mutex
		reachable = make([]string, 0)
		g         errgroup.Group
	)
	g.SetLimit(maxPings)

	for _, key := range registry.Keys() {
		g.Go(func() error {
			if err := pinger.Ping(ctx, key); err != nil {
				logger.Warn("Chain unreachable", zap.String("chain", key), zap.Error(err))
				return nil
			}
			mu.Lock()
			reachable = append(reachable, key)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(reachable)
	return reachable
}
