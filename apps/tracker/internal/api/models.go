package api

import (
	"time"

	"wallettracker/apps/tracker/internal/model"
)

// AddWalletRequest represents the request body for tracking a wallet
type AddWalletRequest struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	Label   string `json:"label"`
}

// RemoveWalletRequest represents the request body for untracking a wallet
type RemoveWalletRequest struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
}

// WalletResponse is a tracked wallet plus a live lookup made for the request.
// Live fields are null when the chain could not be reached.
type WalletResponse struct {
	model.TrackedWallet
	LiveCount   *uint64 `json:"live_count"`
	LiveBalance *string `json:"live_balance"`
}

type WalletListResponse struct {
	Wallets []WalletResponse `json:"wallets"`
	Count   int              `json:"count"`
}

type ActivityResponse struct {
	Events []model.ActivityEvent `json:"events"`
	Count  int                   `json:"count"`
}

// HealthResponse represents the API response for process health
type HealthResponse struct {
	Status          string    `json:"status"`
	Time            time.Time `json:"time"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
	TrackedWallets  int       `json:"tracked_wallets"`
	ReachableChains []string  `json:"reachable_chains"`
}

type ChainResponse struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	ChainID      int64  `json:"chain_id"`
	NativeSymbol string `json:"native_symbol"`
	ExplorerURL  string `json:"explorer_url"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
