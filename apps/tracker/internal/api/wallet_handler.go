package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/repository"
)

// maxLiveLookups bounds concurrent RPC calls made by one list request
const maxLiveLookups = 8

// ChainReader is the subset of the chain client used for live wallet lookups
type ChainReader interface {
	TransactionCount(ctx context.Context, chainKey, address string) (uint64, error)
	Balance(ctx context.Context, chainKey, address string) (string, error)
}

// WalletHandler handles wallet-related API endpoints
type WalletHandler struct {
	wallets *repository.WalletRepository
	reader  ChainReader
	logger  *zap.Logger
}

func NewWalletHandler(wallets *repository.WalletRepository, reader ChainReader, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, reader: reader, logger: logger}
}

// AddWallet handles POST /wallets
func (h *WalletHandler) AddWallet(w http.ResponseWriter, r *http.Request) {
	var req AddWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body")
		return
	}

	wallet, err := h.wallets.AddWallet(req.Address, req.Chain, req.Label)
	switch {
	case errors.Is(err, repository.ErrInvalidAddress):
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_wallet_address", "Invalid wallet address format")
		return
	case errors.Is(err, chains.ErrUnknownChain):
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "unknown_chain", "Chain is not supported: "+req.Chain)
		return
	case errors.Is(err, repository.ErrDuplicateWallet):
		writeErrorResponse(w, h.logger, http.StatusConflict, "duplicate_wallet", "Wallet is already tracked on this chain")
		return
	case err != nil:
		h.logger.Error("Failed to add wallet", zap.String("wallet_address", req.Address), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to add wallet")
		return
	}

	h.logger.Info("Tracking wallet",
		zap.String("wallet_address", wallet.Address),
		zap.String("chain", wallet.ChainKey),
		zap.String("label", wallet.Label))

	writeJSONResponse(w, h.logger, http.StatusOK, wallet)
}

// RemoveWallet handles DELETE /wallets
func (h *WalletHandler) RemoveWallet(w http.ResponseWriter, r *http.Request) {
	var req RemoveWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body")
		return
	}

	if err := h.wallets.RemoveWallet(req.Address, req.Chain); err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			writeErrorResponse(w, h.logger, http.StatusNotFound, "wallet_not_found", "Wallet is not tracked on this chain")
			return
		}
		h.logger.Error("Failed to remove wallet", zap.String("wallet_address", req.Address), zap.Error(err))
		writeErrorResponse(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to remove wallet")
		return
	}

	h.logger.Info("Stopped tracking wallet", zap.String("wallet_address", req.Address), zap.String("chain", req.Chain))

	writeJSONResponse(w, h.logger, http.StatusOK, map[string]string{"status": "removed"})
}

// ListWallets handles GET /wallets
func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets := h.wallets.GetAllWallets()
	responses := make([]WalletResponse, len(wallets))

	var g errgroup.Group
	g.SetLimit(maxLiveLookups)

	for i, wallet := range wallets {
		responses[i].TrackedWallet = wallet
		g.Go(func() error {
			ctx := r.Context()
			if count, err := h.reader.TransactionCount(ctx, wallet.ChainKey, wallet.Address); err == nil {
				responses[i].LiveCount = &count
			} else {
				h.logger.Debug("Live count lookup failed", zap.String("wallet_address", wallet.Address), zap.Error(err))
			}
			if balance, err := h.reader.Balance(ctx, wallet.ChainKey, wallet.Address); err == nil {
				responses[i].LiveBalance = &balance
			} else {
				h.logger.Debug("Live balance lookup failed", zap.String("wallet_address", wallet.Address), zap.Error(err))
			}
			// lookups are best-effort
			return nil
		})
	}
	_ = g.Wait()

	writeJSONResponse(w, h.logger, http.StatusOK, WalletListResponse{
		Wallets: responses,
		Count:   len(responses),
	})
}
