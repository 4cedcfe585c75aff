package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/repository"
)

// ChainClient is what the API needs from the chain client
type ChainClient interface {
	ChainReader
	ChainPinger
}

// Server represents the API server
type Server struct {
	walletHandler   *WalletHandler
	activityHandler *ActivityHandler
	healthHandler   *HealthHandler
	metricsHandler  http.Handler
	logger          *zap.Logger
	server          *http.Server
}

// NewServer creates a new API server
func NewServer(
	port int,
	registry *chains.Registry,
	wallets *repository.WalletRepository,
	activities *repository.ActivityRepository,
	client ChainClient,
	gatherer prometheus.Gatherer,
	logger *zap.Logger) *Server {
	return &Server{
		walletHandler:   NewWalletHandler(wallets, client, logger),
		activityHandler: NewActivityHandler(activities, logger),
		healthHandler:   NewHealthHandler(registry, wallets, client, time.Now(), logger),
		metricsHandler:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		logger:          logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start starts the API server and blocks until it is stopped
func (s *Server) Start() error {
	s.server.Handler = s.Handler()

	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)

	router.HandleFunc("/wallets", s.walletHandler.AddWallet).Methods("POST")
	router.HandleFunc("/wallets", s.walletHandler.RemoveWallet).Methods("DELETE")
	router.HandleFunc("/wallets", s.walletHandler.ListWallets).Methods("GET")

	router.HandleFunc("/activity", s.activityHandler.GetActivity).Methods("GET")

	router.HandleFunc("/health", s.healthHandler.GetHealth).Methods("GET")
	router.HandleFunc("/chains", s.healthHandler.GetChains).Methods("GET")

	router.Handle("/metrics", s.metricsHandler).Methods("GET")

	return router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
