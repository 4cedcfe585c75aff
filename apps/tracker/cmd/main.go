package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/api"
	"wallettracker/apps/tracker/internal/chainclient"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/config"
	"wallettracker/apps/tracker/internal/event_publisher"
	"wallettracker/apps/tracker/internal/metrics"
	"wallettracker/apps/tracker/internal/notifier"
	"wallettracker/apps/tracker/internal/poller"
	"wallettracker/apps/tracker/internal/repository"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg := config.NewConfig()

	logger.Info("Starting application with configuration",
		zap.Int("api_port", cfg.APIPort),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("wallet_delay", cfg.WalletDelay),
		zap.Duration("error_backoff", cfg.ErrorBackoff),
		zap.Duration("rpc_timeout", cfg.RPCTimeout),
		zap.Int("activity_log_size", cfg.ActivityLogSize),
		zap.Strings("enabled_chains", cfg.EnabledChains),
		zap.Bool("telegram_enabled", cfg.TelegramEnabled()),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.String("kafka_topic", cfg.KafkaTopic),
	)

	registry, err := chains.NewDefaultRegistry(cfg.EnabledChains, cfg.RPCOverrides)
	if err != nil {
		logger.Fatal("Invalid chain configuration", zap.Error(err))
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	chainClient := chainclient.NewChainClient(registry, cfg.RPCTimeout, logger, m)
	defer chainClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	walletRepository := repository.NewWalletRepository(registry, logger)
	activityRepository := repository.NewActivityRepository(cfg.ActivityLogSize)

	// Serve first so slow RPC or Bot API endpoints never keep the HTTP interface down
	apiServer := api.NewServer(cfg.APIPort, registry, walletRepository, activityRepository, chainClient, promRegistry, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("API server failed", zap.Error(err))
			stop()
		}
	}()

	// An unreachable chain is not fatal, the poller keeps retrying every cycle
	go func() {
		if reachable := api.ReachableChains(ctx, registry, chainClient, logger); len(reachable) == 0 {
			logger.Error("No chain RPC endpoint is reachable at startup", zap.Strings("chains", registry.Keys()))
		} else {
			logger.Info("Reachable chains", zap.Strings("chains", reachable))
		}
	}()

	sinks := []notifier.Sink{}
	if cfg.TelegramEnabled() {
		telegram, err := notifier.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramAPIEndpoint, cfg.RPCTimeout, registry, logger)
		if err != nil {
			logger.Fatal("Invalid telegram configuration", zap.Error(err))
		}
		sinks = append(sinks, telegram)
	} else {
		logger.Warn("Telegram is not configured, activity will only be logged")
		sinks = append(sinks, notifier.Sink{Name: "log", Notifier: notifier.NewLogNotifier(registry, logger)})
	}

	if cfg.KafkaEnabled() {
		eventPublisher, err := event_publisher.NewEventPublisher(cfg.KafkaBroker, cfg.KafkaTopic, registry, logger)
		if err != nil {
			logger.Fatal("Failed to create event publisher", zap.Error(err))
		}
		defer eventPublisher.Close()
		sinks = append(sinks, notifier.Sink{Name: "kafka", Notifier: eventPublisher})
	}

	walletPoller := poller.NewPoller(
		poller.Options{
			PollInterval: cfg.PollInterval,
			WalletDelay:  cfg.WalletDelay,
			ErrorBackoff: cfg.ErrorBackoff,
		},
		registry,
		walletRepository,
		activityRepository,
		chainClient,
		notifier.NewMulti(logger, m, sinks...),
		m,
		logger,
	)

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		walletPoller.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	select {
	case <-pollerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Poller did not stop before shutdown deadline")
	}

	logger.Info("Application shutdown complete")
}
