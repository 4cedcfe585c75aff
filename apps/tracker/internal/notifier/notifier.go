package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/metrics"
	"wallettracker/apps/tracker/internal/model"
)

// ErrDeliveryFailed wraps any failure to hand a message to a sink. Failed
// notifications are dropped, never retried.
var ErrDeliveryFailed = errors.New("notification delivery failed")

type Notifier interface {
	Notify(ctx context.Context, event model.ActivityEvent) error
}

// FormatMessage renders the text sent for an activity event
func FormatMessage(event model.ActivityEvent, chain chains.Chain) string {
	chainName := chain.Name
	if chainName == "" {
		chainName = event.ChainKey
	}

	var b strings.Builder
	fmt.Fprintf(&b, "New activity: %s\n", event.Label)
	fmt.Fprintf(&b, "Chain: %s\n", chainName)
	fmt.Fprintf(&b, "Address: %s\n", model.TruncateAddress(event.Address))
	fmt.Fprintf(&b, "Transactions: %d -> %d\n", event.PreviousCount, event.ObservedCount)
	if event.ObservedBalance != nil {
		fmt.Fprintf(&b, "Balance: %s %s\n", *event.ObservedBalance, chain.NativeSymbol)
	}
	if event.ExplorerLink != "" {
		b.WriteString(event.ExplorerLink)
	}
	return strings.TrimRight(b.String(), "\n")
}

// LogNotifier only logs events. Used when no bot is configured.
type LogNotifier struct {
	registry *chains.Registry
	logger   *zap.Logger
}

func NewLogNotifier(registry *chains.Registry, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{registry: registry, logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event model.ActivityEvent) error {
	chain, _ := n.registry.Get(event.ChainKey)
	n.logger.Info("Wallet activity",
		zap.String("wallet_address", event.Address),
		zap.String("chain", event.ChainKey),
		zap.String("message", FormatMessage(event, chain)))
	return nil
}

// Sink is a named notifier, the name is used as the metrics label
type Sink struct {
	Name     string
	Notifier Notifier
}

// Multi delivers each event to every sink. One failing sink does not stop the
// others; the failures are joined into the returned error.
type Multi struct {
	sinks   []Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewMulti(logger *zap.Logger, m *metrics.Metrics, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger, metrics: m}
}

func (m *Multi) Notify(ctx context.Context, event model.ActivityEvent) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Notifier.Notify(ctx, event); err != nil {
			m.logger.Error("Failed to deliver notification",
				zap.String("sink", sink.Name),
				zap.String("event_id", event.ID),
				zap.String("wallet_address", event.Address),
				zap.Error(err))
			m.metrics.Notifications.WithLabelValues(sink.Name, metrics.OutcomeFailed).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name, err))
			continue
		}
		m.metrics.Notifications.WithLabelValues(sink.Name, metrics.OutcomeDelivered).Inc()
	}
	return errors.Join(errs...)
}
