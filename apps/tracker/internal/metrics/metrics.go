// Package metrics holds the Prometheus collectors shared by the poll loop, the
// chain client and the notifiers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for wallet checks and notifications
const (
	OutcomeBaseline    = "baseline"
	OutcomeUnchanged   = "unchanged"
	OutcomeChanged     = "changed"
	OutcomeUnavailable = "unavailable"
	OutcomeRemoved     = "removed"

	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

type Metrics struct {
	PollCycles        prometheus.Counter
	PollCycleErrors   prometheus.Counter
	PollCycleDuration prometheus.Histogram
	WalletChecks      *prometheus.CounterVec
	ActivityEvents    *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	RPCLatency        *prometheus.HistogramVec
	TrackedWallets    prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_tracker_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		}),
		PollCycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_tracker_poll_cycle_errors_total",
			Help: "Total number of poll cycles aborted by an unexpected error",
		}),
		PollCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_tracker_poll_cycle_duration_seconds",
			Help:    "Time taken to check every tracked wallet once",
			Buckets: prometheus.DefBuckets,
		}),
		WalletChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tracker_wallet_checks_total",
			Help: "Wallet checks per chain and outcome",
		}, []string{"chain", "outcome"}),
		ActivityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tracker_activity_events_total",
			Help: "Activity events detected per chain",
		}, []string{"chain"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tracker_notifications_total",
			Help: "Notification attempts per sink and outcome",
		}, []string{"sink", "outcome"}),
		RPCLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_tracker_rpc_latency_seconds",
			Help:    "Chain RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain", "method"}),
		TrackedWallets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_tracker_tracked_wallets",
			Help: "Number of wallets in the store at the start of the last cycle",
		}),
	}

	reg.MustRegister(m.PollCycles, m.PollCycleErrors, m.PollCycleDuration, m.WalletChecks,
		m.ActivityEvents, m.Notifications, m.RPCLatency, m.TrackedWallets)

	return m
}

// NewNop returns collectors registered on a throwaway registry
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
