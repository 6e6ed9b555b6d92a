package observability

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RewardsMetrics tracks the rewards engine and its HTTP surface.
type RewardsMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	requests   *prometheus.CounterVec
	throttles  *prometheus.CounterVec
	events     *prometheus.CounterVec
	feesTotal  *prometheus.CounterVec
	supply     prometheus.Gauge
	vault      prometheus.Gauge
	frozen     *prometheus.GaugeVec
}

var (
	rewardsMetricsOnce sync.Once
	rewardsRegistry    *RewardsMetrics
)

// Rewards returns the lazily-initialised metrics registered with the default
// Prometheus registry.
func Rewards() *RewardsMetrics {
	rewardsMetricsOnce.Do(func() {
		rewardsRegistry = NewRewardsMetrics(prometheus.DefaultRegisterer)
	})
	return rewardsRegistry
}

// NewRewardsMetrics builds and registers a fresh set of collectors. Tests use
// this with a private registry.
func NewRewardsMetrics(reg prometheus.Registerer) *RewardsMetrics {
	m := &RewardsMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rwd",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Rewards engine operations segmented by operation and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rwd",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Latency distribution for rewards engine operations including commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rwd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests segmented by route and status code.",
		}, []string{"route", "status"}),
		throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rwd",
			Subsystem: "http",
			Name:      "throttles_total",
			Help:      "Requests rejected by rate limiting or authentication.",
		}, []string{"reason"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rwd",
			Subsystem: "events",
			Name:      "emitted_total",
			Help:      "Committed rewards events segmented by type.",
		}, []string{"type"}),
		feesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rwd",
			Subsystem: "engine",
			Name:      "fees_collected_total",
			Help:      "Reward token base units routed to the fee collector by operation.",
		}, []string{"operation"}),
		supply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rwd",
			Subsystem: "token",
			Name:      "supply",
			Help:      "Outstanding reward token supply in base units.",
		}),
		vault: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rwd",
			Subsystem: "vault",
			Name:      "collateral",
			Help:      "Collateral held by the reserve vault in base units.",
		}),
		frozen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rwd",
			Subsystem: "freeze",
			Name:      "engaged",
			Help:      "Freeze flags currently engaged (1) or released (0).",
		}, []string{"flag"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.operations,
			m.latency,
			m.requests,
			m.throttles,
			m.events,
			m.feesTotal,
			m.supply,
			m.vault,
			m.frozen,
		)
	}
	return m
}

func label(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// ObserveOperation records the outcome and latency of an engine operation.
func (m *RewardsMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	op := label(operation, "unknown")
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveRequest records the final status of an HTTP request.
func (m *RewardsMetrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(label(route, "unknown"), fmt.Sprintf("%d", status)).Inc()
}

// RecordThrottle increments the throttle counter for reason.
func (m *RewardsMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(label(reason, "unspecified")).Inc()
}

// RecordEvent counts a committed event.
func (m *RewardsMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(label(eventType, "unknown")).Inc()
}

// RecordFee adds amount to the fees collected for operation.
func (m *RewardsMetrics) RecordFee(operation string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.feesTotal.WithLabelValues(label(operation, "unknown")).Add(float64(amount))
}

// SetSupply publishes the outstanding reward supply.
func (m *RewardsMetrics) SetSupply(supply uint64) {
	if m == nil {
		return
	}
	m.supply.Set(float64(supply))
}

// SetVaultBalance publishes the reserve vault balance.
func (m *RewardsMetrics) SetVaultBalance(balance uint64) {
	if m == nil {
		return
	}
	m.vault.Set(float64(balance))
}

// SetFreeze publishes the three freeze flags.
func (m *RewardsMetrics) SetFreeze(global, mint, burn bool) {
	if m == nil {
		return
	}
	m.frozen.WithLabelValues("global").Set(boolGauge(global))
	m.frozen.WithLabelValues("mint").Set(boolGauge(mint))
	m.frozen.WithLabelValues("burn").Set(boolGauge(burn))
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
