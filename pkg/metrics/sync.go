package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// SyncMetrics records how client state reaches the durable store and how sessions refresh.
type SyncMetrics struct {
	persistDuration *prometheus.HistogramVec
	persistTotal    *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
	refreshTotal    *prometheus.CounterVec
	fetchRetries    prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_persist_duration_seconds",
		Help:    "Duration of write-through persistence per component.",
		Buckets: prometheus.DefBuckets,
	}, []string{"component"})
	persistTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_persist_total",
		Help: "Write-through persistence attempts by component and outcome.",
	}, []string{"component", "outcome"})
	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_kv_operations_total",
		Help: "Durable key-value store operations by op and outcome.",
	}, []string{"op", "outcome"})
	refreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_session_refresh_total",
		Help: "Silent refresh attempts by outcome.",
	}, []string{"outcome"})
	fetchRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_authenticated_fetch_retries_total",
		Help: "Requests re-issued after a successful silent refresh.",
	})
	reg.MustRegister(persistDuration, persistTotal, storeOps, refreshTotal, fetchRetries)
	return &SyncMetrics{
		persistDuration: persistDuration,
		persistTotal:    persistTotal,
		storeOps:        storeOps,
		refreshTotal:    refreshTotal,
		fetchRetries:    fetchRetries,
	}
}

// ObservePersist records a write-through attempt for the named component.
func (m *SyncMetrics) ObservePersist(component string, duration time.Duration, outcome string) {
	if m == nil || m.persistTotal == nil {
		return
	}
	component = normalizeLabel(component)
	m.persistTotal.WithLabelValues(component, normalizeLabel(outcome)).Inc()
	if outcome != OutcomeSkipped {
		m.persistDuration.WithLabelValues(component).Observe(duration.Seconds())
	}
}

// ObserveStoreOp counts a raw key-value operation.
func (m *SyncMetrics) ObserveStoreOp(op string, err error) {
	if m == nil || m.storeOps == nil {
		return
	}
	m.storeOps.WithLabelValues(normalizeLabel(op), outcomeFor(err)).Inc()
}

// IncRefresh counts a silent refresh attempt.
func (m *SyncMetrics) IncRefresh(outcome string) {
	if m == nil || m.refreshTotal == nil {
		return
	}
	m.refreshTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncFetchRetry counts a request re-issued with a refreshed token.
func (m *SyncMetrics) IncFetchRetry() {
	if m == nil || m.fetchRetries == nil {
		return
	}
	m.fetchRetries.Inc()
}

func outcomeFor(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
