package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSyncMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObservePersist("cart", 5*time.Millisecond, OutcomeSuccess)
	m.ObservePersist("cart", time.Millisecond, OutcomeFailure)
	m.ObservePersist("cart", 0, OutcomeSkipped)
	m.ObserveStoreOp("set", nil)
	m.ObserveStoreOp("get", errors.New("boom"))
	m.IncRefresh(OutcomeSuccess)
	m.IncFetchRetry()

	if got := testutil.ToFloat64(m.persistTotal.WithLabelValues("cart", OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 successful persist, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistTotal.WithLabelValues("cart", OutcomeSkipped)); got != 1 {
		t.Fatalf("expected 1 skipped persist, got %v", got)
	}
	if got := testutil.ToFloat64(m.storeOps.WithLabelValues("get", OutcomeFailure)); got != 1 {
		t.Fatalf("expected 1 failed get, got %v", got)
	}
	if got := testutil.ToFloat64(m.refreshTotal.WithLabelValues(OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 refresh, got %v", got)
	}
	if got := testutil.ToFloat64(m.fetchRetries); got != 1 {
		t.Fatalf("expected 1 retry, got %v", got)
	}
	if got := testutil.CollectAndCount(m.persistDuration); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}
}

func TestSyncMetricsNilSafe(t *testing.T) {
	var m *SyncMetrics
	m.ObservePersist("cart", time.Second, OutcomeSuccess)
	m.ObserveStoreOp("set", nil)
	m.IncRefresh(OutcomeFailure)
	m.IncFetchRetry()

	unregistered := NewSyncMetrics(nil)
	unregistered.ObservePersist("", 0, "")
	unregistered.IncFetchRetry()
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
