package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAuthMetricsRecordsOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewAuthMetrics(AuthMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("NewAuthMetrics returned error: %v", err)
	}

	metrics.LoginAttempt("success")
	metrics.LoginAttempt("invalid_credentials")
	metrics.LoginAttempt("invalid_credentials")
	metrics.AccountLocked()
	metrics.RateLimited("login")
	metrics.UserRegistered(false)
	metrics.UserRegistered(true)
	metrics.SessionsPruned(3)
	metrics.SessionsPruned(0)

	if got := testutil.ToFloat64(metrics.LoginAttempts.WithLabelValues("invalid_credentials")); got != 2 {
		t.Fatalf("expected 2 invalid attempts, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Lockouts); got != 1 {
		t.Fatalf("expected 1 lockout, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Throttled.WithLabelValues("login")); got != 1 {
		t.Fatalf("expected 1 throttled login, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Registrations.WithLabelValues("reactivated")); got != 1 {
		t.Fatalf("expected 1 reactivation, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Pruned); got != 3 {
		t.Fatalf("expected 3 pruned sessions, got %f", got)
	}
}

func TestAuthMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first, err := NewAuthMetrics(AuthMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("first NewAuthMetrics returned error: %v", err)
	}
	second, err := NewAuthMetrics(AuthMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("second NewAuthMetrics returned error: %v", err)
	}

	first.AccountLocked()
	if got := testutil.ToFloat64(second.Lockouts); got != 1 {
		t.Fatalf("expected shared lockout counter, got %f", got)
	}
}
