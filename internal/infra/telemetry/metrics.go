package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
)

// DefaultNamespace prefixes every collector exported by the service.
const DefaultNamespace = "focusmate"

// Register adds c to reg, returning the already registered collector when an
// equivalent one exists.
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return c, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// AuthMetricsOptions configures the authentication collectors.
type AuthMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
}

// AuthMetrics records authentication outcomes in Prometheus.
type AuthMetrics struct {
	LoginAttempts  *prometheus.CounterVec
	Lockouts       prometheus.Counter
	Throttled      *prometheus.CounterVec
	Registrations  *prometheus.CounterVec
	Pruned         prometheus.Counter
}

// NewAuthMetrics builds and registers the authentication collectors.
func NewAuthMetrics(opts AuthMetricsOptions) (*AuthMetrics, error) {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	var (
		m   AuthMetrics
		err error
	)

	if m.LoginAttempts, err = Register(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts partitioned by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}

	if m.Lockouts, err = Register(opts.Registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: "auth",
		Name:      "account_lockouts_total",
		Help:      "Accounts locked after repeated failures.",
	})); err != nil {
		return nil, err
	}

	if m.Throttled, err = Register(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: "auth",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter partitioned by scope.",
	}, []string{"scope"})); err != nil {
		return nil, err
	}

	if m.Registrations, err = Register(opts.Registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Completed registrations partitioned by kind.",
	}, []string{"kind"})); err != nil {
		return nil, err
	}

	if m.Pruned, err = Register(opts.Registerer, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: "auth",
		Name:      "sessions_pruned_total",
		Help:      "Sessions removed to respect the per-user cap.",
	})); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *AuthMetrics) LoginAttempt(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *AuthMetrics) AccountLocked() {
	m.Lockouts.Inc()
}

func (m *AuthMetrics) RateLimited(scope string) {
	m.Throttled.WithLabelValues(scope).Inc()
}

func (m *AuthMetrics) UserRegistered(reactivated bool) {
	kind := "new"
	if reactivated {
		kind = "reactivated"
	}
	m.Registrations.WithLabelValues(kind).Inc()
}

func (m *AuthMetrics) SessionsPruned(count int) {
	if count > 0 {
		m.Pruned.Add(float64(count))
	}
}

var _ port.AuthMetrics = (*AuthMetrics)(nil)
