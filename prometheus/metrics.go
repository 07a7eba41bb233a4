package prometheus

import (
	"errors"
	"fmt"

	"github.com/abczzz13/ipfilter"
	prom "github.com/prometheus/client_golang/prometheus"
)

const (
	decisionsTotalName      = "ipfilter_decisions_total"
	invalidAddressTotalName = "ipfilter_invalid_address_total"
	securityEventsTotalName = "ipfilter_security_events_total"
	decisionsTotalHelp      = "Total number of access decisions by verdict (permit, deny) and reason."
	invalidAddressTotalHelp = "Client addresses that could not be parsed, by source."
	securityEventsTotalHelp = "Security-related events observed while evaluating requests, labeled by event."
)

// PrometheusMetrics is a Prometheus-backed implementation of ipfilter.Metrics.
type PrometheusMetrics struct {
	decisionsTotal      *prom.CounterVec
	invalidAddressTotal *prom.CounterVec
	securityEvents      *prom.CounterVec
}

// WithMetrics returns an ipfilter option that installs Prometheus-backed
// metrics using prom.DefaultRegisterer.
func WithMetrics() ipfilter.Option {
	return withMetricsFactory(New)
}

// WithRegisterer returns an ipfilter option that installs Prometheus-backed
// metrics using the provided registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used.
func WithRegisterer(registerer prom.Registerer) ipfilter.Option {
	return withMetricsFactory(func() (*PrometheusMetrics, error) {
		return NewWithRegisterer(registerer)
	})
}

// withMetricsFactory adapts a PrometheusMetrics constructor into a lazy
// ipfilter.Option, so collectors are only registered for a valid
// configuration.
func withMetricsFactory(factory func() (*PrometheusMetrics, error)) ipfilter.Option {
	return ipfilter.WithMetricsFactory(func() (ipfilter.Metrics, error) {
		metrics, err := factory()
		if err != nil {
			return nil, err
		}
		return metrics, nil
	})
}

// New creates PrometheusMetrics and registers its collectors on
// prom.DefaultRegisterer.
func New() (*PrometheusMetrics, error) {
	return NewWithRegisterer(prom.DefaultRegisterer)
}

// NewWithRegisterer creates PrometheusMetrics and registers its collectors on
// the given registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the metrics are
// already registered, existing compatible collectors are reused, so several
// filters (or a rebuilt one after a reload) can share one registry.
func NewWithRegisterer(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	decisionsTotal, err := registerCounterVec(registerer, prom.NewCounterVec(
		prom.CounterOpts{Name: decisionsTotalName, Help: decisionsTotalHelp},
		[]string{"verdict", "reason"},
	), decisionsTotalName)
	if err != nil {
		return nil, err
	}

	invalidAddressTotal, err := registerCounterVec(registerer, prom.NewCounterVec(
		prom.CounterOpts{Name: invalidAddressTotalName, Help: invalidAddressTotalHelp},
		[]string{"source"},
	), invalidAddressTotalName)
	if err != nil {
		return nil, err
	}

	securityEvents, err := registerCounterVec(registerer, prom.NewCounterVec(
		prom.CounterOpts{Name: securityEventsTotalName, Help: securityEventsTotalHelp},
		[]string{"event"},
	), securityEventsTotalName)
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		decisionsTotal:      decisionsTotal,
		invalidAddressTotal: invalidAddressTotal,
		securityEvents:      securityEvents,
	}, nil
}

func registerCounterVec(registerer prom.Registerer, collector *prom.CounterVec, metricName string) (*prom.CounterVec, error) {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prom.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(*prom.CounterVec)
			if ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metric %q already registered with incompatible collector type %T", metricName, alreadyRegistered.ExistingCollector)
		}

		return nil, fmt.Errorf("register metric %q: %w", metricName, err)
	}

	return collector, nil
}

// RecordDecision increments ipfilter_decisions_total for the verdict and
// reason.
func (m *PrometheusMetrics) RecordDecision(verdict, reason string) {
	m.decisionsTotal.WithLabelValues(verdict, reason).Inc()
}

// RecordInvalidAddress increments ipfilter_invalid_address_total for the
// source.
func (m *PrometheusMetrics) RecordInvalidAddress(source string) {
	m.invalidAddressTotal.WithLabelValues(source).Inc()
}

// RecordSecurityEvent increments ipfilter_security_events_total for the
// provided event label.
func (m *PrometheusMetrics) RecordSecurityEvent(event string) {
	m.securityEvents.WithLabelValues(event).Inc()
}
