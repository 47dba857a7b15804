package auditware

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Authentication outcomes reported to the metrics collector.
const (
	AuthResultAuthenticated = "authenticated"
	AuthResultAnonymous     = "anonymous"
	AuthResultExpired       = "expired"
	AuthResultDefault       = "default"
	AuthResultError         = "error"
)

// MetricsCollector receives counters from the backend, store gateway, and
// access logger. The default is a no-op; use NewMetricsCollector for a
// Prometheus-backed implementation.
type MetricsCollector interface {
	RecordAuthentication(result string)
	RecordUserUpsert()
	RecordAccessLogWrite()
	RecordStoreError(operation string)
}

type noopMetrics struct{}

func (noopMetrics) RecordAuthentication(string) {}
func (noopMetrics) RecordUserUpsert()           {}
func (noopMetrics) RecordAccessLogWrite()       {}
func (noopMetrics) RecordStoreError(string)     {}

func normalizeMetrics(metrics MetricsCollector) MetricsCollector {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}

// Metrics is the Prometheus-backed collector.
type Metrics struct {
	authentications *prometheus.CounterVec
	userUpserts     prometheus.Counter
	accessLogWrites prometheus.Counter
	storeErrors     *prometheus.CounterVec
}

var _ MetricsCollector = (*Metrics)(nil)

// NewMetricsCollector creates the collector and registers its metrics with
// the given registerer.
func NewMetricsCollector(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditware_authentications_total",
			Help: "Authentication attempts by outcome.",
		}, []string{"result"}),
		userUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auditware_user_upserts_total",
			Help: "User rows written by the per-request upsert.",
		}),
		accessLogWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auditware_access_log_writes_total",
			Help: "Access log rows written.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditware_store_errors_total",
			Help: "Store failures by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.authentications, m.userUpserts, m.accessLogWrites, m.storeErrors)

	return m
}

func (m *Metrics) RecordAuthentication(result string) {
	m.authentications.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordUserUpsert() {
	m.userUpserts.Inc()
}

func (m *Metrics) RecordAccessLogWrite() {
	m.accessLogWrites.Inc()
}

func (m *Metrics) RecordStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}
