package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tollgate"

const (
	resultSuccess = "success"
	resultError   = "error"
)

var _ Recorder = (*Metrics)(nil)

// Metrics is the Prometheus backed Recorder. Each instance owns its
// registry so tests and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	TokensIssuedTotal       *prometheus.CounterVec
	TokensRejectedTotal     *prometheus.CounterVec
	TokenIssueDuration      prometheus.Histogram
	IntrospectionsTotal     *prometheus.CounterVec
	IntrospectionDuration   prometheus.Histogram
	ClientsRegisteredTotal  prometheus.Counter
	ClientsDeactivatedTotal prometheus.Counter
	ClientsTotal            prometheus.Gauge
	KeyRotationsTotal       *prometheus.CounterVec
	KeysPurgedTotal         prometheus.Counter
	SigningKeys             *prometheus.GaugeVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TokensIssuedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Access tokens issued.",
		}, []string{"grant_type"}),
		TokensRejectedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_requests_rejected_total",
			Help:      "Token requests rejected, by OAuth2 error code.",
		}, []string{"reason"}),
		TokenIssueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_issue_duration_seconds",
			Help:      "Time to validate credentials and sign a token.",
			Buckets:   prometheus.DefBuckets,
		}),
		IntrospectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "introspections_total",
			Help:      "Introspection requests by outcome.",
		}, []string{"active"}),
		IntrospectionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "introspection_duration_seconds",
			Help:      "Time to verify a token during introspection.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		ClientsRegisteredTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_registered_total",
			Help:      "Clients registered since start.",
		}),
		ClientsDeactivatedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_deactivated_total",
			Help:      "Clients deactivated since start.",
		}),
		ClientsTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients",
			Help:      "Registered clients.",
		}),
		KeyRotationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_rotations_total",
			Help:      "Signing key rotations.",
		}, []string{"trigger", "result"}),
		KeysPurgedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_purged_total",
			Help:      "Retired signing keys purged after retention.",
		}),
		SigningKeys: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signing_keys",
			Help:      "Signing keys published in the JWKS, by state.",
		}, []string{"state"}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordTokenIssued(grantType string, d time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(grantType).Inc()
	m.TokenIssueDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordTokenRejected(reason string) {
	m.TokensRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordIntrospection(active bool, d time.Duration) {
	label := "false"
	if active {
		label = "true"
	}
	m.IntrospectionsTotal.WithLabelValues(label).Inc()
	m.IntrospectionDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordClientRegistered() {
	m.ClientsRegisteredTotal.Inc()
	m.ClientsTotal.Inc()
}

func (m *Metrics) RecordClientDeactivated() { m.ClientsDeactivatedTotal.Inc() }

func (m *Metrics) RecordKeyRotation(trigger string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.KeyRotationsTotal.WithLabelValues(trigger, result).Inc()
}

func (m *Metrics) RecordKeysPurged(n int) { m.KeysPurgedTotal.Add(float64(n)) }

func (m *Metrics) SetSigningKeys(active, retired int) {
	m.SigningKeys.WithLabelValues("active").Set(float64(active))
	m.SigningKeys.WithLabelValues("retired").Set(float64(retired))
}

func (m *Metrics) SetClients(n int) { m.ClientsTotal.Set(float64(n)) }
