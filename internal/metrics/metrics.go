package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the set of observations the service emits.
type Recorder interface {
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
	IncSearches(kind string, breached bool)
	IncQuotaDenied(tier string)
	IncLookupFailures(endpoint string)
	IncAggregateFailures()
	IncMonitorTicks(outcome string)
	IncNotificationsSent()
}

type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	searchesTotal     *prometheus.CounterVec
	quotaDenied       *prometheus.CounterVec
	lookupFailures    *prometheus.CounterVec
	aggregateFailures prometheus.Counter
	monitorTicks      *prometheus.CounterVec
	notificationsSent prometheus.Counter
}

// New registers the service collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breachwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "breachwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		searchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breachwatch_searches_total",
			Help: "Completed breach searches by kind and result",
		}, []string{"kind", "breached"}),

		quotaDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breachwatch_quota_denied_total",
			Help: "Searches denied by the daily quota",
		}, []string{"tier"}),

		lookupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breachwatch_lookup_failures_total",
			Help: "Failed calls to the breach lookup API",
		}, []string{"endpoint"}),

		aggregateFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "breachwatch_aggregate_failures_total",
			Help: "Searches whose analytics aggregate could not be updated",
		}),

		monitorTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breachwatch_monitor_ticks_total",
			Help: "Monitor poller ticks by outcome",
		}, []string{"outcome"}),

		notificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "breachwatch_notifications_sent_total",
			Help: "New-breach notifications delivered",
		}),
	}
}

func (m *Metrics) IncRequestsTotal(route string, status int) {
	m.requestsTotal.WithLabelValues(route, httpStatusBucket(status)).Inc()
}

func (m *Metrics) ObserveRequestDuration(route string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) IncSearches(kind string, breached bool) {
	label := "false"
	if breached {
		label = "true"
	}
	m.searchesTotal.WithLabelValues(kind, label).Inc()
}

func (m *Metrics) IncQuotaDenied(tier string) {
	m.quotaDenied.WithLabelValues(tier).Inc()
}

func (m *Metrics) IncLookupFailures(endpoint string) {
	m.lookupFailures.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncAggregateFailures() {
	m.aggregateFailures.Inc()
}

func (m *Metrics) IncMonitorTicks(outcome string) {
	m.monitorTicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncNotificationsSent() {
	m.notificationsSent.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop discards every observation.
type Noop struct{}

func (Noop) IncRequestsTotal(_ string, _ int)                 {}
func (Noop) ObserveRequestDuration(_ string, _ time.Duration) {}
func (Noop) IncSearches(_ string, _ bool)                     {}
func (Noop) IncQuotaDenied(_ string)                          {}
func (Noop) IncLookupFailures(_ string)                       {}
func (Noop) IncAggregateFailures()                            {}
func (Noop) IncMonitorTicks(_ string)                         {}
func (Noop) IncNotificationsSent()                            {}
