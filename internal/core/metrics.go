// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing, which keeps services usable in tests.
type Metrics struct {
	registry *prometheus.Registry

	HTTPInFlight prometheus.Gauge
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	subscriptionEvents *prometheus.CounterVec
	downloads          *prometheus.CounterVec
	downloadsDenied    *prometheus.CounterVec
	favoriteChanges    *prometheus.CounterVec
	renewalRuns        *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),

		subscriptionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "events_total",
			Help:      "Subscription lifecycle transitions.",
		}, []string{"event"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "downloads_total",
			Help:      "Artwork files served, by quality.",
		}, []string{"quality"}),
		downloadsDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "downloads_denied_total",
			Help:      "Download requests refused by entitlement.",
		}, []string{"reason"}),
		favoriteChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "favorite_changes_total",
			Help:      "Favorite rows added or removed.",
		}, []string{"action"}),
		renewalRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "renewal_runs_total",
			Help:      "Renewal sweep executions by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.HTTPInFlight,
		m.HTTPRequests,
		m.HTTPDuration,
		m.subscriptionEvents,
		m.downloads,
		m.downloadsDenied,
		m.favoriteChanges,
		m.renewalRuns,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SubscriptionEvent(event string) {
	if m == nil {
		return
	}
	m.subscriptionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) SubscriptionRenewed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.subscriptionEvents.WithLabelValues("renewed").Add(float64(n))
}

func (m *Metrics) Download(quality string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(quality).Inc()
}

func (m *Metrics) DownloadDenied(reason string) {
	if m == nil {
		return
	}
	m.downloadsDenied.WithLabelValues(reason).Inc()
}

func (m *Metrics) FavoriteChanged(added bool) {
	if m == nil {
		return
	}
	action := "removed"
	if added {
		action = "added"
	}
	m.favoriteChanges.WithLabelValues(action).Inc()
}

func (m *Metrics) RenewalRun(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renewalRuns.WithLabelValues(outcome).Inc()
}
