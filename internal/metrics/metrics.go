// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests            *prometheus.CounterVec
	duration            *prometheus.HistogramVec
	trackingSubscribers prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		trackingSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rideshare_tracking_subscribers",
			Help: "Number of live driver location subscriptions.",
		}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(method, route, code).Inc()
	m.duration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

// SubscriberAdded counts a new tracking subscription.
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.trackingSubscribers.Inc()
}

// SubscriberRemoved counts a closed tracking subscription.
func (m *Metrics) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.trackingSubscribers.Dec()
}
