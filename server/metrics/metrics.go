// Package metrics holds the prometheus collectors of the agenda server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clubagenda"

type Metrics struct {
	registry *prometheus.Registry

	bookings           *prometheus.CounterVec
	waitlistPromotions prometheus.Counter
	votes              *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	achievements       prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers every collector on a fresh registry. A nil Metrics is valid and records nothing.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_actions_total",
			Help:      "number of role slot actions by action and result",
		}, []string{"action", "result"}),
		waitlistPromotions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_promotions_total",
			Help:      "number of waitlisted contacts promoted to owner",
		}),
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "number of ballots cast by kind",
		}, []string{"kind"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_transitions_total",
			Help:      "number of meeting status transitions by target status",
		}, []string{"status"}),
		achievements: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "achievements_recorded_total",
			Help:      "number of achievements recorded by the progress refresh",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "number of handled http requests",
		}, []string{"method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "http request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Booking(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.bookings.WithLabelValues(action, result).Inc()
}

func (m *Metrics) WaitlistPromotion() {
	if m == nil {
		return
	}
	m.waitlistPromotions.Inc()
}

func (m *Metrics) Vote(kind string) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(kind).Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Achievements(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.achievements.Add(float64(n))
}

func (m *Metrics) Request(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}
