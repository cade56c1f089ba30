package metrics

import (
	"net/http"
	"strconv"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	attempts        prometheus.Counter
	percentages     prometheus.Histogram
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_recorded_total",
			Help: "Total number of recorded quiz attempts",
		}),
		percentages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_attempt_percentage",
			Help:    "Percentage scored by recorded attempts",
			Buckets: []float64{0, 25, 50, 70, 85, 95, 100},
		}),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	m.registry.MustRegister(m.attempts, m.percentages, m.requestCounter, m.requestDuration)
	return m
}

// AttemptRecorded implements app.AttemptObserver.
func (m *Metrics) AttemptRecorded(a domain.Attempt) {
	m.attempts.Inc()
	m.percentages.Observe(a.Percentage)
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, elapsed time.Duration) {
	m.requestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
