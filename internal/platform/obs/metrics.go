package obs

import (
	"hos-trip-planner/internal/domain"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tripsPlanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hos_trips_planned_total",
		Help: "Trip plans requested, by outcome.",
	}, []string{"outcome"})

	violationsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hos_violations_total",
		Help: "HOS violations reported by planning and log evaluation.",
	}, []string{"type", "severity"})

	simulationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hos_simulation_seconds",
		Help:    "Wall time spent simulating one trip.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hos_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveTrip counts a planning attempt. outcome is "ok" or an error class.
func ObserveTrip(outcome string) {
	tripsPlanned.WithLabelValues(outcome).Inc()
}

func ObserveViolations(vs []domain.Violation) {
	for _, v := range vs {
		violationsFound.WithLabelValues(string(v.Type), string(v.Severity)).Inc()
	}
}

func ObserveSimulation(d time.Duration) {
	simulationSeconds.Observe(d.Seconds())
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
