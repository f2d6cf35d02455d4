package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	JobsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signrelay_jobs_created_total",
		Help: "Signing jobs created",
	})
	JobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signrelay_jobs_completed_total",
		Help: "Signing jobs that reached completed",
	})
	JobsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signrelay_jobs_failed_total",
		Help: "Signing jobs that reached error",
	})
	JobsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signrelay_jobs_evicted_total",
		Help: "Signing jobs evicted by the TTL sweeper",
	})
	JobsInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signrelay_jobs_inflight",
		Help: "Signing jobs currently pending",
	})
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signrelay_provider_requests_total",
		Help: "Provider API calls by operation and outcome",
	}, []string{"op", "outcome"})
)

// MetricsHandler exposes the /metrics endpoint with a singleton registry.
func MetricsHandler() http.Handler {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			JobsCreated,
			JobsCompleted,
			JobsFailed,
			JobsEvicted,
			JobsInflight,
			ProviderRequests,
		)
	})
	return promhttp.Handler()
}

// ObserveProviderCall records one provider round trip.
func ObserveProviderCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ProviderRequests.WithLabelValues(op, outcome).Inc()
}
