package regiond

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsRegistry = prometheus.NewRegistry()

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regiond_requests_total",
		Help: "Requests handled, by kind and HTTP status code.",
	}, []string{"kind", "code"})

	activeRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "regiond_active_requests",
		Help: "Requests currently in flight.",
	})
)

func init() {
	metricsRegistry.MustRegister(requestsTotal, activeRequests)
}

// MetricsHandler exposes the server metrics; the daemon mounts it on the
// debug listener next to pprof.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})
}
