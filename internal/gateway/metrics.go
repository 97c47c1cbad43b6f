package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"aigateway/internal/endpoint"
)

var (
	resultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aigw",
			Subsystem: "gateway",
			Name:      "results_total",
			Help:      "Handle results by kind and degraded reason",
		},
		[]string{"kind", "reason"},
	)

	handleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aigw",
			Subsystem: "gateway",
			Name:      "handle_duration_seconds",
			Help:      "End-to-end duration of Handle calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aigw",
			Subsystem: "gateway",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline state in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aigw",
			Subsystem: "endpoint",
			Name:      "probes_total",
			Help:      "Endpoint liveness probes by outcome",
		},
		[]string{"outcome"},
	)

	endpointCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aigw",
			Subsystem: "endpoint",
			Name:      "resolutions_total",
			Help:      "Endpoint resolutions by source (cache, probe, none)",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(resultsTotal, handleDuration, stageDuration, probesTotal, endpointCacheTotal)
}

// ObserveProbe counts one probe outcome. Pass it as endpoint.ProbeOptions.Observe.
func ObserveProbe(ep endpoint.Endpoint) {
	probesTotal.WithLabelValues(ep.Status.String()).Inc()
}
