package data

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	omdbRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moviereview",
		Subsystem: "omdb",
		Name:      "requests_total",
		Help:      "External movie lookups by result (found, not_found, error, rejected).",
	}, []string{"result"})

	omdbLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "moviereview",
		Subsystem: "omdb",
		Name:      "request_duration_seconds",
		Help:      "Latency of external movie lookups.",
		Buckets:   prometheus.DefBuckets,
	})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moviereview",
		Subsystem: "omdb",
		Name:      "circuit_breaker_state",
		Help:      "0 closed, 1 half-open, 2 open.",
	})
)
