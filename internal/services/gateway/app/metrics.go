package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests     *prometheus.CounterVec   // by route and HTTP status
	Latency      *prometheus.HistogramVec // by route
	BreakerState prometheus.Gauge         // 0 closed, 1 half-open, 2 open
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olivecanopy",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "HTTP requests served by the gateway.",
		}, []string{"route", "code"}),
		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "olivecanopy",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "olivecanopy",
			Subsystem: "gateway",
			Name:      "estimator_breaker_state",
			Help:      "Circuit breaker state toward the estimator.",
		}),
	}
}
