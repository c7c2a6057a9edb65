package estimator

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the estimator's Prometheus collectors.
type Metrics struct {
	Estimates     *prometheus.CounterVec // by band and finiteness
	Rejections    *prometheus.CounterVec // by offending input
	Dropped       *prometheus.CounterVec // by reason: payload, unknown_orchard, duplicate
	Fapar         prometheus.Histogram
	Transpiration prometheus.Histogram
	RPCs          *prometheus.CounterVec // by method and grpc code
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Estimates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olivecanopy",
			Name:      "estimates_total",
			Help:      "Orchard-day estimates published.",
		}, []string{"band", "finite"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olivecanopy",
			Name:      "rejections_total",
			Help:      "Orchard-days rejected by input validation.",
		}, []string{"param"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olivecanopy",
			Name:      "dropped_messages_total",
			Help:      "Weather messages dropped before evaluation.",
		}, []string{"reason"}),
		Fapar: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "olivecanopy",
			Name:      "fapar",
			Help:      "Fraction of absorbed PAR of published estimates.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Transpiration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "olivecanopy",
			Name:      "transpiration_mm",
			Help:      "Daily transpiration of published estimates, mm/day.",
			Buckets:   prometheus.LinearBuckets(0, 0.5, 12),
		}),
		RPCs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olivecanopy",
			Name:      "rpc_requests_total",
			Help:      "CanopyService calls.",
		}, []string{"method", "code"}),
	}
}

// observe records finite values only, a NaN would poison the histogram sum.
func observe(h prometheus.Histogram, v float64) {
	if h == nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	h.Observe(v)
}
