package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopyrpc"
)

type Config struct {
	RPCTimeout time.Duration
	RPCRetries int
	Breaker    BreakerSettings

	// default per le richieste senza ?bands= / ?strict=
	BandRule canopy.BandRule
	Strict   bool

	Logger   *logrus.Entry
	Registry prometheus.Registerer
}

type Gateway struct {
	cfg      Config
	log      *logrus.Entry
	estim    *Upstream
	metrics  *Metrics
	gatherer prometheus.Gatherer
}

// NewGateway builds the HTTP front of the estimator's CanopyService.
func NewGateway(cfg Config, client canopyrpc.CanopyServiceClient) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = logrus.WithField("service", "gateway")
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	m := NewMetrics(cfg.Registry)

	cb := newBreaker("estimator", cfg.Breaker, cfg.Logger, func(s gobreaker.State) {
		m.BreakerState.Set(float64(s))
	})

	g := &Gateway{
		cfg:     cfg,
		log:     cfg.Logger,
		estim:   NewUpstream(client, cb, cfg.RPCTimeout, cfg.RPCRetries),
		metrics: m,
	}
	if ga, ok := cfg.Registry.(prometheus.Gatherer); ok {
		g.gatherer = ga
	}
	return g
}
