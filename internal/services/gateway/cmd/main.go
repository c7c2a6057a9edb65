package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/LeonardoBeccarini/olivecanopy/internal/services/gateway/app"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopyrpc"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logrus.SetLevel(cfg.LogLevel)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", "gateway")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// la connessione è lazy: il primo RPC apre il canale
	conn, err := grpc.NewClient(cfg.EstimatorAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("grpc client: %v", err)
	}
	defer conn.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gw := app.NewGateway(app.Config{
		RPCTimeout: ms(cfg.TimeoutMs),
		RPCRetries: cfg.Retries,
		Breaker: app.BreakerSettings{
			Failures: cfg.CBFails,
			OpenFor:  ms(cfg.CBOpenMs),
			Interval: ms(cfg.CBIntervalMs),
		},
		BandRule: cfg.BandRule,
		Strict:   cfg.Strict,
		Logger:   log,
		Registry: reg,
	}, canopyrpc.NewCanopyServiceClient(conn))

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{"addr": hs.Addr, "estimator": cfg.EstimatorAddr}).Info("gateway listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shCtx)
	log.Info("shutdown complete")
}
