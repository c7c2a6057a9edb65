package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model/entities"
	"github.com/LeonardoBeccarini/olivecanopy/internal/services/estimator"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopyrpc"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/rabbitmq"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logrus.SetLevel(cfg.LogLevel)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", "estimator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := entities.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load orchards: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := estimator.NewMetrics(reg)

	// === gRPC ===
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}
	gs := grpc.NewServer()
	canopyrpc.RegisterCanopyServiceServer(gs, estimator.NewGrpcHandler(log, metrics))
	go func() {
		log.Infof("gRPC listening on :%d", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Errorf("grpc server: %v", err)
		}
	}()

	// === MQTT ===
	mqClient, err := rabbitmq.NewRabbitMQConn(&cfg.Rabbit, ctx)
	if err != nil {
		log.Fatalf("MQTT connect failed: %v", err)
	}
	defer rabbitmq.CloseRabbitMQConn(mqClient)

	consumer := rabbitmq.NewConsumer(mqClient, cfg.WeatherSubTopic, nil)
	publisher := rabbitmq.NewPublisher(mqClient, "")

	est, err := estimator.NewEstimator(consumer, publisher, catalog, estimator.Options{
		BandRule:          cfg.BandRule,
		Strict:            cfg.Strict,
		EstimateTopicTmpl: cfg.EstimateTopicTmpl,
		RejectTopicTmpl:   cfg.RejectTopicTmpl,
		Logger:            log,
		Metrics:           metrics,
	})
	if err != nil {
		log.Fatalf("estimator init: %v", err)
	}

	// === HTTP ===
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           estimator.NewHTTPMux(mqClient, len(catalog), reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	log.WithFields(logrus.Fields{
		"sub": cfg.WeatherSubTopic, "orchards": len(catalog),
		"band_rule": cfg.BandRule.String(), "strict": cfg.Strict,
	}).Info("estimator running")
	est.Start(ctx)

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shCtx)
	gs.GracefulStop()
	log.Info("shutdown complete")
}
