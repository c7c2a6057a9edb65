package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/rabbitmq"
)

type Config struct {
	Rabbit rabbitmq.RabbitMQConfig

	WeatherSubTopic   string
	EstimateTopicTmpl string
	RejectTopicTmpl   string

	CatalogPath string
	BandRule    canopy.BandRule
	Strict      bool

	GRPCPort int
	HTTPPort int
	LogLevel logrus.Level
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := env(key, ""); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := env(key, ""); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return def
}

func loadConfig() (Config, error) {
	rule, err := canopy.ParseBandRule(env("FAPAR_BAND_RULE", "reference"))
	if err != nil {
		return Config{}, err
	}
	lvl, err := logrus.ParseLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return Config{
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     env("RABBITMQ_HOST", "localhost"),
			Port:     envInt("RABBITMQ_PORT", 1883),
			User:     env("RABBITMQ_USER", "guest"),
			Password: env("RABBITMQ_PASSWORD", "guest"),
			ClientID: fmt.Sprintf("canopy-estimator-%s", env("HOSTNAME", "local")),
			Kind:     "topic",
		},
		WeatherSubTopic:   env("WEATHER_SUB_TOPIC", "weather/daily/#"),
		EstimateTopicTmpl: env("ESTIMATE_TOPIC_TMPL", "event/canopyEstimate/{orchard}"),
		RejectTopicTmpl:   env("REJECT_TOPIC_TMPL", "event/canopyRejected/{orchard}"),
		CatalogPath:       env("ORCHARDS_CONFIG_PATH", "/app/config/orchards.json"),
		BandRule:          rule,
		Strict:            envBool("STRICT_VALIDATION", true),
		GRPCPort:          envInt("GRPC_PORT", 50051),
		HTTPPort:          envInt("HTTP_PORT", 8080),
		LogLevel:          lvl,
	}, nil
}
