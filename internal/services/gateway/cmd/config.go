package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

type Config struct {
	Port          string
	EstimatorAddr string // es. estimator.fog:50051
	TimeoutMs     int
	Retries       int

	CBFails      int
	CBOpenMs     int
	CBIntervalMs int

	BandRule canopy.BandRule
	Strict   bool
	LogLevel logrus.Level
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return d
}

func loadConfig() (Config, error) {
	rule, err := canopy.ParseBandRule(getenv("FAPAR_BAND_RULE", "reference"))
	if err != nil {
		return Config{}, err
	}
	lvl, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	return Config{
		Port:          getenv("PORT", "5009"),
		EstimatorAddr: getenv("ESTIMATOR_ADDR", "canopy-estimator:50051"),
		TimeoutMs:     getenvInt("TIMEOUT_MS", 3000),
		Retries:       getenvInt("RPC_RETRIES", 2),

		CBFails:      getenvInt("CB_FAILS", 5),
		CBOpenMs:     getenvInt("CB_OPEN_MS", 10000),
		CBIntervalMs: getenvInt("CB_INTERVAL_MS", 60000),

		BandRule: rule,
		Strict:   getenvBool("STRICT_VALIDATION", true),
		LogLevel: lvl,
	}, nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
