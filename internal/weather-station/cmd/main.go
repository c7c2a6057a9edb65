// cmd/weather-station/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
	"github.com/LeonardoBeccarini/olivecanopy/internal/model/entities"
	weatherStation "github.com/LeonardoBeccarini/olivecanopy/internal/weather-station"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/rabbitmq"
)

func main() {
	// define flags
	catalogPath := flag.String("orchards", "/app/config/orchards.json", "orchard catalog (json or toml)")
	clientID := flag.String("client-id", "weatherStation1", "MQTT client ID")
	broker := flag.String("broker", "localhost", "MQTT broker host")
	port := flag.Int("port", 1883, "MQTT broker port")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	step := flag.Duration("step", 24*time.Hour, "simulated time advanced per tick")
	start := flag.String("start", "", "first day to publish (YYYY-MM-DD), default yesterday")
	source := flag.String("source", "simulated", "weather source: simulated | influx | openweather")
	owmKey := flag.String("owm-key", os.Getenv("OWM_API_KEY"), "OpenWeather API key")
	influxURL := flag.String("influx-url", "http://influxdb:8086", "InfluxDB URL")
	influxToken := flag.String("influx-token", "", "InfluxDB token")
	influxOrg := flag.String("influx-org", "olivecanopy", "InfluxDB organization")
	influxBucket := flag.String("influx-bucket", "station", "InfluxDB bucket")
	measurement := flag.String("measurement", "station_weather", "station measurement")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("service", "weather-station")

	catalog, err := entities.LoadCatalog(*catalogPath)
	if err != nil {
		log.Fatal(err)
	}
	orchards := make([]model.Orchard, 0, len(catalog))
	for _, o := range catalog {
		orchards = append(orchards, o)
	}
	sort.Slice(orchards, func(i, j int) bool { return orchards[i].ID < orchards[j].ID })

	var startDate time.Time
	if *start != "" {
		if startDate, err = time.Parse("2006-01-02", *start); err != nil {
			log.Fatalf("start date: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var src weatherStation.Source
	switch *source {
	case "simulated":
		src = weatherStation.NewSeasonalGenerator()
	case "influx":
		influx := influxdb2.NewClient(*influxURL, *influxToken)
		defer influx.Close()
		src = weatherStation.NewInfluxSource(influx.QueryAPI(*influxOrg), *influxBucket, *measurement)
	case "openweather":
		src = weatherStation.NewOWMSource(*owmKey)
	default:
		log.Fatalf("unknown source %q", *source)
	}

	// inject flags into config
	cfg := &rabbitmq.RabbitMQConfig{
		Host:     *broker,
		Port:     *port,
		User:     "guest",
		Password: "guest",
		ClientID: *clientID,
		Kind:     "topic",
	}
	client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	publisher := rabbitmq.NewPublisher(client, "")
	station, err := weatherStation.NewWeatherStation(publisher, src, orchards, weatherStation.Options{
		StartDate: startDate,
		Step:      *step,
		Logger:    log,
	})
	if err != nil {
		log.Fatal(err)
	}

	log.WithFields(logrus.Fields{"orchards": len(orchards), "source": src.Name(), "interval": interval.String()}).Info("weather station running")
	station.Start(ctx, *interval)
}
