package weather_station

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/rabbitmq"
)

const DefaultTopic = "weather/daily/{orchard}"

type Options struct {
	TopicTmpl string
	// StartDate è il primo giorno pubblicato; ogni tick avanza di Step.
	StartDate time.Time
	Step      time.Duration
	Logger    *logrus.Entry
}

// WeatherStation publishes one WeatherDay per orchard on every tick.
type WeatherStation struct {
	mu        sync.Mutex
	orchards  []model.Orchard
	source    Source
	publisher rabbitmq.IPublisher
	opts      Options
	log       *logrus.Entry
	day       time.Time
	now       func() time.Time
}

func NewWeatherStation(publisher rabbitmq.IPublisher, source Source, orchards []model.Orchard, opts Options) (*WeatherStation, error) {
	if publisher == nil || source == nil {
		return nil, errors.New("publisher and source are required")
	}
	if len(orchards) == 0 {
		return nil, errors.New("no orchards to publish for")
	}
	if strings.TrimSpace(opts.TopicTmpl) == "" {
		opts.TopicTmpl = DefaultTopic
	}
	if opts.Step <= 0 {
		opts.Step = 24 * time.Hour
	}
	if opts.StartDate.IsZero() {
		// ieri: l'ultimo giorno completo
		opts.StartDate = time.Now().UTC().AddDate(0, 0, -1)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.WithField("service", "weather-station")
	}
	return &WeatherStation{
		orchards:  orchards,
		source:    source,
		publisher: publisher,
		opts:      opts,
		log:       opts.Logger.WithField("source", source.Name()),
		day:       truncateDay(opts.StartDate),
		now:       time.Now,
	}, nil
}

// Start publishes the current day, then advances one Step per interval until ctx ends.
func (s *WeatherStation) Start(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if n, err := s.Tick(ctx); err != nil {
			s.log.WithError(err).WithField("published", n).Warn("tick incomplete")
		}
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-t.C:
		}
	}
}

// Tick publishes the current day for every orchard and advances the day.
// It returns how many orchards were published and the first error met.
func (s *WeatherStation) Tick(ctx context.Context) (int, error) {
	s.mu.Lock()
	day := s.day
	s.day = s.day.Add(s.opts.Step)
	s.mu.Unlock()

	var (
		n        int
		firstErr error
	)
	for _, o := range s.orchards {
		if err := s.PublishDay(ctx, o, day); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}

// PublishDay reads one orchard-day from the source and publishes it at QoS 1.
func (s *WeatherStation) PublishDay(ctx context.Context, o model.Orchard, day time.Time) error {
	wd, err := s.source.Day(ctx, o, day)
	if err != nil {
		return err
	}
	wd.Timestamp = s.now().UTC()

	topic := strings.ReplaceAll(s.opts.TopicTmpl, "{orchard}", o.ID)
	if err := s.publisher.PublishToQos(topic, 1, false, wd); err != nil {
		return err
	}
	//debug
	s.log.WithFields(logrus.Fields{
		"orchard_id": o.ID, "doy": wd.DOY, "rs": wd.Rs, "td": wd.Td, "vpd": wd.VPD,
	}).Debug("weather day published")
	return nil
}
