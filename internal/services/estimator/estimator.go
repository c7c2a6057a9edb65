package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
	"github.com/LeonardoBeccarini/olivecanopy/internal/model/entities"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/dedup"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/rabbitmq"
)

// ===================== Config / defaults =====================

const (
	DefaultEstimateTopic = "event/canopyEstimate/{orchard}"
	DefaultRejectTopic   = "event/canopyRejected/{orchard}"
)

type Options struct {
	BandRule canopy.BandRule
	// Strict runs the validation boundary; otherwise the raw formulas are evaluated
	// and divergent results are published with finite=false.
	Strict bool

	EstimateTopicTmpl string
	RejectTopicTmpl   string

	Logger  *logrus.Entry
	Metrics *Metrics
}

// ===================== Estimator =====================

// Estimator turns daily weather messages into canopy estimates for the
// orchards listed in its catalog.
type Estimator struct {
	consumer  rabbitmq.IConsumer[model.WeatherDay]
	publisher rabbitmq.IPublisher
	catalog   entities.Catalog
	opts      Options
	log       *logrus.Entry
	metrics   *Metrics
	deduper   *dedup.Deduper
	now       func() time.Time
}

// Result holds both model evaluations for one orchard-day.
type Result struct {
	Interception  canopy.Interception
	Transpiration canopy.Transpiration
}

// Finite reports whether both headline values are finite numbers.
func (r Result) Finite() bool {
	return isFinite(r.Interception.Fapar) && isFinite(r.Transpiration.MM)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func NewEstimator(
	c rabbitmq.IConsumer[model.WeatherDay],
	p rabbitmq.IPublisher,
	catalog entities.Catalog,
	opts Options,
) (*Estimator, error) {
	if p == nil {
		return nil, errors.New("publisher is nil")
	}
	if len(catalog) == 0 {
		return nil, errors.New("orchard catalog is empty")
	}
	if strings.TrimSpace(opts.EstimateTopicTmpl) == "" {
		opts.EstimateTopicTmpl = DefaultEstimateTopic
	}
	if strings.TrimSpace(opts.RejectTopicTmpl) == "" {
		opts.RejectTopicTmpl = DefaultRejectTopic
	}
	if opts.Logger == nil {
		opts.Logger = logrus.WithField("service", "estimator")
	}

	e := &Estimator{
		consumer:  c,
		publisher: p,
		catalog:   catalog,
		opts:      opts,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		// scarta redelivery QoS1 (TTL 10m, cap 20k)
		deduper: dedup.New(10*time.Minute, 20000),
		now:     time.Now,
	}
	if c != nil {
		c.SetHandler(e.handleWeather)
	}
	return e, nil
}

// Start consumes weather messages until ctx is cancelled.
func (e *Estimator) Start(ctx context.Context) {
	if e.consumer == nil {
		<-ctx.Done()
		return
	}
	go e.consumer.ConsumeMessage(ctx)
	<-ctx.Done()
	e.publisher.Close()
}

// Evaluate runs the interception model and feeds its fAPAR into the
// transpiration model. In strict mode a *canopy.DomainError is returned for
// out-of-domain inputs.
func (e *Estimator) Evaluate(o model.Orchard, w model.WeatherDay) (Result, error) {
	doy := w.DayOfYear()
	in := o.InterceptionInput(doy)

	var r Result
	if !e.opts.Strict {
		r.Interception = canopy.ComputeFaparWith(in, e.opts.BandRule)
		r.Transpiration = canopy.EvaluateTranspiration(transpirationInput(o, w, doy, r.Interception.Fapar))
		return r, nil
	}

	var err error
	if r.Interception, err = canopy.SafeFapar(in, e.opts.BandRule); err != nil {
		return r, err
	}
	r.Transpiration, err = canopy.SafeTranspiration(transpirationInput(o, w, doy, r.Interception.Fapar))
	return r, err
}

func transpirationInput(o model.Orchard, w model.WeatherDay, doy int, fpar float64) canopy.TranspirationInput {
	return canopy.TranspirationInput{Fpar: fpar, Rs: w.Rs, Td: w.Td, VPD: w.VPD, Lat: o.Latitude, DOY: doy}
}

// ===================== handler dati meteo =====================

func (e *Estimator) handleWeather(_ string, msg mqtt.Message) error {
	// la chiave si registra solo dopo la publish: una redelivery dopo un errore va rielaborata
	key := dedup.Key(msg.Payload())
	if e.deduper.Seen(key) {
		e.drop("duplicate")
		return nil
	}

	var w model.WeatherDay
	if err := json.Unmarshal(msg.Payload(), &w); err != nil {
		e.log.WithField("topic", msg.Topic()).WithError(err).Warn("bad weather payload")
		e.drop("payload")
		return nil
	}
	if w.OrchardID == "" {
		w.OrchardID = orchardFromTopic(msg.Topic())
	}

	orchard, ok := e.catalog.Lookup(w.OrchardID)
	if !ok {
		e.log.WithField("orchard_id", w.OrchardID).Warn("unknown orchard")
		e.drop("unknown_orchard")
		return nil
	}

	doy := w.DayOfYear()
	log := e.log.WithFields(logrus.Fields{"orchard_id": orchard.ID, "doy": doy})
	log.WithFields(logrus.Fields{"rs": w.Rs, "td": w.Td, "vpd": w.VPD, "source": w.Source}).Debug("weather day")

	res, err := e.Evaluate(orchard, w)
	if err != nil {
		var de *canopy.DomainError
		if !errors.As(err, &de) {
			return err
		}
		log.WithError(err).Info("inputs rejected")
		err = e.publishRejected(orchard.ID, doy, de)
	} else {
		err = e.publishEstimate(orchard.ID, doy, res)
	}
	if err != nil {
		return err
	}
	e.deduper.Record(key)
	return nil
}

func (e *Estimator) drop(reason string) {
	if e.metrics != nil {
		e.metrics.Dropped.WithLabelValues(reason).Inc()
	}
}

// orchardFromTopic extracts {orchard} from weather/daily/{orchard}.
func orchardFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) >= 3 {
		return parts[2]
	}
	return ""
}

// ===================== Publish =====================

// NewEstimateEvent builds the event for a result; non-finite values become nil.
func NewEstimateEvent(orchardID string, doy int, rule canopy.BandRule, res Result, ts time.Time) model.CanopyEstimateEvent {
	evt := model.CanopyEstimateEvent{
		EstimateID: uuid.NewString(),
		OrchardID:  orchardID,
		DOY:        doy,
		Band:       res.Interception.Band.String(),
		BandRule:   rule.String(),
		Finite:     res.Finite(),
		Timestamp:  ts.UTC(),
	}
	if f := res.Interception.Fapar; isFinite(f) {
		evt.Fapar = &f
	}
	if mm := res.Transpiration.MM; isFinite(mm) {
		evt.TranspirationMM = &mm
	}
	return evt
}

func (e *Estimator) publishEstimate(orchardID string, doy int, res Result) error {
	evt := NewEstimateEvent(orchardID, doy, e.opts.BandRule, res, e.now())
	topic := topicFor(e.opts.EstimateTopicTmpl, orchardID)
	if err := e.publisher.PublishToQos(topic, 1, false, evt); err != nil {
		return fmt.Errorf("publish estimate: %w", err)
	}

	if e.metrics != nil {
		e.metrics.Estimates.WithLabelValues(evt.Band, fmt.Sprint(evt.Finite)).Inc()
		observe(e.metrics.Fapar, res.Interception.Fapar)
		observe(e.metrics.Transpiration, res.Transpiration.MM)
	}
	e.log.WithFields(logrus.Fields{
		"orchard_id": orchardID, "doy": doy, "band": evt.Band,
		"fapar": res.Interception.Fapar, "transpiration_mm": res.Transpiration.MM, "topic": topic,
	}).Info("estimate published")
	return nil
}

func (e *Estimator) publishRejected(orchardID string, doy int, de *canopy.DomainError) error {
	evt := model.EstimateRejectedEvent{
		OrchardID: orchardID,
		DOY:       doy,
		Param:     de.Param,
		Reason:    de.Error(),
		Timestamp: e.now().UTC(),
	}
	if e.metrics != nil {
		e.metrics.Rejections.WithLabelValues(de.Param).Inc()
	}
	if err := e.publisher.PublishToQos(topicFor(e.opts.RejectTopicTmpl, orchardID), 1, false, evt); err != nil {
		return fmt.Errorf("publish rejection: %w", err)
	}
	return nil
}

func topicFor(tmpl, orchardID string) string {
	return strings.ReplaceAll(tmpl, "{orchard}", orchardID)
}
