package estimator

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
	"github.com/LeonardoBeccarini/olivecanopy/internal/model/entities"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

// fakeMessage implements mqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakePublisher) PublishMessage(message interface{}) error {
	return p.PublishToQos("", 0, false, message)
}

func (p *fakePublisher) PublishToQos(topic string, qos byte, _ bool, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(message)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.sent = append(p.sent, published{topic, qos, b})
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() {}

var testCatalog = entities.Catalog{
	"cordoba-1": {ID: "cordoba-1", Latitude: 38, LAD: 1.88, CrownVolume: 15.25, PlantingDensity: 24.5},
	"tromso":    {ID: "tromso", Latitude: 80, LAD: 1.5, CrownVolume: 10, PlantingDensity: 20},
}

func newTestEstimator(t *testing.T, strict bool) (*Estimator, *fakePublisher, *Metrics) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	m := NewMetrics(prometheus.NewRegistry())
	pub := &fakePublisher{}
	e, err := NewEstimator(nil, pub, testCatalog, Options{
		Strict:  strict,
		Logger:  logrus.NewEntry(logger),
		Metrics: m,
	})
	if err != nil {
		t.Fatal(err)
	}
	e.now = func() time.Time { return time.Date(2024, 8, 1, 18, 0, 0, 0, time.UTC) }
	return e, pub, m
}

func weatherMsg(t *testing.T, topic string, w model.WeatherDay) fakeMessage {
	t.Helper()
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	return fakeMessage{topic: topic, payload: b}
}

func TestNewEstimatorRequiresCatalog(t *testing.T) {
	if _, err := NewEstimator(nil, &fakePublisher{}, nil, Options{}); err == nil {
		t.Error("expected error for empty catalog")
	}
	if _, err := NewEstimator(nil, nil, testCatalog, Options{}); err == nil {
		t.Error("expected error for nil publisher")
	}
}

func TestEvaluateMatchesFormulas(t *testing.T) {
	e, _, _ := newTestEstimator(t, true)
	res, err := e.Evaluate(testCatalog["cordoba-1"], model.WeatherDay{DOY: 214, Rs: 25, Td: 28, VPD: 2.5})
	if err != nil {
		t.Fatal(err)
	}
	wantFapar := canopy.ComputeFapar(1.88, 15.25, 24.5, 214, 38)
	if res.Interception.Fapar != wantFapar {
		t.Errorf("fapar = %v, want %v", res.Interception.Fapar, wantFapar)
	}
	wantMM := canopy.ComputeTranspiration(wantFapar, 25, 28, 2.5, 38, 214)
	if res.Transpiration.MM != wantMM {
		t.Errorf("transpiration = %v, want %v", res.Transpiration.MM, wantMM)
	}
	if !scalar.EqualWithinRel(res.Transpiration.MM, 1.9137186764656222, 1e-9) {
		t.Errorf("transpiration = %v", res.Transpiration.MM)
	}
}

func TestHandleWeatherPublishesEstimate(t *testing.T) {
	e, pub, m := newTestEstimator(t, true)
	msg := weatherMsg(t, "weather/daily/cordoba-1", model.WeatherDay{
		Date: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), Rs: 25, Td: 28, VPD: 2.5, Source: "simulated",
	})
	if err := e.handleWeather("weather/daily/#", msg); err != nil {
		t.Fatal(err)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("published %d messages", len(pub.sent))
	}
	p := pub.sent[0]
	if p.topic != "event/canopyEstimate/cordoba-1" || p.qos != 1 {
		t.Errorf("published on %s qos %d", p.topic, p.qos)
	}
	var evt model.CanopyEstimateEvent
	if err := json.Unmarshal(p.payload, &evt); err != nil {
		t.Fatal(err)
	}
	if evt.OrchardID != "cordoba-1" || evt.DOY != 214 || evt.Band != "sparse" || !evt.Finite || evt.EstimateID == "" {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.Fapar == nil || !scalar.EqualWithinRel(*evt.Fapar, 0.34955212313952855, 1e-9) {
		t.Errorf("fapar = %v", evt.Fapar)
	}
	if got := testutil.ToFloat64(m.Estimates.WithLabelValues("sparse", "true")); got != 1 {
		t.Errorf("estimates counter = %v", got)
	}

	// redelivery of the same payload is dropped
	if err := e.handleWeather("weather/daily/#", msg); err != nil {
		t.Fatal(err)
	}
	if len(pub.sent) != 1 {
		t.Errorf("duplicate published")
	}
	if got := testutil.ToFloat64(m.Dropped.WithLabelValues("duplicate")); got != 1 {
		t.Errorf("duplicate counter = %v", got)
	}
}

func TestHandleWeatherStrictRejects(t *testing.T) {
	e, pub, m := newTestEstimator(t, true)
	msg := weatherMsg(t, "weather/daily/cordoba-1", model.WeatherDay{OrchardID: "cordoba-1", DOY: 214, Rs: 25, Td: 28, VPD: 0})
	if err := e.handleWeather("", msg); err != nil {
		t.Fatal(err)
	}
	if len(pub.sent) != 1 || pub.sent[0].topic != "event/canopyRejected/cordoba-1" {
		t.Fatalf("unexpected publications %+v", pub.sent)
	}
	var evt model.EstimateRejectedEvent
	if err := json.Unmarshal(pub.sent[0].payload, &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Param != "vpd" {
		t.Errorf("rejected param = %q", evt.Param)
	}
	if got := testutil.ToFloat64(m.Rejections.WithLabelValues("vpd")); got != 1 {
		t.Errorf("rejection counter = %v", got)
	}
}

func TestHandleWeatherPermissivePublishesNonFinite(t *testing.T) {
	e, pub, _ := newTestEstimator(t, false)
	// polar summer: daylength is NaN
	msg := weatherMsg(t, "weather/daily/tromso", model.WeatherDay{DOY: 172, Rs: 25, Td: 12, VPD: 1})
	if err := e.handleWeather("", msg); err != nil {
		t.Fatal(err)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("published %d messages", len(pub.sent))
	}
	var evt model.CanopyEstimateEvent
	if err := json.Unmarshal(pub.sent[0].payload, &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Finite || evt.TranspirationMM != nil || evt.Fapar == nil {
		t.Errorf("unexpected event %+v", evt)
	}
}

func TestHandleWeatherDrops(t *testing.T) {
	e, pub, m := newTestEstimator(t, true)
	if err := e.handleWeather("", fakeMessage{topic: "weather/daily/x", payload: []byte("{")}); err != nil {
		t.Fatal(err)
	}
	if err := e.handleWeather("", weatherMsg(t, "weather/daily/nowhere", model.WeatherDay{DOY: 10})); err != nil {
		t.Fatal(err)
	}
	if len(pub.sent) != 0 {
		t.Errorf("published %d messages", len(pub.sent))
	}
	if testutil.ToFloat64(m.Dropped.WithLabelValues("payload")) != 1 || testutil.ToFloat64(m.Dropped.WithLabelValues("unknown_orchard")) != 1 {
		t.Error("drop counters not incremented")
	}
}

func TestHandleWeatherPublishError(t *testing.T) {
	e, pub, _ := newTestEstimator(t, true)
	pub.err = errors.New("broker down")
	msg := weatherMsg(t, "weather/daily/cordoba-1", model.WeatherDay{DOY: 214, Rs: 25, Td: 28, VPD: 2.5})
	if err := e.handleWeather("", msg); err == nil {
		t.Error("expected publish error")
	}

	// the broker redelivers after the failure: it must be processed, then deduped
	pub.err = nil
	if err := e.handleWeather("", msg); err != nil {
		t.Fatal(err)
	}
	if err := e.handleWeather("", msg); err != nil {
		t.Fatal(err)
	}
	if len(pub.sent) != 1 {
		t.Errorf("published %d messages, want 1", len(pub.sent))
	}
}

func TestOrchardFromTopic(t *testing.T) {
	for topic, want := range map[string]string{
		"weather/daily/cordoba-1": "cordoba-1",
		"/weather/daily/jaen/":    "jaen",
		"weather/daily":           "",
	} {
		if got := orchardFromTopic(topic); got != want {
			t.Errorf("orchardFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}
