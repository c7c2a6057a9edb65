package weather_station

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
)

// Source produce i driver meteo giornalieri di un oliveto.
type Source interface {
	Day(ctx context.Context, orchard model.Orchard, date time.Time) (model.WeatherDay, error)
	Name() string
}

// ====== Tunables (clima mediterraneo, emisfero nord) ======
const (
	// picco estivo della stagionalità
	peakDOY = 200

	rsMean, rsAmp   = 17.5, 10.5 // radiazione solare giornaliera [MJ/m2]
	tdMean, tdAmp   = 19.0, 10.0 // temperatura media diurna [°C]
	vpdMean, vpdAmp = 1.6, 1.3   // deficit di pressione di vapore [kPa]

	// ampiezza del rumore relativo giorno per giorno
	jitter = 0.08
)

// SeasonalGenerator è una sorgente simulata: un ciclo annuale con rumore
// deterministico per (oliveto, giorno), quindi riproducibile.
type SeasonalGenerator struct {
	Jitter float64
}

func NewSeasonalGenerator() *SeasonalGenerator {
	return &SeasonalGenerator{Jitter: jitter}
}

func (g *SeasonalGenerator) Name() string { return "simulated" }

func (g *SeasonalGenerator) Day(_ context.Context, o model.Orchard, date time.Time) (model.WeatherDay, error) {
	doy := date.YearDay()
	c := math.Cos(2 * math.Pi * float64(doy-peakDOY) / 365)
	if o.Latitude < 0 {
		// emisfero sud: stagioni invertite
		c = -c
	}

	rng := rand.New(rand.NewSource(seed(o.ID, date)))
	noise := func() float64 { return 1 + g.Jitter*(2*rng.Float64()-1) }

	return model.WeatherDay{
		OrchardID: o.ID,
		Date:      truncateDay(date),
		DOY:       doy,
		Rs:        round2((rsMean + rsAmp*c) * noise()),
		Td:        round2((tdMean + tdAmp*c) * noise()),
		VPD:       round2(math.Max(0.1, (vpdMean+vpdAmp*c)*noise())),
		Source:    g.Name(),
	}, nil
}

// ===== Helpers =====

func seed(id string, date time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	_, _ = h.Write([]byte(date.UTC().Format("2006-01-02")))
	return int64(h.Sum64())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
