package weather_station

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
)

const owmBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

type owmDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Day float64 `json:"day"`
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	DewPoint float64 `json:"dew_point"`
}

type owmResp struct {
	Daily []owmDaily `json:"daily"`
}

// OWMSource ricava il WeatherDay dal forecast giornaliero di OpenWeather:
// Td è la temperatura diurna, VPD viene dal punto di rugiada e Rs dalla
// formula di Hargreaves sulla escursione termica.
type OWMSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOWMSource(key string) *OWMSource {
	return &OWMSource{apiKey: key, baseURL: owmBaseURL, client: &http.Client{Timeout: 8 * time.Second}}
}

func (c *OWMSource) Name() string { return "openweather" }

func (c *OWMSource) Day(ctx context.Context, o model.Orchard, day time.Time) (model.WeatherDay, error) {
	if c.apiKey == "" {
		return model.WeatherDay{}, errors.New("missing api key")
	}
	url := fmt.Sprintf("%s?lat=%f&lon=%f&exclude=current,minutely,hourly,alerts&units=metric&appid=%s",
		strings.TrimRight(c.baseURL, "/"), o.Latitude, o.Longitude, c.apiKey)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := c.client.Do(req)
	if err != nil {
		return model.WeatherDay{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return model.WeatherDay{}, fmt.Errorf("owm status %d: %s", resp.StatusCode, string(b))
	}
	var out owmResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.WeatherDay{}, err
	}
	if len(out.Daily) == 0 {
		return model.WeatherDay{}, errors.New("no daily data")
	}

	// Scegli il giorno più vicino a 'day' (UTC) tra i daily restituiti
	target := truncateDay(day)
	chosen := out.Daily[0]
	minDelta := time.Duration(1<<63 - 1)
	for _, d := range out.Daily {
		delta := target.Sub(truncateDay(time.Unix(d.Dt, 0)))
		if delta < 0 {
			delta = -delta
		}
		if delta < minDelta {
			minDelta = delta
			chosen = d
		}
	}

	doy := target.YearDay()
	return model.WeatherDay{
		OrchardID: o.ID,
		Date:      target,
		DOY:       doy,
		Rs:        round2(rsHargreaves(chosen.Temp.Min, chosen.Temp.Max, extraterrestrialRadiation(o.Latitude, doy))),
		Td:        chosen.Temp.Day,
		VPD:       round2(math.Max(0, saturationVaporPressure(chosen.Temp.Day)-saturationVaporPressure(chosen.DewPoint))),
		Source:    c.Name(),
	}, nil
}

// ===== FAO-56 =====

// coefficiente di Hargreaves per siti interni
const kRs = 0.16

// rsHargreaves stima la radiazione solare [MJ/m2/giorno] dall'escursione termica.
func rsHargreaves(tmin, tmax, ra float64) float64 {
	return kRs * math.Sqrt(math.Max(tmax-tmin, 0)) * ra
}

// extraterrestrialRadiation è Ra [MJ/m2/giorno] per latitudine e giorno dell'anno.
func extraterrestrialRadiation(lat float64, doy int) float64 {
	const gsc = 0.0820 // costante solare [MJ/m2/min]
	phi := lat * math.Pi / 180
	j := float64(doy)
	dr := 1 + 0.033*math.Cos(2*math.Pi*j/365)
	delta := 0.409 * math.Sin(2*math.Pi*j/365-1.39)
	// clamp: notte o giorno polare
	ws := math.Acos(math.Max(-1, math.Min(1, -math.Tan(phi)*math.Tan(delta))))
	return 24 * 60 / math.Pi * gsc * dr * (ws*math.Sin(phi)*math.Sin(delta) + math.Cos(phi)*math.Cos(delta)*math.Sin(ws))
}

// saturationVaporPressure (Tetens) in kPa per T in °C.
func saturationVaporPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}
