package messages

import (
	"time"
)

// WeatherDay holds the daily meteorological drivers for one orchard,
// published by the weather station on weather/daily/{orchard}.
type WeatherDay struct {
	OrchardID string    `json:"orchard_id"`
	Date      time.Time `json:"date"`
	DOY       int       `json:"doy,omitempty"`
	Rs        float64   `json:"rs"`     // solar radiation
	Td        float64   `json:"td"`     // mean daytime temperature [°C]
	VPD       float64   `json:"vpd"`    // vapor pressure deficit [kPa]
	Source    string    `json:"source"` // "simulated" | "influx"
	Timestamp time.Time `json:"timestamp"`
}

// DayOfYear returns DOY, falling back to the day of Date when DOY is unset.
func (w WeatherDay) DayOfYear() int {
	if w.DOY != 0 {
		return w.DOY
	}
	if w.Date.IsZero() {
		return 0
	}
	return w.Date.YearDay()
}
