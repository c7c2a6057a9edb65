package weather_station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/spf13/cast"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
)

// ErrNoDaytimeRecords is returned when a day has no record with positive radiation.
var ErrNoDaytimeRecords = errors.New("no daytime station records")

// InfluxSource legge i record orari della stazione meteo da InfluxDB
// (measurement con campi rs, temp, vpd e tag orchard_id) e li riduce a un
// WeatherDay: Rs è la somma giornaliera, Td e VPD le medie diurne.
type InfluxSource struct {
	query       api.QueryAPI
	bucket      string
	measurement string
}

func NewInfluxSource(q api.QueryAPI, bucket, measurement string) *InfluxSource {
	if measurement == "" {
		measurement = "station_weather"
	}
	return &InfluxSource{query: q, bucket: bucket, measurement: measurement}
}

func (s *InfluxSource) Name() string { return "influx" }

// stationRecord is one pivoted row: rs is the radiation collected over the
// record interval [MJ/m2], temp in °C, vpd in kPa.
type stationRecord struct {
	Rs, Temp, VPD float64
}

func buildFlux(bucket, measurement, orchardID string, start, stop time.Time) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r.orchard_id == %q)
  |> filter(fn: (r) => r._field == "rs" or r._field == "temp" or r._field == "vpd")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])
`, bucket, start.UTC().Format(time.RFC3339), stop.UTC().Format(time.RFC3339), measurement, orchardID)
}

func (s *InfluxSource) Day(ctx context.Context, o model.Orchard, date time.Time) (model.WeatherDay, error) {
	start := truncateDay(date)
	res, err := s.query.Query(ctx, buildFlux(s.bucket, s.measurement, o.ID, start, start.AddDate(0, 0, 1)))
	if err != nil {
		return model.WeatherDay{}, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()

	var recs []stationRecord
	for res.Next() {
		rec := res.Record()
		recs = append(recs, stationRecord{
			Rs:   cast.ToFloat64(rec.ValueByKey("rs")),
			Temp: cast.ToFloat64(rec.ValueByKey("temp")),
			VPD:  cast.ToFloat64(rec.ValueByKey("vpd")),
		})
	}
	if err := res.Err(); err != nil {
		return model.WeatherDay{}, fmt.Errorf("influx iterate: %w", err)
	}

	rs, td, vpd, err := aggregateDay(recs)
	if err != nil {
		return model.WeatherDay{}, fmt.Errorf("orchard %s on %s: %w", o.ID, start.Format("2006-01-02"), err)
	}
	return model.WeatherDay{
		OrchardID: o.ID,
		Date:      start,
		DOY:       start.YearDay(),
		Rs:        rs,
		Td:        td,
		VPD:       vpd,
		Source:    s.Name(),
	}, nil
}

// aggregateDay sums radiation over the day and averages temperature and VPD
// over the records with positive radiation.
func aggregateDay(recs []stationRecord) (rs, td, vpd float64, err error) {
	var n int
	for _, r := range recs {
		if r.Rs <= 0 {
			continue
		}
		rs += r.Rs
		td += r.Temp
		vpd += r.VPD
		n++
	}
	if n == 0 {
		return 0, 0, 0, ErrNoDaytimeRecords
	}
	return rs, td / float64(n), vpd / float64(n), nil
}
