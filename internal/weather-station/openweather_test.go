package weather_station

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model"
)

const owmFixture = `{"daily":[
 {"dt":1722427200,"temp":{"day":22,"min":14,"max":30},"dew_point":10},
 {"dt":1722513600,"temp":{"day":28,"min":18,"max":34},"dew_point":12},
 {"dt":1722600000,"temp":{"day":31,"min":20,"max":36},"dew_point":14}
]}`

func TestExtraterrestrialRadiation(t *testing.T) {
	// FAO-56 example 8: 20°S, 3 September
	if got := extraterrestrialRadiation(-20, 246); !scalar.EqualWithinAbs(got, 32.2, 0.05) {
		t.Errorf("Ra = %v, want 32.2", got)
	}
}

func TestSaturationVaporPressure(t *testing.T) {
	if got := saturationVaporPressure(25); !scalar.EqualWithinAbs(got, 3.168, 1e-3) {
		t.Errorf("es(25) = %v", got)
	}
}

func TestOWMSourcePicksClosestDay(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(owmFixture))
	}))
	defer srv.Close()

	src := NewOWMSource("k")
	src.baseURL = srv.URL
	o := model.Orchard{ID: "cordoba-1", Latitude: 38, Longitude: -4.8}
	wd, err := src.Day(context.Background(), o, time.Date(2024, 8, 1, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery == "" {
		t.Fatal("server not called")
	}
	if wd.DOY != 214 || wd.Td != 28 || wd.Source != "openweather" {
		t.Errorf("unexpected day %+v", wd)
	}
	if !scalar.EqualWithinAbs(wd.Rs, 24.92, 1e-9) || !scalar.EqualWithinAbs(wd.VPD, 2.38, 1e-9) {
		t.Errorf("rs=%v vpd=%v", wd.Rs, wd.VPD)
	}
}

func TestOWMSourceErrors(t *testing.T) {
	if _, err := NewOWMSource("").Day(context.Background(), model.Orchard{}, time.Now()); err == nil {
		t.Error("expected missing key error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	src := NewOWMSource("k")
	src.baseURL = srv.URL
	if _, err := src.Day(context.Background(), model.Orchard{ID: "x"}, time.Now()); err == nil {
		t.Error("expected status error")
	}
}
