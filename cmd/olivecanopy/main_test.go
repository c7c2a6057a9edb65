package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, args ...string) map[string]interface{} {
	t.Helper()
	out, err := run(t, append(args, "--json")...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	return m
}

var worked = []string{"--lad", "1.88", "--vc", "15.25", "--pd", "24.5", "--doy", "214", "--lat", "38"}

func TestFaparCommand(t *testing.T) {
	m := runJSON(t, append([]string{"fapar"}, worked...)...)
	if got := m["fapar"].(float64); !scalar.EqualWithinRel(got, 0.34955212313952855, 1e-9) {
		t.Errorf("fapar = %v", got)
	}
	if m["band"] != "sparse" || m["band_rule"] != "reference" {
		t.Errorf("unexpected output %v", m)
	}
}

func TestFaparCommandText(t *testing.T) {
	out, err := run(t, append([]string{"fapar"}, worked...)...)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "fapar") || !strings.Contains(out, "sparse") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFaparCorrectedBands(t *testing.T) {
	m := runJSON(t, "fapar", "--lad", "1.88", "--vc", "15.25", "--pd", "40", "--doy", "214", "--lat", "38", "--bands", "corrected")
	if m["band"] != "medium" || !scalar.EqualWithinRel(m["fapar"].(float64), 0.2159433862945005, 1e-9) {
		t.Errorf("unexpected output %v", m)
	}
}

func TestTranspirationCommand(t *testing.T) {
	m := runJSON(t, "transpiration", "--fpar", "0.5", "--rs", "25", "--td", "28", "--vpd", "2.5", "--lat", "38", "--doy", "214")
	if got := m["transpiration_mm"].(float64); !scalar.EqualWithinRel(got, 2.737386715430899, 1e-9) {
		t.Errorf("transpiration = %v", got)
	}
}

func TestEstimateCommand(t *testing.T) {
	m := runJSON(t, append([]string{"estimate", "--rs", "25", "--td", "28", "--vpd", "2.5"}, worked...)...)
	if got := m["transpiration_mm"].(float64); !scalar.EqualWithinRel(got, 1.9137186764656222, 1e-9) {
		t.Errorf("transpiration = %v", got)
	}
	if m["finite"] != true {
		t.Errorf("finite = %v", m["finite"])
	}
}

func TestEstimateFromCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchards.toml")
	catalog := `
[[orchards]]
id = "cordoba-1"
latitude = 38
lad = 1.88
crown_volume_m3 = 15.25
planting_density = 24.5
`
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}
	m := runJSON(t, "fapar", "--catalog", path, "--orchard", "cordoba-1", "--doy", "214")
	if got := m["fapar"].(float64); !scalar.EqualWithinRel(got, 0.34955212313952855, 1e-9) {
		t.Errorf("fapar = %v", got)
	}

	if _, err := run(t, "fapar", "--catalog", path, "--orchard", "nowhere", "--doy", "214"); err == nil {
		t.Error("expected error for unknown orchard")
	}
}

func TestPolarDayNonFinite(t *testing.T) {
	m := runJSON(t, "daylength", "--lat", "80", "--doy", "172")
	if m["daylength"] != nil {
		t.Errorf("daylength = %v, want null", m["daylength"])
	}

	out, err := run(t, "daylength", "--lat", "80", "--doy", "172")
	if err != nil || !strings.Contains(out, "NaN") {
		t.Errorf("text output %q, err %v", out, err)
	}
}

func TestStrictRejects(t *testing.T) {
	_, err := run(t, "fapar", "--lad", "1.88", "--vc", "15.25", "--pd", "0", "--doy", "214", "--lat", "38", "--strict")
	if !errors.Is(err, canopy.ErrPlantingDensity) {
		t.Errorf("err = %v", err)
	}

	// without --strict the zero density saturates
	m := runJSON(t, "fapar", "--lad", "1.88", "--vc", "15.25", "--pd", "0", "--doy", "214", "--lat", "38")
	if m["fapar"] != 1.0 || m["vn"] != nil {
		t.Errorf("unexpected output %v", m)
	}
}

func TestMissingFlags(t *testing.T) {
	if _, err := run(t, "fapar", "--lad", "1.88", "--doy", "214"); err == nil {
		t.Error("expected error without --vc/--pd")
	}
	if _, err := run(t, "transpiration", "--fpar", "0.5", "--doy", "214"); err == nil {
		t.Error("expected error without weather flags")
	}
	if _, err := run(t, append([]string{"fapar", "--bands", "fuzzy"}, worked...)...); err == nil {
		t.Error("expected error for unknown band rule")
	}
}

func TestLatitudeRequired(t *testing.T) {
	for _, args := range [][]string{
		{"fapar", "--lad", "1.88", "--vc", "15.25", "--pd", "24.5", "--doy", "214"},
		{"estimate", "--lad", "1.88", "--vc", "15.25", "--pd", "24.5", "--doy", "214", "--rs", "25", "--td", "28", "--vpd", "2.5"},
		{"transpiration", "--fpar", "0.5", "--rs", "25", "--td", "28", "--vpd", "2.5", "--doy", "214"},
		{"daylength", "--doy", "214"},
	} {
		if _, err := run(t, args...); err == nil || !strings.Contains(err.Error(), "lat") {
			t.Errorf("%v: err = %v, want missing --lat", args, err)
		}
	}
}

func TestDayOfYearIsDecimal(t *testing.T) {
	padded := runJSON(t, "daylength", "--lat", "38", "--doy", "032")
	plain := runJSON(t, "daylength", "--lat", "38", "--doy", "32")
	if padded["declination"] != plain["declination"] {
		t.Errorf("doy 032 gave %v, doy 32 gave %v", padded["declination"], plain["declination"])
	}
	if _, err := run(t, "daylength", "--lat", "38", "--doy", "0x20"); err == nil {
		t.Error("expected error for hex day of year")
	}
}
