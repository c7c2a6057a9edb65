package canopy

import (
	"math"
	"testing"
)

func TestReferenceBandsCollapse(t *testing.T) {
	for _, s := range []float64{400.0001, 400, 399, 300, 278, 250, 204, 150, 1, 0} {
		got := ReferenceBands.Classify(s)
		want := BandWide
		if s > 400 {
			want = BandSparse
		}
		if got != want {
			t.Errorf("reference Classify(%v) = %v, want %v", s, got, want)
		}
	}
	if got := ReferenceBands.Classify(math.NaN()); got != BandUndefined {
		t.Errorf("reference Classify(NaN) = %v", got)
	}
}

func TestCorrectedBands(t *testing.T) {
	for _, tt := range []struct {
		s    float64
		want SpacingBand
	}{
		{500, BandSparse},
		{400, BandWide},
		{300, BandWide},
		{278, BandMedium},
		{250, BandMedium},
		{204, BandDense},
		{100, BandDense},
		{math.NaN(), BandUndefined},
	} {
		if got := CorrectedBands.Classify(tt.s); got != tt.want {
			t.Errorf("corrected Classify(%v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestShapeParameter(t *testing.T) {
	vn := 0.5
	for _, tt := range []struct {
		b    SpacingBand
		want float64
	}{
		{BandSparse, 0.35},
		{BandWide, 0.20},
		{BandMedium, 0.32 - 0.06*vn},
		{BandDense, 0.23 - 0.04*vn},
	} {
		if got := tt.b.ShapeParameter(vn); got != tt.want {
			t.Errorf("%v.ShapeParameter = %v, want %v", tt.b, got, tt.want)
		}
	}
	if !math.IsNaN(BandUndefined.ShapeParameter(vn)) {
		t.Error("undefined band should give NaN")
	}
}

func TestParseBandRule(t *testing.T) {
	for in, want := range map[string]BandRule{"": ReferenceBands, "Reference": ReferenceBands, "legacy": ReferenceBands, " corrected ": CorrectedBands} {
		got, err := ParseBandRule(in)
		if err != nil || got != want {
			t.Errorf("ParseBandRule(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseBandRule("fixed"); err == nil {
		t.Error("expected error for unknown rule")
	}
}
