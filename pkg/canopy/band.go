package canopy

import (
	"fmt"
	"math"
	"strings"
)

// SpacingBand tags which empirical shape-parameter regime applies to an orchard,
// keyed on the ground area per tree s = 10⁴/Pd.
type SpacingBand int

const (
	BandUndefined SpacingBand = iota
	BandSparse                // s > 400
	BandWide                  // 278 < s <= 400
	BandMedium                // 204 < s <= 278
	BandDense                 // s <= 204
)

// spacing thresholds, m² per tree
const (
	sparseSpacing = 400
	wideSpacing   = 278
	mediumSpacing = 204
)

func (b SpacingBand) String() string {
	switch b {
	case BandSparse:
		return "sparse"
	case BandWide:
		return "wide"
	case BandMedium:
		return "medium"
	case BandDense:
		return "dense"
	default:
		return "undefined"
	}
}

// ShapeParameter returns the empirical coefficient m for the band.
// The medium and dense bands depend on the normalized crown volume vn.
func (b SpacingBand) ShapeParameter(vn float64) float64 {
	switch b {
	case BandSparse:
		return 0.35
	case BandWide:
		return 0.20
	case BandMedium:
		return 0.32 - 0.06*vn
	case BandDense:
		return 0.23 - 0.04*vn
	default:
		return math.NaN()
	}
}

// BandRule selects how a spacing is mapped onto a SpacingBand.
type BandRule int

const (
	// ReferenceBands reproduces the published model code. Its second guard,
	// s<400 || s>278, is true for every finite s that failed s>400, so the
	// medium and dense bands can never be selected. Kept as the default for
	// numerical parity with published fAPAR values.
	ReferenceBands BandRule = iota
	// CorrectedBands uses non-overlapping ranges so all four bands are reachable.
	// This deviates from published values for s <= 278.
	CorrectedBands
)

func (r BandRule) String() string {
	if r == CorrectedBands {
		return "corrected"
	}
	return "reference"
}

// ParseBandRule accepts "reference" (or "legacy", "") and "corrected".
func ParseBandRule(s string) (BandRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reference", "legacy":
		return ReferenceBands, nil
	case "corrected":
		return CorrectedBands, nil
	}
	return ReferenceBands, fmt.Errorf("unknown band rule %q", s)
}

// Classify maps a ground area per tree onto a band. NaN spacing is BandUndefined
// under both rules.
func (r BandRule) Classify(spacing float64) SpacingBand {
	if r == CorrectedBands {
		return classifyCorrected(spacing)
	}
	return classifyReference(spacing)
}

func classifyReference(s float64) SpacingBand {
	switch {
	case s > sparseSpacing:
		return BandSparse
	case s < sparseSpacing || s > wideSpacing:
		return BandWide
	case s < wideSpacing || s > mediumSpacing:
		return BandMedium
	case s < mediumSpacing:
		return BandDense
	}
	return BandUndefined
}

func classifyCorrected(s float64) SpacingBand {
	switch {
	case s > sparseSpacing:
		return BandSparse
	case s > wideSpacing && s <= sparseSpacing:
		return BandWide
	case s > mediumSpacing && s <= wideSpacing:
		return BandMedium
	case s <= mediumSpacing:
		return BandDense
	}
	return BandUndefined
}

// Spacing is the ground area per tree (m²) for a planting density.
func Spacing(pd float64) float64 {
	return 1e4 / pd
}
