package canopy

import "math"

// InterceptionInput holds the structural and geometric drivers of the interception model.
type InterceptionInput struct {
	LAD float64 // leaf area density, m² m⁻³
	Vc  float64 // crown volume, m³
	Pd  float64 // planting density
	DOY int     // day of year
	Lat float64 // latitude, degrees
}

// Interception carries the result of the interception model together with its
// intermediate terms.
type Interception struct {
	Vn       float64 // normalized crown volume Vc/Pd
	Spacing  float64 // ground area per tree, 10⁴/Pd
	Band     SpacingBand
	M        float64 // shape parameter
	A, B     float64 // extinction coefficients
	Phi      float64 // solar declination, degrees
	CosTheta float64
	K        float64
	Fapar    float64
}

// ComputeFapar returns the fraction of absorbed PAR using the reference spacing bands.
func ComputeFapar(lad, vc, pd float64, doy int, lat float64) float64 {
	return ComputeFaparWith(InterceptionInput{LAD: lad, Vc: vc, Pd: pd, DOY: doy, Lat: lat}, ReferenceBands).Fapar
}

// ComputeFaparWith evaluates the interception model under the given band rule.
// The result is not clamped to [0,1].
func ComputeFaparWith(in InterceptionInput, rule BandRule) Interception {
	var r Interception
	r.Vn = in.Vc / in.Pd
	r.Spacing = Spacing(in.Pd)
	r.Band = rule.Classify(r.Spacing)
	r.M = r.Band.ShapeParameter(r.Vn)

	r.A = r.M - 0.0321*in.LAD
	r.B = 0.16 + 0.115*in.LAD

	r.Phi = SolarDeclination(in.DOY)
	r.CosTheta = CosineZenithProxy(in.Lat, r.Phi)

	r.K = r.A + r.B/r.CosTheta
	r.Fapar = 1 - math.Exp(-r.K*r.Vn)
	return r
}
