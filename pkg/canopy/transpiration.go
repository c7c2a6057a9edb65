package canopy

const (
	Patm   = 101.4 // atmospheric pressure, kPa
	Cp     = 1012  // specific heat of air, J kg⁻¹ K⁻¹
	Gamma  = 0.067 // psychrometric constant, kPa K⁻¹
	Lambda = 2.45  // latent heat of vaporization, MJ kg⁻¹

	// empirical conductance response to temperature: a·Td − b
	conductanceSlope     = 2.73
	conductanceIntercept = 8.71

	parFraction = 0.45 // PAR share of global radiation
)

// TranspirationInput holds the meteorological drivers of the transpiration model.
type TranspirationInput struct {
	Fpar float64 // fraction of absorbed PAR
	Rs   float64 // solar radiation
	Td   float64 // mean daytime temperature, °C
	VPD  float64 // vapor pressure deficit, kPa
	Lat  float64 // latitude, degrees
	DOY  int
}

// Transpiration is the transpiration result with every intermediate term.
type Transpiration struct {
	Ro  float64 // air density
	Phi float64 // solar declination, degrees
	N   float64 // daytime length, hours
	Rsp float64 // approximate PAR irradiance
	Gc  float64 // canopy conductance, mm s⁻¹
	Rc  float64 // canopy resistance
	LE  float64 // latent heat flux, W m⁻²
	MM  float64 // transpiration, mm day⁻¹
}

// ComputeTranspiration returns mean daytime transpiration in mm day⁻¹.
func ComputeTranspiration(fpar, rs, td, vpd, lat float64, doy int) float64 {
	return EvaluateTranspiration(TranspirationInput{Fpar: fpar, Rs: rs, Td: td, VPD: vpd, Lat: lat, DOY: doy}).MM
}

// EvaluateTranspiration runs the conductance model step by step.
// VPD=0 or a zero conductance diverge to Inf/NaN; Td below b/a gives a negative
// conductance and a sign-flipped flux. None of these are rejected here.
func EvaluateTranspiration(in TranspirationInput) Transpiration {
	var t Transpiration
	t.Ro = 3.486 * Patm / (in.Td + 275.3)

	t.Phi = SolarDeclination(in.DOY)
	t.N = DaytimeLength(in.Lat, t.Phi)

	t.Rsp = in.Rs * parFraction * 1e6 / 3600 / t.N
	t.Gc = in.Fpar * t.Rsp * (conductanceSlope*in.Td - conductanceIntercept) / 1000 / in.VPD
	t.Rc = 1000 / t.Gc

	t.LE = t.Ro * Cp / Gamma * in.VPD / t.Rc
	t.MM = t.LE * 3600 * t.N / 1e6 / Lambda
	return t
}
