// Package canopy implements the olive orchard radiation-interception model
// (Mariscal et al. 2000) and the canopy-conductance transpiration model
// (Orgaz et al. 2007) for a single site-day.
//
// Every function here is a pure scalar computation. Out-of-domain inputs are not
// rejected: they propagate as NaN or ±Inf exactly as the closed-form expressions
// produce them. Callers that need a structured error use SafeFapar and
// SafeTranspiration instead.
package canopy

import "math"

const (
	// solsticeDOY is the day of year of the northern summer solstice.
	solsticeDOY = 172
	// maxDeclination is the declination amplitude in degrees.
	maxDeclination = 23.5

	deg2rad = math.Pi / 180
)

// SolarDeclination returns the sun's declination in degrees for the given day of year.
// It peaks at 23.5° on day 172.
func SolarDeclination(doy int) float64 {
	return maxDeclination * math.Cos((360*float64(doy-solsticeDOY)/365)*deg2rad)
}

// CosineZenithProxy is the path-length proxy used by the interception model:
// sin(lat)·sin(phi) + cos(lat)·cos(phi), i.e. the cosine of the solar zenith at noon.
// lat and phi are in degrees. The result is not clamped.
func CosineZenithProxy(lat, phi float64) float64 {
	return math.Sin(lat*deg2rad)*math.Sin(phi*deg2rad) + math.Cos(lat*deg2rad)*math.Cos(phi*deg2rad)
}

// sunsetArgument is the argument of acos in the half-daylength formula.
func sunsetArgument(lat, phi float64) float64 {
	return -math.Tan(lat*deg2rad) * math.Tan(phi*deg2rad)
}

// DaytimeLength returns the daylength in hours for latitude lat and declination phi (degrees).
// Under polar day or polar night the acos argument falls outside [-1,1] and the result is NaN.
func DaytimeLength(lat, phi float64) float64 {
	hs := math.Acos(sunsetArgument(lat, phi))
	return 24 * hs / math.Pi
}

// DaytimeLengthForDay composes SolarDeclination and DaytimeLength.
func DaytimeLengthForDay(lat float64, doy int) float64 {
	return DaytimeLength(lat, SolarDeclination(doy))
}
