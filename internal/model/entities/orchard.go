package entities

import "github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"

// Orchard represents an olive plantation with the structural metrics
// needed by the interception model (LiDAR-derived crown metrics).
type Orchard struct {
	ID              string  `json:"id" toml:"id"`
	Name            string  `json:"name,omitempty" toml:"name"`
	Latitude        float64 `json:"latitude" toml:"latitude"`
	Longitude       float64 `json:"longitude" toml:"longitude"`
	LAD             float64 `json:"lad" toml:"lad"`                           // leaf area density [m2/m3]
	CrownVolume     float64 `json:"crown_volume_m3" toml:"crown_volume_m3"`   // volume chioma [m3]
	PlantingDensity float64 `json:"planting_density" toml:"planting_density"` // densità d'impianto
}

// InterceptionInput builds the interception model input for a day of year.
func (o Orchard) InterceptionInput(doy int) canopy.InterceptionInput {
	return canopy.InterceptionInput{
		LAD: o.LAD,
		Vc:  o.CrownVolume,
		Pd:  o.PlantingDensity,
		DOY: doy,
		Lat: o.Latitude,
	}
}
