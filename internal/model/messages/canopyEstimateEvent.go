package messages

import "time"

// CanopyEstimateEvent is published by the estimator for every evaluated orchard-day.
// Fapar and TranspirationMM are nil when the formulas diverged (NaN/Inf), since
// JSON cannot carry non-finite numbers.
type CanopyEstimateEvent struct {
	EstimateID      string    `json:"estimate_id"`
	OrchardID       string    `json:"orchard_id"`
	DOY             int       `json:"doy"`
	Band            string    `json:"band"`
	BandRule        string    `json:"band_rule"`
	Fapar           *float64  `json:"fapar"`
	TranspirationMM *float64  `json:"transpiration_mm"`
	Finite          bool      `json:"finite"`
	Timestamp       time.Time `json:"timestamp"`
}
