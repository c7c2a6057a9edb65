package messages

import "time"

// EstimateRejectedEvent è pubblicato dall'estimator quando la validazione scarta gli input.
type EstimateRejectedEvent struct {
	OrchardID string    `json:"orchard_id"`
	DOY       int       `json:"doy"`
	Param     string    `json:"param,omitempty"` // input fuori dominio (es. "vpd")
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
