package app

import (
	"math"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

// ---------- Response payloads ----------

// JSON has no NaN/Inf: non-finite values are encoded as null and the
// response carries finite=false.

type FaparResponse struct {
	Fapar    *float64 `json:"fapar"`
	Finite   bool     `json:"finite"`
	Band     string   `json:"band"`
	BandRule string   `json:"band_rule"`
	Vn       *float64 `json:"vn"`
	Spacing  *float64 `json:"spacing"`
	M        *float64 `json:"m"`
	K        *float64 `json:"k"`
	Phi      *float64 `json:"phi"`
	CosTheta *float64 `json:"cos_theta"`
}

type TranspirationResponse struct {
	MM     *float64 `json:"transpiration_mm"`
	Finite bool     `json:"finite"`
	LE     *float64 `json:"le"`
	Gc     *float64 `json:"gc"`
	Rc     *float64 `json:"rc"`
	N      *float64 `json:"daylength"`
	Rsp    *float64 `json:"rsp"`
}

type EstimateResponse struct {
	Fapar         FaparResponse         `json:"fapar"`
	Transpiration TranspirationResponse `json:"transpiration"`
	Finite        bool                  `json:"finite"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Param string `json:"param,omitempty"`
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newFaparResponse(r canopy.Interception, rule canopy.BandRule) FaparResponse {
	resp := FaparResponse{
		Fapar:    num(r.Fapar),
		Band:     r.Band.String(),
		BandRule: rule.String(),
		Vn:       num(r.Vn),
		Spacing:  num(r.Spacing),
		M:        num(r.M),
		K:        num(r.K),
		Phi:      num(r.Phi),
		CosTheta: num(r.CosTheta),
	}
	resp.Finite = resp.Fapar != nil
	return resp
}

func newTranspirationResponse(t canopy.Transpiration) TranspirationResponse {
	resp := TranspirationResponse{
		MM:  num(t.MM),
		LE:  num(t.LE),
		Gc:  num(t.Gc),
		Rc:  num(t.Rc),
		N:   num(t.N),
		Rsp: num(t.Rsp),
	}
	resp.Finite = resp.MM != nil
	return resp
}
