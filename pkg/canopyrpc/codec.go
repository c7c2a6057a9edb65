package canopyrpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

// FaparRequest asks for the interception model on one orchard-day.
type FaparRequest struct {
	Input    canopy.InterceptionInput
	BandRule canopy.BandRule
	Strict   bool // validate inputs before evaluating
}

// TranspirationRequest asks for the transpiration model on one orchard-day.
type TranspirationRequest struct {
	Input  canopy.TranspirationInput
	Strict bool
}

func number(v float64) *structpb.Value { return structpb.NewNumberValue(v) }

// Struct encodes the request.
func (r FaparRequest) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"lad":       number(r.Input.LAD),
		"vc":        number(r.Input.Vc),
		"pd":        number(r.Input.Pd),
		"doy":       number(float64(r.Input.DOY)),
		"lat":       number(r.Input.Lat),
		"band_rule": structpb.NewStringValue(r.BandRule.String()),
		"strict":    structpb.NewBoolValue(r.Strict),
	}}
}

// Struct encodes the request.
func (r TranspirationRequest) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"fpar":   number(r.Input.Fpar),
		"rs":     number(r.Input.Rs),
		"td":     number(r.Input.Td),
		"vpd":    number(r.Input.VPD),
		"lat":    number(r.Input.Lat),
		"doy":    number(float64(r.Input.DOY)),
		"strict": structpb.NewBoolValue(r.Strict),
	}}
}

func requireNumber(s *structpb.Struct, key string) (float64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number", key)
	}
	return n.NumberValue, nil
}

func requireNumbers(s *structpb.Struct, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		v, err := requireNumber(s, k)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// DecodeFaparRequest parses a ComputeFapar request.
func DecodeFaparRequest(s *structpb.Struct) (FaparRequest, error) {
	var r FaparRequest
	v, err := requireNumbers(s, "lad", "vc", "pd", "doy", "lat")
	if err != nil {
		return r, err
	}
	r.Input = canopy.InterceptionInput{LAD: v[0], Vc: v[1], Pd: v[2], DOY: int(v[3]), Lat: v[4]}
	if r.BandRule, err = canopy.ParseBandRule(s.GetFields()["band_rule"].GetStringValue()); err != nil {
		return r, err
	}
	r.Strict = s.GetFields()["strict"].GetBoolValue()
	return r, nil
}

// DecodeTranspirationRequest parses a ComputeTranspiration request.
func DecodeTranspirationRequest(s *structpb.Struct) (TranspirationRequest, error) {
	var r TranspirationRequest
	v, err := requireNumbers(s, "fpar", "rs", "td", "vpd", "lat", "doy")
	if err != nil {
		return r, err
	}
	r.Input = canopy.TranspirationInput{Fpar: v[0], Rs: v[1], Td: v[2], VPD: v[3], Lat: v[4], DOY: int(v[5])}
	r.Strict = s.GetFields()["strict"].GetBoolValue()
	return r, nil
}

// EncodeInterception encodes a ComputeFapar reply.
func EncodeInterception(r canopy.Interception) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"fapar":     number(r.Fapar),
		"vn":        number(r.Vn),
		"spacing":   number(r.Spacing),
		"band":      structpb.NewStringValue(r.Band.String()),
		"m":         number(r.M),
		"a":         number(r.A),
		"b":         number(r.B),
		"phi":       number(r.Phi),
		"cos_theta": number(r.CosTheta),
		"k":         number(r.K),
	}}
}

var bandByName = map[string]canopy.SpacingBand{
	"sparse": canopy.BandSparse,
	"wide":   canopy.BandWide,
	"medium": canopy.BandMedium,
	"dense":  canopy.BandDense,
}

// DecodeInterception parses a ComputeFapar reply.
func DecodeInterception(s *structpb.Struct) (canopy.Interception, error) {
	var r canopy.Interception
	v, err := requireNumbers(s, "fapar", "vn", "spacing", "m", "a", "b", "phi", "cos_theta", "k")
	if err != nil {
		return r, err
	}
	r.Fapar, r.Vn, r.Spacing, r.M, r.A, r.B, r.Phi, r.CosTheta, r.K = v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7], v[8]
	r.Band = bandByName[s.GetFields()["band"].GetStringValue()]
	return r, nil
}

// EncodeTranspiration encodes a ComputeTranspiration reply.
func EncodeTranspiration(t canopy.Transpiration) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"mm":  number(t.MM),
		"le":  number(t.LE),
		"gc":  number(t.Gc),
		"rc":  number(t.Rc),
		"n":   number(t.N),
		"rsp": number(t.Rsp),
		"ro":  number(t.Ro),
		"phi": number(t.Phi),
	}}
}

// DecodeTranspiration parses a ComputeTranspiration reply.
func DecodeTranspiration(s *structpb.Struct) (canopy.Transpiration, error) {
	var t canopy.Transpiration
	v, err := requireNumbers(s, "mm", "le", "gc", "rc", "n", "rsp", "ro", "phi")
	if err != nil {
		return t, err
	}
	t.MM, t.LE, t.Gc, t.Rc, t.N, t.Rsp, t.Ro, t.Phi = v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]
	return t, nil
}
