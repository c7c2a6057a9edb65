package canopy

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrPlantingDensity      = errors.New("planting density must be positive and finite")
	ErrCrownVolume          = errors.New("crown volume must be non-negative")
	ErrLeafAreaDensity      = errors.New("leaf area density must be non-negative")
	ErrDayOfYear            = errors.New("day of year out of range")
	ErrLatitude             = errors.New("latitude out of range")
	ErrZenith               = errors.New("zenith proxy is zero")
	ErrVaporPressureDeficit = errors.New("vapor pressure deficit must be positive")
	ErrTemperature          = errors.New("temperature at absolute-zero singularity")
	ErrPolarDay             = errors.New("no sunrise or sunset (polar day or night)")
	ErrZeroConductance      = errors.New("canopy conductance is zero")
	ErrNonFinite            = errors.New("non-finite input")
)

// DomainError reports which input put a formula outside its domain.
type DomainError struct {
	Param string
	Value float64
	Err   error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("canopy: %s=%g: %v", e.Param, e.Value, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

func domainErr(param string, v float64, err error) error {
	return &DomainError{Param: param, Value: v, Err: err}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func checkSiteDay(lat float64, doy int) error {
	if doy < 1 || doy > 366 {
		return domainErr("doy", float64(doy), ErrDayOfYear)
	}
	if !finite(lat) || math.Abs(lat) > 90 {
		return domainErr("lat", lat, ErrLatitude)
	}
	return nil
}

// ValidateInterception checks the inputs of the interception model.
func ValidateInterception(in InterceptionInput) error {
	if !finite(in.Pd) || in.Pd <= 0 {
		return domainErr("pd", in.Pd, ErrPlantingDensity)
	}
	if !finite(in.Vc) {
		return domainErr("vc", in.Vc, ErrNonFinite)
	}
	if in.Vc < 0 {
		return domainErr("vc", in.Vc, ErrCrownVolume)
	}
	if !finite(in.LAD) {
		return domainErr("lad", in.LAD, ErrNonFinite)
	}
	if in.LAD < 0 {
		return domainErr("lad", in.LAD, ErrLeafAreaDensity)
	}
	if err := checkSiteDay(in.Lat, in.DOY); err != nil {
		return err
	}
	if CosineZenithProxy(in.Lat, SolarDeclination(in.DOY)) == 0 {
		return domainErr("lat", in.Lat, ErrZenith)
	}
	return nil
}

// ValidateTranspiration checks the inputs of the transpiration model.
// A temperature below b/a is accepted; it yields a negative transpiration.
func ValidateTranspiration(in TranspirationInput) error {
	for _, p := range []struct {
		name string
		v    float64
	}{{"fpar", in.Fpar}, {"rs", in.Rs}, {"td", in.Td}, {"vpd", in.VPD}} {
		if !finite(p.v) {
			return domainErr(p.name, p.v, ErrNonFinite)
		}
	}
	if in.VPD <= 0 {
		return domainErr("vpd", in.VPD, ErrVaporPressureDeficit)
	}
	if in.Td == -275.3 {
		return domainErr("td", in.Td, ErrTemperature)
	}
	if err := checkSiteDay(in.Lat, in.DOY); err != nil {
		return err
	}
	if x := sunsetArgument(in.Lat, SolarDeclination(in.DOY)); x < -1 || x > 1 {
		return domainErr("lat", in.Lat, ErrPolarDay)
	}
	if in.Fpar == 0 {
		return domainErr("fpar", in.Fpar, ErrZeroConductance)
	}
	if in.Rs == 0 {
		return domainErr("rs", in.Rs, ErrZeroConductance)
	}
	if conductanceSlope*in.Td-conductanceIntercept == 0 {
		return domainErr("td", in.Td, ErrZeroConductance)
	}
	return nil
}

// SafeFapar validates its inputs and then returns ComputeFaparWith(in, rule).
func SafeFapar(in InterceptionInput, rule BandRule) (Interception, error) {
	if err := ValidateInterception(in); err != nil {
		return Interception{}, err
	}
	return ComputeFaparWith(in, rule), nil
}

// SafeTranspiration validates its inputs and then returns EvaluateTranspiration(in).
func SafeTranspiration(in TranspirationInput) (Transpiration, error) {
	if err := ValidateTranspiration(in); err != nil {
		return Transpiration{}, err
	}
	return EvaluateTranspiration(in), nil
}
