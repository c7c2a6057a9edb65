package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/olivecanopy/internal/model/entities"
	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

// settings shared by every subcommand.
type settings struct {
	bands   string
	strict  bool
	json    bool
	verbose bool

	catalog string
	orchard string

	interception canopy.InterceptionInput
	weather      canopy.TranspirationInput
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:   "olivecanopy",
		Short: "Olive orchard radiation interception and transpiration",
		Long: `olivecanopy computes the fraction of absorbed PAR of an olive orchard
(Mariscal et al. 2000) and its daily transpiration (Orgaz et al. 2007).
Non-finite results are printed as NaN/Inf unless --strict is set, in which
case out-of-domain inputs are reported as errors.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if s.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&s.bands, "bands", "reference", "spacing band rule: reference | corrected")
	pf.BoolVar(&s.strict, "strict", false, "reject out-of-domain inputs instead of propagating NaN/Inf")
	pf.BoolVar(&s.json, "json", false, "print JSON (non-finite values as null)")
	pf.BoolVarP(&s.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newFaparCmd(s), newTranspirationCmd(s), newEstimateCmd(s), newDaylengthCmd(s))
	return root
}

func (s *settings) rule() (canopy.BandRule, error) {
	return canopy.ParseBandRule(s.bands)
}

func addInterceptionFlags(cmd *cobra.Command, s *settings) {
	f := cmd.Flags()
	f.Float64Var(&s.interception.LAD, "lad", 0, "leaf area density [m2/m3]")
	f.Float64Var(&s.interception.Vc, "vc", 0, "crown volume per tree [m3]")
	f.Float64Var(&s.interception.Pd, "pd", 0, "planting density")
	f.StringVar(&s.catalog, "catalog", "", "orchard catalog (json or toml) supplying lad, vc, pd and lat")
	f.StringVar(&s.orchard, "orchard", "", "orchard id in --catalog")
}

func addSiteDayFlags(cmd *cobra.Command, lat *float64, doy *int) {
	f := cmd.Flags()
	f.Float64Var(lat, "lat", 0, "latitude [degrees]")
	f.Var((*dayOfYear)(doy), "doy", "day of year (1-366)")
	_ = cmd.MarkFlagRequired("doy")
}

// dayOfYear is a decimal-only int flag: "032" is day 32, not octal.
type dayOfYear int

func (d *dayOfYear) String() string { return strconv.Itoa(int(*d)) }
func (d *dayOfYear) Type() string   { return "int" }

func (d *dayOfYear) Set(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*d = dayOfYear(n)
	return nil
}

func addWeatherFlags(cmd *cobra.Command, s *settings) {
	f := cmd.Flags()
	f.Float64Var(&s.weather.Rs, "rs", 0, "daily solar radiation [MJ/m2]")
	f.Float64Var(&s.weather.Td, "td", 0, "mean daytime temperature [°C]")
	f.Float64Var(&s.weather.VPD, "vpd", 0, "vapor pressure deficit [kPa]")
	for _, name := range []string{"rs", "td", "vpd"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

// resolveOrchard overlays the catalog entry on flags the user did not set.
func (s *settings) resolveOrchard(cmd *cobra.Command) error {
	if s.orchard == "" {
		for _, name := range []string{"lad", "vc", "pd", "lat"} {
			if !cmd.Flags().Changed(name) {
				return fmt.Errorf("--%s is required without --orchard", name)
			}
		}
		return nil
	}
	if s.catalog == "" {
		return errors.New("--orchard needs --catalog")
	}
	cat, err := entities.LoadCatalog(s.catalog)
	if err != nil {
		return err
	}
	o, ok := cat.Lookup(s.orchard)
	if !ok {
		return fmt.Errorf("orchard %q not in %s", s.orchard, s.catalog)
	}
	fromCatalog := o.InterceptionInput(s.interception.DOY)
	set := cmd.Flags().Changed
	if !set("lad") {
		s.interception.LAD = fromCatalog.LAD
	}
	if !set("vc") {
		s.interception.Vc = fromCatalog.Vc
	}
	if !set("pd") {
		s.interception.Pd = fromCatalog.Pd
	}
	if !set("lat") {
		s.interception.Lat = fromCatalog.Lat
	}
	logrus.WithFields(logrus.Fields{"orchard": o.ID, "input": fmt.Sprintf("%+v", s.interception)}).Debug("orchard resolved")
	return nil
}

func (s *settings) fapar() (canopy.Interception, canopy.BandRule, error) {
	rule, err := s.rule()
	if err != nil {
		return canopy.Interception{}, rule, err
	}
	if s.strict {
		r, err := canopy.SafeFapar(s.interception, rule)
		return r, rule, err
	}
	return canopy.ComputeFaparWith(s.interception, rule), rule, nil
}

func (s *settings) transpiration() (canopy.Transpiration, error) {
	if s.strict {
		return canopy.SafeTranspiration(s.weather)
	}
	return canopy.EvaluateTranspiration(s.weather), nil
}

// ---------- output ----------

type field struct {
	key   string
	value interface{}
}

func jsonValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

func (s *settings) print(w io.Writer, fields ...field) error {
	if s.json {
		m := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			m[f.key] = jsonValue(f.value)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%-18s %v\n", f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
