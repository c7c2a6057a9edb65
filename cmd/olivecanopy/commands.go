package main

import (
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/olivecanopy/pkg/canopy"
)

func interceptionFields(r canopy.Interception, rule canopy.BandRule) []field {
	return []field{
		{"fapar", r.Fapar},
		{"band", r.Band.String()},
		{"band_rule", rule.String()},
		{"vn", r.Vn},
		{"spacing", r.Spacing},
		{"m", r.M},
		{"k", r.K},
		{"declination", r.Phi},
		{"cos_theta", r.CosTheta},
	}
}

func newFaparCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fapar",
		Short: "Fraction of absorbed PAR of an orchard",
		Example: `  olivecanopy fapar --lad 1.88 --vc 15.25 --pd 24.5 --doy 214 --lat 38
  olivecanopy fapar --catalog orchards.toml --orchard cordoba-1 --doy 214`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.resolveOrchard(cmd); err != nil {
				return err
			}
			r, rule, err := s.fapar()
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(), interceptionFields(r, rule)...)
		},
	}
	addInterceptionFlags(cmd, s)
	addSiteDayFlags(cmd, &s.interception.Lat, &s.interception.DOY)
	return cmd
}

func newTranspirationCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transpiration",
		Short:   "Daily orchard transpiration [mm/day]",
		Example: `  olivecanopy transpiration --fpar 0.5 --rs 25 --td 28 --vpd 2.5 --lat 38 --doy 214`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := s.transpiration()
			if err != nil {
				return err
			}
			return s.print(cmd.OutOrStdout(),
				field{"transpiration_mm", t.MM},
				field{"le", t.LE},
				field{"gc", t.Gc},
				field{"rc", t.Rc},
				field{"daylength", t.N},
				field{"rsp", t.Rsp},
			)
		},
	}
	cmd.Flags().Float64Var(&s.weather.Fpar, "fpar", 0, "fraction of absorbed PAR")
	_ = cmd.MarkFlagRequired("fpar")
	addWeatherFlags(cmd, s)
	addSiteDayFlags(cmd, &s.weather.Lat, &s.weather.DOY)
	_ = cmd.MarkFlagRequired("lat")
	return cmd
}

func newEstimateCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estimate",
		Short:   "fAPAR followed by transpiration for one orchard-day",
		Example: `  olivecanopy estimate --lad 1.88 --vc 15.25 --pd 24.5 --doy 214 --lat 38 --rs 25 --td 28 --vpd 2.5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.resolveOrchard(cmd); err != nil {
				return err
			}
			r, rule, err := s.fapar()
			if err != nil {
				return err
			}
			s.weather.Fpar = r.Fapar
			s.weather.Lat = s.interception.Lat
			s.weather.DOY = s.interception.DOY
			t, err := s.transpiration()
			if err != nil {
				return err
			}
			out := append(interceptionFields(r, rule),
				field{"transpiration_mm", t.MM},
				field{"daylength", t.N},
				field{"finite", finite(r.Fapar, t.MM)},
			)
			return s.print(cmd.OutOrStdout(), out...)
		},
	}
	addInterceptionFlags(cmd, s)
	addWeatherFlags(cmd, s)
	addSiteDayFlags(cmd, &s.interception.Lat, &s.interception.DOY)
	return cmd
}

func newDaylengthCmd(s *settings) *cobra.Command {
	var (
		lat float64
		doy int
	)
	cmd := &cobra.Command{
		Use:   "daylength",
		Short: "Solar declination and daylength for a latitude and day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			phi := canopy.SolarDeclination(doy)
			return s.print(cmd.OutOrStdout(),
				field{"declination", phi},
				field{"cos_theta", canopy.CosineZenithProxy(lat, phi)},
				field{"daylength", canopy.DaytimeLength(lat, phi)},
			)
		},
	}
	addSiteDayFlags(cmd, &lat, &doy)
	_ = cmd.MarkFlagRequired("lat")
	return cmd
}
