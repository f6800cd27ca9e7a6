package main

import (
	"fmt"

	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"

	"github.com/ChristopherRabotin/traj"
)

var (
	tleCatalog int
	tleBStar   float64
)

var tleCmd = &cobra.Command{
	Use:   "tle",
	Short: "Two-line element sets",
}

var tleFitCmd = &cobra.Command{
	Use:   "fit [scenario]",
	Short: "Fit a TLE to the initial orbit of a scenario",
	Long: `Fit the mean elements of a TLE such that SGP4 reproduces the osculating state of
the scenario orbit at its epoch, to the tolerance of the fit (100 m by default).`,
	Args: cobra.ExactArgs(1),
	RunE: runTLEFit,
}

func init() {
	tleFitCmd.Flags().IntVar(&tleCatalog, "catalog", 99999, "catalog number of the fitted TLE")
	tleFitCmd.Flags().Float64Var(&tleBStar, "bstar", 0, "B* drag term of the fitted TLE")
	tleCmd.AddCommand(tleFitCmd)
	rootCmd.AddCommand(tleCmd)
}

func runTLEFit(cmd *cobra.Command, args []string) error {
	v, err := readScenario(args[0])
	if err != nil {
		return err
	}
	initial, err := initialState(v)
	if err != nil {
		return err
	}
	sv, err := initial.ToStateVector()
	if err != nil {
		return err
	}
	opts := conf.TLEFitOptions()
	opts.Name = v.GetString("spacecraft.name")
	opts.CatalogNumber = tleCatalog
	opts.BStar = tleBStar
	tle, err := traj.FitTLE(sv, opts)
	if err != nil {
		return err
	}
	level.Info(logger).Log("subsys", "tle", "fitted", tle.Name, "epoch", tle.Epoch())
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n%s\n", tle.Name, tle.Line1, tle.Line2)
	return nil
}
