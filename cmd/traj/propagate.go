package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"

	"github.com/ChristopherRabotin/traj"
	"github.com/ChristopherRabotin/traj/internal/metrics"
)

var metricsAddr string

var propagateCmd = &cobra.Command{
	Use:   "propagate [scenario]",
	Short: "Propagate the spacecraft of a scenario file",
	Long: `Propagate the spacecraft of a scenario file and write, in the output directory,
the Cosmographia interpolated states (prop-<name>.xyzv), the osculating elements
(orbital-elements-<name>.csv) and the Cosmographia catalog (catalog-<name>.json).`,
	Args: cobra.ExactArgs(1),
	RunE: runPropagate,
}

func init() {
	propagateCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address until interrupted")
	rootCmd.AddCommand(propagateCmd)
}

func runPropagate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("subsys", "metrics", "err", err)
			}
		}()
		defer func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()
	}

	s, err := loadScenario(args[0], conf)
	if err != nil {
		return err
	}
	closeAll, err := exportTo(s)
	if err != nil {
		return err
	}
	defer closeAll()

	p, err := traj.NewPropagator(s.sc, s.window, s.opts)
	if err != nil {
		return err
	}
	states, err := p.Propagate(ctx)
	if err != nil {
		var perr *traj.PropagationError
		if errors.As(err, &perr) {
			level.Error(logger).Log("subsys", "prop", "finalized", len(states), "step", perr.Step)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", states[len(states)-1])
	return nil
}

// exportTo sets an exporter as the result sink of the scenario.
func exportTo(s *scenario) (func(), error) {
	name := s.sc.Name
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	create := func(pattern string) (*os.File, error) {
		f, err := os.Create(filepath.Join(s.outputDir, fmt.Sprintf(pattern, name)))
		if err != nil {
			closeAll()
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}
	states, err := create("prop-%s.xyzv")
	if err != nil {
		return nil, err
	}
	elements, err := create("orbital-elements-%s.csv")
	if err != nil {
		return nil, err
	}
	catalog, err := create("catalog-%s.json")
	if err != nil {
		return nil, err
	}
	s.opts.Sink = &traj.Exporter{
		Name:     name,
		States:   states,
		Elements: elements,
		Catalog:  catalog,
		Source:   filepath.Base(states.Name()),
	}
	return closeAll, nil
}
