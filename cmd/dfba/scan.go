package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/experiment"
	"github.com/san-kum/dfba/internal/optim"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var (
		flags    simFlags
		vmax     []float64
		km       []float64
		metric   string
		maximize bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "grid search uptake kinetics for the best value of a run metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			grid, err := optim.NewGridSearch([]string{"vmax", "km"}, [][]float64{vmax, km}, maximize)
			if err != nil {
				return err
			}

			registry := experiment.NewRegistry()
			run := func(ctx context.Context, p map[string]float64) (*dynamo.Result, error) {
				cfg := *base
				cfg.Kinetics.Vmax = p["vmax"]
				cfg.Kinetics.Km = p["km"]
				exp := experiment.New(&cfg, registry)
				if err := exp.Setup(); err != nil {
					return nil, err
				}
				return exp.Run(ctx)
			}

			ctx, cancel := signalContext()
			defer cancel()

			best, points, err := grid.Search(ctx, run, metric)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "VMAX\tKM\t%s\n", metric)
			for _, p := range points {
				value := fmt.Sprintf("%.6g", p.Value)
				if p.Err != nil {
					value = "error: " + p.Err.Error()
				}
				fmt.Fprintf(w, "%g\t%g\t%s\n", p.Params["vmax"], p.Params["km"], value)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nbest: vmax=%g km=%g %s=%.6g\n", best.Params["vmax"], best.Params["km"], metric, best.Value)
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().Float64SliceVar(&vmax, "vmax-grid", []float64{5, 10, 15}, "vmax values")
	cmd.Flags().Float64SliceVar(&km, "km-grid", []float64{1, 5, 10}, "km values")
	cmd.Flags().StringVar(&metric, "metric", "final_biomass", "metric to optimize")
	cmd.Flags().BoolVar(&maximize, "maximize", true, "maximize the metric instead of minimizing it")
	return cmd
}
