package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dfba"
	"github.com/san-kum/dfba/internal/experiment"
	"github.com/san-kum/dfba/internal/metabolic"
	"github.com/san-kum/dfba/internal/viz"
	"github.com/spf13/cobra"
)

func newModelCmd() *cobra.Command {
	var (
		glucose float64
		all     bool
		save    string
	)

	cmd := &cobra.Command{
		Use:   "model [name|path]",
		Short: "inspect a metabolic model and its fluxes at a glucose level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.DefaultModel
			if len(args) == 1 {
				name = args[0]
			}

			model, err := experiment.NewRegistry().GetModel(name)
			if err != nil {
				return err
			}

			fmt.Println(viz.Title.Render(model.ID))
			fmt.Printf("metabolites: %d\nreactions:   %d\nexchanges:   %v\n", len(model.Metabolites), len(model.Reactions), model.Exchanges())

			sol, err := model.Optimize()
			if err != nil {
				fmt.Printf("objective:   %s\n", sol.Status)
			} else {
				fmt.Printf("objective:   %.6f (%v)\n", sol.Objective, model.ObjectiveReactions())
			}

			if save != "" {
				if err := metabolic.Save(save, model); err != nil {
					return err
				}
				fmt.Printf("saved %s\n", save)
			}

			params := experiment.New(config.DefaultConfig(), nil).Params()
			sys, err := dfba.New(model, params)
			if err != nil {
				return err
			}

			mu, v, slack, err := sys.Rates(glucose)
			if err != nil {
				return err
			}
			fmt.Printf("\nat glucose %.4g mmol/L: mu=%.6f /h, glucose flux=%.6f, slack=%.3g\n\n", glucose, mu, v, slack)

			fluxes, err := sys.Fluxes(glucose)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(fluxes))
			for id, f := range fluxes {
				if all || math.Abs(f) > 1e-9 {
					ids = append(ids, id)
				}
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "REACTION\tFLUX\tLOWER\tUPPER")
			for _, id := range ids {
				r, err := model.Reaction(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%.6f\t%g\t%g\n", id, fluxes[id], r.LowerBound, r.UpperBound)
			}
			return w.Flush()
		},
	}

	cmd.Flags().Float64Var(&glucose, "glucose", config.DefaultGlucose, "glucose concentration (mmol/L)")
	cmd.Flags().BoolVar(&all, "all", false, "show reactions with zero flux")
	cmd.Flags().StringVar(&save, "save", "", "write the model to this path (yaml)")
	return cmd
}
