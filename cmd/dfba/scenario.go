package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/dfba/internal/automation"
	"github.com/san-kum/dfba/internal/experiment"
	"github.com/san-kum/dfba/internal/storage"
	"github.com/spf13/cobra"
)

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st)

			fmt.Printf("scenario: %s\n", sc.Name)
			if sc.Description != "" {
				fmt.Println(sc.Description)
			}
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tSTATUS\tEND(h)\tBIOMASS\tGLUCOSE\tRUN")
			for _, r := range results {
				final := r.Result.Final()
				end := r.Result.Times[len(r.Result.Times)-1]
				runID := r.RunID
				if runID == "" {
					runID = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%.5f\t%.5f\t%s\n", r.Name, r.Result.Status, end, final[0], final[1], runID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
}
