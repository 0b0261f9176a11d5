package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/export"
	"github.com/san-kum/dfba/internal/storage"
	"github.com/san-kum/dfba/internal/viz"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tTIME\tINTEG\tSTATUS\tEVENT(h)\tBIOMASS")
			for _, run := range runs {
				event := "-"
				if len(run.Events) > 0 {
					event = fmt.Sprintf("%.4f", run.Events[0].Time)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.5f\n",
					run.ID,
					run.Model,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Integrator,
					run.Status,
					event,
					run.Metrics["final_biomass"],
				)
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := storage.New(dataDir).Result(args[0])
			if err != nil {
				return err
			}
			if len(result.States) == 0 {
				return fmt.Errorf("no data to plot")
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("model: %s\n", meta.Model)
			fmt.Printf("samples: %d\n\n", len(result.States))
			printPlots(result.Series(0), result.Series(1))
			return nil
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := storage.New(dataDir).Result(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(out, *meta, result)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := storage.New(dataDir).Result(args[0])
			if err != nil {
				return err
			}
			return storage.ExportCSV(out, result)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func newSVGCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "plot biomass and glucose with twin axes as svg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := storage.New(dataDir).Result(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".svg"
			}
			if err := writeSVG(out, result); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <run_id>.svg)")
	return cmd
}

func writeSVG(path string, result *dynamo.Result) error {
	markers := make([]float64, 0, len(result.Events))
	for _, ev := range result.Events {
		markers = append(markers, ev.Time)
	}

	svg := export.TimeSeriesSVG(export.Plot{
		Width:   800,
		Height:  480,
		XLabel:  "Time [h]",
		Times:   result.Times,
		Left:    export.Series{Label: "Biomass [gDW/L]", Color: string(viz.CurrentTheme.Biomass), Values: result.Series(0)},
		Right:   export.Series{Label: "Glucose [mmol/L]", Color: string(viz.CurrentTheme.Glucose), Values: result.Series(1)},
		Markers: markers,
	})
	if svg == "" {
		return fmt.Errorf("not enough samples to plot")
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
