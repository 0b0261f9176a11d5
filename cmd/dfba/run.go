package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/experiment"
	"github.com/san-kum/dfba/internal/storage"
	"github.com/san-kum/dfba/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// simFlags are the settings shared by run and sweep. They override the
// config file, which overrides the preset.
type simFlags struct {
	configFile string
	preset     string
	model      string
	integrator string
	biomass    float64
	glucose    float64
	duration   float64
	dt         float64
	maxDt      float64
	samples    int
	rtol       float64
	atol       float64
	vmax       float64
	km         float64
	epsilon    float64
	fixed      bool
}

func (f *simFlags) register(fs *pflag.FlagSet) {
	d := config.DefaultConfig()
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")
	fs.StringVar(&f.model, "model", d.Model, "bundled model name or model file (json, yaml)")
	fs.StringVar(&f.integrator, "integrator", d.Integrator, "integrator (euler, rk4, rk45)")
	fs.Float64Var(&f.biomass, "biomass", d.InitState.Biomass, "initial biomass (gDW/L)")
	fs.Float64Var(&f.glucose, "glucose", d.InitState.Glucose, "initial glucose (mmol/L)")
	fs.Float64Var(&f.duration, "time", d.Duration, "duration (h)")
	fs.Float64Var(&f.dt, "dt", d.Dt, "initial or fixed step (h)")
	fs.Float64Var(&f.maxDt, "max-dt", d.MaxDt, "largest adaptive step (h)")
	fs.IntVar(&f.samples, "samples", d.Samples, "output samples, 0 records every step")
	fs.Float64Var(&f.rtol, "rtol", d.RTol, "relative tolerance")
	fs.Float64Var(&f.atol, "atol", d.ATol, "absolute tolerance")
	fs.Float64Var(&f.vmax, "vmax", d.Kinetics.Vmax, "maximum glucose uptake (mmol/gDW/h)")
	fs.Float64Var(&f.km, "km", d.Kinetics.Km, "glucose half-saturation constant (mmol/L)")
	fs.Float64Var(&f.epsilon, "epsilon", d.Epsilon, "infeasibility threshold")
	fs.BoolVar(&f.fixed, "fixed", false, "use fixed steps instead of error control")
}

func (f *simFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}

	if f.configFile != "" {
		loaded, err := config.LoadOver(f.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides := map[string]func(){
		"model":      func() { cfg.Model = f.model },
		"integrator": func() { cfg.Integrator = f.integrator },
		"biomass":    func() { cfg.InitState.Biomass = f.biomass },
		"glucose":    func() { cfg.InitState.Glucose = f.glucose },
		"time":       func() { cfg.Duration = f.duration },
		"dt":         func() { cfg.Dt = f.dt },
		"max-dt":     func() { cfg.MaxDt = f.maxDt },
		"samples":    func() { cfg.Samples = f.samples },
		"rtol":       func() { cfg.RTol = f.rtol },
		"atol":       func() { cfg.ATol = f.atol },
		"vmax":       func() { cfg.Kinetics.Vmax = f.vmax },
		"km":         func() { cfg.Kinetics.Km = f.km },
		"epsilon":    func() { cfg.Epsilon = f.epsilon },
		"fixed":      func() { cfg.Adaptive = !f.fixed },
	}
	for name, apply := range overrides {
		if fs.Changed(name) {
			apply()
		}
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunCmd() *cobra.Command {
	var (
		flags  simFlags
		live   bool
		plot   bool
		noSave bool
		svg    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a glucose-limited batch simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			exp := experiment.New(cfg, experiment.NewRegistry())
			if err := exp.Setup(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			logrus.Infof("running %s with %s", exp.Model().ID, cfg.Integrator)
			start := time.Now()

			var result *dynamo.Result
			if live {
				result, err = viz.RunWithProgress(ctx, exp.GetSimulator(), dynamo.State(cfg.GetInitState()), cfg.SimConfig())
				if result != nil {
					result.Metrics["lp_solves"] = float64(exp.System().LPSolves())
				}
			} else {
				result, err = exp.Run(ctx)
			}
			if err != nil {
				if result != nil && len(result.States) > 0 {
					fmt.Println(viz.Summary{Model: exp.Model().ID, Integrator: cfg.Integrator, Result: result}.Render(64))
				}
				return err
			}
			logrus.Infof("completed in %v", time.Since(start))

			fmt.Println(viz.Summary{Model: exp.Model().ID, Integrator: cfg.Integrator, Result: result}.Render(64))

			if plot {
				printPlots(result.Series(0), result.Series(1))
			}

			meta := storage.NewRunMetadata(exp.Model().ID, cfg)
			if svg != "" {
				if err := writeSVG(svg, result); err != nil {
					return err
				}
				fmt.Printf("svg: %s\n", svg)
			}

			if noSave {
				return nil
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			runID, err := st.Save(meta, result)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&live, "live", false, "show live progress")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot biomass and glucose in the terminal")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&svg, "svg", "", "also write an svg plot to this path")
	return cmd
}

func printPlots(biomass, glucose []float64) {
	if len(biomass) < 2 {
		return
	}
	fmt.Println(asciigraph.Plot(biomass,
		asciigraph.Height(10),
		asciigraph.Width(72),
		asciigraph.SeriesColors(asciigraph.Blue),
		asciigraph.Caption("biomass [gDW/L]"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(glucose,
		asciigraph.Height(10),
		asciigraph.Width(72),
		asciigraph.SeriesColors(asciigraph.Orange),
		asciigraph.Caption("glucose [mmol/L]"),
	))
	fmt.Println()
}

func newSweepCmd() *cobra.Command {
	var (
		flags   simFlags
		levels  []float64
		workers int
		plot    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per initial glucose level in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			exp := experiment.New(cfg, experiment.NewRegistry())
			if err := exp.Setup(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			results, err := exp.Sweep(ctx, levels, workers)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GLUCOSE0\tSTATUS\tEVENT(h)\tBIOMASS\tGLUCOSE\tYIELD\tMU_MAX")
			series := make([][]float64, 0, len(results))
			for i, res := range results {
				event := "-"
				if len(res.Events) > 0 {
					event = fmt.Sprintf("%.4f", res.Events[0].Time)
				}
				final := res.Final()
				fmt.Fprintf(w, "%.4g\t%s\t%s\t%.5f\t%.5f\t%.5f\t%.5f\n",
					levels[i], res.Status, event, final[0], final[1],
					res.Metrics["yield"], res.Metrics["max_growth_rate"])
				series = append(series, res.Series(0))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if plot && len(series) > 0 {
				fmt.Println()
				fmt.Println(asciigraph.PlotMany(series,
					asciigraph.Height(12),
					asciigraph.Width(72),
					asciigraph.Caption("biomass [gDW/L] per initial glucose"),
				))
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().Float64SliceVar(&levels, "levels", []float64{2, 5, 10, 20}, "initial glucose levels (mmol/L)")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel workers")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot biomass curves")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations, bundled models and integrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPresets(os.Stdout, experiment.NewRegistry())
		},
	}
}

func printPresets(out io.Writer, reg *experiment.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tINTEG\tBIOMASS0\tGLUCOSE0\tDURATION\tADAPTIVE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%gh\t%v\n",
			name, p.Model, p.Integrator, p.InitState.Biomass, p.InitState.Glucose, p.Duration, p.Adaptive)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nmodels:      %s\n", strings.Join(reg.ListModels(), ", "))
	fmt.Fprintf(out, "integrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
	return nil
}
