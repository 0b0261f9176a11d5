package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/dfba/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	theme    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dfba",
		Short:         "dynamic flux balance analysis of batch cultures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetOutput(os.Stderr)
			return viz.SetTheme(theme)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dfba", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "classic",
		fmt.Sprintf("color theme (%s)", strings.Join(viz.ThemeNames(), ", ")))

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportJSONCmd(),
		newExportCSVCmd(),
		newSVGCmd(),
		newPresetsCmd(),
		newModelCmd(),
		newScanCmd(),
		newScenarioCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
