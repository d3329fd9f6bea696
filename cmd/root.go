package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags shared by every command
	logLevel    string // Log verbosity level
	configPath  string // Scenario YAML describing the network
	dataDir     string // Directory holding the input CSV files
	resultsDir  string // Directory receiving every output file
	perCapita   int    // Demand scenario, MWh per person per year
	coverage    string // Coverage preset of the scenario, e.g. Super
	assets      string // Asset scenario: existing, construction, all
	importsFlag string // import or no_import
	exportsFlag string // export or no_export
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "firm-sim",
	Short: "Capacity expansion and reliability evaluation of a solar, hydro and storage grid",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseSwitch maps the on/off spelling of a flag to a bool.
func parseSwitch(flag, value, on, off string) (bool, error) {
	switch value {
	case on:
		return true, nil
	case off:
		return false, nil
	}
	return false, fmt.Errorf("--%s must be %q or %q, got %q", flag, on, off, value)
}

// init sets up CLI flags and subcommands
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.StringVar(&configPath, "config", "defaults.yaml", "Scenario file describing nodes, legs and coverage presets")
	pf.StringVar(&dataDir, "data", "Data", "Directory of the input time series and asset tables")
	pf.StringVar(&resultsDir, "results", "Results", "Directory for audit logs, schedules and reports")
	pf.IntVarP(&perCapita, "percapita", "e", 2, "Per-capita electricity demand scenario (MWh/year)")
	pf.StringVarP(&coverage, "node", "n", "Super", "Coverage preset: Super or a preset name from the scenario file")
	pf.StringVarP(&assets, "scenario", "s", "existing", "Asset scenario: existing, construction, all")
	pf.StringVarP(&importsFlag, "imports", "y", "import", "Cross-border imports: import, no_import")
	pf.StringVarP(&exportsFlag, "exports", "x", "no_export", "Cross-border exports: export, no_export")

	rootCmd.AddCommand(optimiseCmd, fillCmd, dispatchCmd, statsCmd)
}
