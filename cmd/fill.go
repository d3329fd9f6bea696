package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/dataset"
	"github.com/firm-sim/firm-sim/sim/fill"
)

var (
	// CLI flags for the deficit fill
	maxIterations int // Fill passes before giving up
	maxBacktrack  int // Walk steps per deficit interval
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Schedule imports that cover the deficits of a saved capacity mix, then write statistics",
	Run: func(cmd *cobra.Command, args []string) {
		in, opt := loadInputs()
		x, err := readVector(resultPath("Optimisation_resultx", opt, ""))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		imports := runFill(in, x, opt)
		runStats(in, x, imports, opt)
	},
}

// runFill converges an import schedule for x and saves it. Without imports
// the schedule is all zero.
func runFill(in *sim.Inputs, x []float64, opt dataset.Options) []float64 {
	startTime := time.Now()
	imports := make([]float64, in.Intervals())
	if in.ImportEnabled {
		c, err := sim.NewCandidate(in, x)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		p := fill.DefaultParams(c)
		p.MaxBacktrack = maxBacktrack
		out, err := fill.Converge(c, p, maxIterations)
		if err != nil {
			logrus.Fatalf("Fill failed: %v", err)
		}
		imports = out.Imports
		logrus.Infof("Fill converged=%t after %d passes, %.1f MWh of deficit left", out.Converged(), out.Iterations, out.Residual)
	} else {
		logrus.Info("Imports are disabled, skipping the fill")
	}
	if err := writeSeries(resultPath("Dispatch_Imports", opt, ""), "Imports (MW)", imports); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.Infof("Fill took %s", time.Since(startTime))
	return imports
}

func init() {
	fillCmd.Flags().IntVar(&maxIterations, "max-iterations", fill.DefaultMaxIterations, "Fill passes before giving up")
	fillCmd.Flags().IntVar(&maxBacktrack, "max-backtrack", fill.DefaultMaxBacktrack, "Walk steps per deficit interval")
}
