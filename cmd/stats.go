package cmd

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/dataset"
	"github.com/firm-sim/firm-sim/sim/report"
)

var importsFile string // Import schedule to evaluate, default the fill output

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Write the generation mix and cost breakdown of a saved capacity mix and import schedule",
	Run: func(cmd *cobra.Command, args []string) {
		in, opt := loadInputs()
		x, err := readVector(resultPath("Optimisation_resultx", opt, ""))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		path := importsFile
		if path == "" {
			path = resultPath("Dispatch_Imports", opt, "")
		}
		imports, err := readSeries(path)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		runStats(in, x, imports, opt)
	},
}

// runStats writes the system and per-node mix and the summary table.
func runStats(in *sim.Inputs, x, imports []float64, opt dataset.Options) {
	startTime := time.Now()
	a, err := report.Analyse(in, x, imports)
	if err != nil {
		logrus.Fatalf("Statistics failed: %v", err)
	}
	for _, w := range a.Warnings {
		logrus.Warn(w.String())
	}
	a.Summary.Log()

	if err := writeFile(resultPath("LPGM", opt, "_Network"), func(w io.Writer) error {
		return report.WriteMix(w, a)
	}); err != nil {
		logrus.Fatalf("%v", err)
	}
	if in.Networked() {
		for _, node := range in.Nodes {
			if err := writeFile(resultPath("LPGM", opt, "_"+node), func(w io.Writer) error {
				return report.WriteNodeMix(w, a, node)
			}); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	}
	if err := writeFile(resultPath("GGTA", opt, ""), func(w io.Writer) error {
		return report.WriteSummary(w, a.Summary)
	}); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.Infof("Statistics took %s", time.Since(startTime))
}

func init() {
	statsCmd.Flags().StringVar(&importsFile, "imports-file", "", "Import schedule CSV (default Results/Dispatch_Imports<suffix>.csv)")
}
