package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/firm-sim/firm-sim/sim/dispatch"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch a flexible import of fixed capacity year by year for a saved capacity mix",
	Run: func(cmd *cobra.Command, args []string) {
		in, opt := loadInputs()
		x, err := readVector(resultPath("Optimisation_resultx", opt, ""))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		startTime := time.Now()
		s, err := dispatch.Run(context.Background(), in, x, workers)
		if err != nil {
			logrus.Fatalf("Dispatch failed: %v", err)
		}
		if err := writeSeries(resultPath("Dispatch_Flexible", opt, ""), "Flexible energy resources (MW)", s.Flexible); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Dispatch of %d years took %s", len(s.Years), time.Since(startTime))
		runStats(in, x, s.Flexible, opt)
	},
}

func init() {
	dispatchCmd.Flags().IntVar(&workers, "workers", 0, "Years dispatched concurrently (0 uses every CPU)")
}
