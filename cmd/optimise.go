package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/firm-sim/firm-sim/sim/audit"
	"github.com/firm-sim/firm-sim/sim/objective"
	"github.com/firm-sim/firm-sim/sim/search"
)

var (
	// CLI flags for the differential evolution search
	maxIter       int     // Generations after the initial population
	popSize       int     // Population members per decision variable
	mutation      float64 // Differential weight
	recombination float64 // Crossover probability
	tol           float64 // Relative convergence tolerance
	atol          float64 // Absolute convergence tolerance
	seed          int64   // Seed of the search RNG
	workers       int     // Concurrent evaluations
	metricsAddr   string  // Address serving Prometheus metrics, empty to disable
)

var optimiseCmd = &cobra.Command{
	Use:   "optimise",
	Short: "Search for the least-cost capacity mix, then fill imports and write statistics",
	Run: func(cmd *cobra.Command, args []string) {
		in, opt := loadInputs()
		startTime := time.Now()
		logrus.Infof("Optimisation starts for %s", opt.Suffix())

		ev, err := objective.NewEvaluator(in)
		if err != nil {
			logrus.Fatalf("Invalid network: %v", err)
		}
		bounds, err := search.BoundsOf(in)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg := search.Config{
			MaxIter:       maxIter,
			PopSize:       popSize,
			Mutation:      mutation,
			Recombination: recombination,
			Tol:           tol,
			Atol:          atol,
			Seed:          seed,
			Workers:       workers,
		}
		o, err := search.New(cfg, bounds, ev.Score)
		if err != nil {
			logrus.Fatalf("Invalid search configuration: %v", err)
		}

		log, err := audit.OpenLog(resultPath("record", opt, ""))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer log.Close()
		o.Log = log

		reg := prometheus.NewRegistry()
		o.Metrics = search.NewMetrics(reg)
		if metricsAddr != "" {
			srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logrus.Warnf("metrics server: %v", err)
				}
			}()
			defer srv.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := o.Run(ctx)
		if err != nil {
			logrus.Fatalf("Optimisation failed: %v", err)
		}
		s := log.Summary()
		logrus.WithField("run", res.RunID).Infof("%s %d generations, %d evaluations (%d failed, %d feasible), best f(x)= %g",
			res.Message, res.Generations, res.Evaluations, res.Failures, s.Feasible, res.Fitness)

		if err := writeVector(resultPath("Optimisation_resultx", opt, ""), res.X); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Optimisation took %s", time.Since(startTime))

		imports := runFill(in, res.X, opt)
		runStats(in, res.X, imports, opt)
	},
}

func init() {
	d := search.DefaultConfig()
	optimiseCmd.Flags().IntVarP(&maxIter, "maxiter", "i", d.MaxIter, "Maximum number of generations")
	optimiseCmd.Flags().IntVarP(&popSize, "popsize", "p", d.PopSize, "Population members per decision variable")
	optimiseCmd.Flags().Float64VarP(&mutation, "mutation", "m", d.Mutation, "Differential weight in [0, 2]")
	optimiseCmd.Flags().Float64VarP(&recombination, "recombination", "r", d.Recombination, "Crossover probability in [0, 1]")
	optimiseCmd.Flags().Float64Var(&tol, "tol", d.Tol, "Relative convergence tolerance on population fitness")
	optimiseCmd.Flags().Float64Var(&atol, "atol", d.Atol, "Absolute convergence tolerance on population fitness")
	optimiseCmd.Flags().Int64Var(&seed, "seed", d.Seed, "Seed of the search")
	optimiseCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent evaluations (0 uses every CPU)")
	optimiseCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}
