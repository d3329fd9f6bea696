// Package search minimises the objective with differential evolution
// (best1bin strategy, Latin hypercube initialisation, deferred updating).
//
// The population lives in the unit cube and is scaled to the bounds only for
// evaluation. All random draws happen on the coordinating goroutine and
// evaluations are stored by index, so a seed reproduces a run exactly
// regardless of the worker count.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/audit"
)

// Objective scores one decision vector. A failed evaluation returns +Inf and
// a record whose Err is set; it must not panic.
type Objective func(x []float64) (float64, audit.Record)

// Result is the outcome of a search.
type Result struct {
	RunID       string
	X           []float64
	Fitness     float64
	Generations int
	Evaluations int
	Failures    int
	Converged   bool
	Message     string
}

// Optimizer runs differential evolution over fixed bounds.
type Optimizer struct {
	cfg          Config
	lower, scale []float64
	objective    Objective

	// Log receives every evaluation in population order. Optional.
	Log *audit.Log
	// Metrics receives progress. Optional.
	Metrics *Metrics

	rng     *sim.SearchStreams
	workers int
	result  Result
}

// New validates cfg and bounds and prepares an optimizer.
func New(cfg Config, bounds sim.Bounds, objective Objective) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bounds.Lower) == 0 || len(bounds.Lower) != len(bounds.Upper) {
		return nil, fmt.Errorf("bounds must be non-empty and of equal length, got %d/%d", len(bounds.Lower), len(bounds.Upper))
	}
	o := &Optimizer{
		cfg:       cfg,
		lower:     append([]float64(nil), bounds.Lower...),
		scale:     make([]float64, len(bounds.Lower)),
		objective: objective,
		rng:       sim.NewSearchStreams(cfg.Seed),
		workers:   cfg.Workers,
	}
	for j := range o.scale {
		lo, hi := bounds.Lower[j], bounds.Upper[j]
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) || hi < lo {
			return nil, fmt.Errorf("bound %d: [%g, %g] is not a finite interval", j, lo, hi)
		}
		o.scale[j] = hi - lo
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o, nil
}

// PopulationSize is the number of members, popsize per variable with a floor of five.
func (o *Optimizer) PopulationSize() int {
	return max(5, o.cfg.PopSize*len(o.lower))
}

// Run searches until the population energies converge, MaxIter generations
// have run or ctx is cancelled.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	o.result = Result{RunID: uuid.NewString()}
	logger := logrus.WithField("run", o.result.RunID)

	pop := o.initPopulation()
	energies, err := o.evaluate(ctx, pop)
	if err != nil {
		return nil, err
	}
	if allInf(energies) {
		logger.Warn("every member of the initial population failed to evaluate")
	}
	promoteLowest(pop, energies)
	o.Metrics.observeGeneration(0, energies[0])

	o.result.Message = "Maximum number of iterations has been exceeded."
	for gen := 1; gen <= o.cfg.MaxIter; gen++ {
		trials := make([][]float64, len(pop))
		for i := range pop {
			trials[i] = o.trial(i, pop)
		}
		trialEnergies, err := o.evaluate(ctx, trials)
		if err != nil {
			return nil, err
		}
		for i, e := range trialEnergies {
			if e < energies[i] {
				pop[i], energies[i] = trials[i], e
			}
		}
		promoteLowest(pop, energies)
		o.result.Generations = gen

		logger.Infof("differential_evolution step %d: f(x)= %g", gen, energies[0])
		o.Metrics.observeGeneration(gen, energies[0])

		if o.converged(energies) {
			o.result.Converged = true
			o.result.Message = "Optimization terminated successfully."
			break
		}
	}

	o.result.X = o.scaled(pop[0])
	o.result.Fitness = energies[0]
	out := o.result
	return &out, nil
}

// initPopulation draws a Latin hypercube: every variable's range is split
// into one stratum per member and each stratum is sampled once.
func (o *Optimizer) initPopulation() [][]float64 {
	rng := o.rng.Stream(sim.StreamInit)
	np, dim := o.PopulationSize(), len(o.lower)
	seg := 1 / float64(np)
	pop := make([][]float64, np)
	for i := range pop {
		pop[i] = make([]float64, dim)
		for j := range pop[i] {
			pop[i][j] = seg*rng.Float64() + float64(i)*seg
		}
	}
	for j := 0; j < dim; j++ {
		perm := rng.Perm(np)
		col := make([]float64, np)
		for i, p := range perm {
			col[i] = pop[p][j]
		}
		for i := range pop {
			pop[i][j] = col[i]
		}
	}
	return pop
}

// trial builds the best1bin trial vector for member i.
func (o *Optimizer) trial(i int, pop [][]float64) []float64 {
	rng := o.rng.Stream(sim.StreamMutation)
	r0, r1 := distinctPair(rng, len(pop), i)
	dim := len(o.lower)
	fill := rng.Intn(dim)
	t := append([]float64(nil), pop[i]...)
	for j := 0; j < dim; j++ {
		if rng.Float64() < o.cfg.Recombination || j == fill {
			t[j] = pop[0][j] + o.cfg.Mutation*(pop[r0][j]-pop[r1][j])
		}
	}
	repair := o.rng.Stream(sim.StreamRepair)
	for j, v := range t {
		if v < 0 || v > 1 {
			t[j] = repair.Float64()
		}
	}
	return t
}

// distinctPair draws two different members, neither of them exclude.
func distinctPair(rng *rand.Rand, n, exclude int) (int, int) {
	pick := func(skip ...int) int {
		for {
			k := rng.Intn(n)
			ok := true
			for _, s := range skip {
				if k == s {
					ok = false
				}
			}
			if ok {
				return k
			}
		}
	}
	r0 := pick(exclude)
	return r0, pick(exclude, r0)
}

func (o *Optimizer) scaled(u []float64) []float64 {
	x := make([]float64, len(u))
	for j, v := range u {
		x[j] = o.lower[j] + v*o.scale[j]
	}
	return x
}

// evaluate scores a population on the worker pool and appends the audit rows
// in population order.
func (o *Optimizer) evaluate(ctx context.Context, pop [][]float64) ([]float64, error) {
	energies := make([]float64, len(pop))
	records := make([]audit.Record, len(pop))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, u := range pop {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			energies[i], records[i] = o.objective(o.scaled(u))
			o.Metrics.observeEvaluation(time.Since(start).Seconds(), records[i].Failed())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating population: %w", err)
	}

	for i, r := range records {
		o.result.Evaluations++
		if r.Failed() {
			o.result.Failures++
			energies[i] = math.Inf(1)
			logrus.WithField("run", o.result.RunID).Warnf("evaluation failed for x=%v: %s", r.X, r.Err)
		}
	}
	if o.Log != nil {
		if err := o.Log.Append(records...); err != nil {
			return nil, err
		}
	}
	return energies, nil
}

// converged applies the population spread test: std <= atol + tol*|mean|.
func (o *Optimizer) converged(energies []float64) bool {
	for _, e := range energies {
		if math.IsInf(e, 0) || math.IsNaN(e) {
			return false
		}
	}
	mean, std := stat.MeanStdDev(energies, nil)
	// MeanStdDev is the sample deviation; the test uses the population one.
	n := float64(len(energies))
	std *= math.Sqrt((n - 1) / n)
	return std <= o.cfg.Atol+o.cfg.Tol*math.Abs(mean)
}

// promoteLowest swaps the best member to index 0, where best1bin reads it.
func promoteLowest(pop [][]float64, energies []float64) {
	best := 0
	for i, e := range energies {
		if e < energies[best] {
			best = i
		}
	}
	pop[0], pop[best] = pop[best], pop[0]
	energies[0], energies[best] = energies[best], energies[0]
}

func allInf(energies []float64) bool {
	for _, e := range energies {
		if !math.IsInf(e, 1) {
			return false
		}
	}
	return true
}

// ErrNoBounds is returned by BoundsOf when inputs carry no bounds.
var ErrNoBounds = errors.New("inputs define no decision bounds")

// BoundsOf returns the decision bounds of in.
func BoundsOf(in *sim.Inputs) (sim.Bounds, error) {
	if len(in.Bounds.Lower) == 0 {
		return sim.Bounds{}, ErrNoBounds
	}
	return in.Bounds, nil
}
