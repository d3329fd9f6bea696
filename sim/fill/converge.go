package fill

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
)

// Defaults of the convergence loop.
const (
	DefaultMaxIterations = 50
	DefaultMaxBacktrack  = 168 // one week of hourly intervals
)

// DefaultParams sizes a fill for candidate c: the limit is its total
// interconnection capacity and the annual budget is the average annual demand.
func DefaultParams(c *sim.Candidate) Params {
	in := c.Inputs()
	return Params{
		Limit:            c.InterconnectionMW(),
		AnnualBudget:     in.Energy(),
		Efficiency:       in.Efficiency,
		MaxBacktrack:     DefaultMaxBacktrack,
		IntervalsPerYear: in.IntervalsPerYear,
		Resolution:       in.Resolution,
	}
}

// Outcome is the converged import schedule of a candidate.
type Outcome struct {
	Imports    []float64   // MW per interval
	Result     *sim.Result // simulation with Imports injected
	Iterations int         // fill passes run
	Residual   float64     // deficit energy left, MWh
	Target     float64     // residual at or below which the loop stops, MWh
	Failures   []Failure   // of the last pass
	Reports    []Report    // one per pass
}

// Converged reports whether the residual deficit reached the allowance.
func (o *Outcome) Converged() bool { return o.Residual <= o.Target }

// Converge starts from zero imports and alternates fill passes with full
// simulations until the residual deficit is within the allowance of every
// simulated year or maxIterations passes have run.
func Converge(c *sim.Candidate, p Params, maxIterations int) (*Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if maxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", maxIterations)
	}
	in := c.Inputs()
	out := &Outcome{
		Imports: make([]float64, in.Intervals()),
		Target:  in.Allowance * float64(in.Years),
	}
	peaking := in.TotalPeaking()

	res, err := sim.Simulate(c, out.Imports, peaking, sim.FullHorizon(in))
	if err != nil {
		return nil, err
	}
	for {
		rep := Fill(res.Deficit, out.Imports, p)
		out.Iterations++
		out.Reports = append(out.Reports, rep)
		out.Failures = rep.Failures

		res, err = sim.Simulate(c, out.Imports, peaking, sim.FullHorizon(in))
		if err != nil {
			return nil, fmt.Errorf("fill pass %d: %w", out.Iterations, err)
		}
		out.Residual = floats.Sum(res.Deficit) * in.Resolution
		logrus.Debugf("fill pass %d: %d deficit intervals, %.1f MWh added, %.1f MWh residual",
			out.Iterations, rep.Deficits, rep.Added, out.Residual)
		if out.Residual <= out.Target || out.Iterations >= maxIterations {
			break
		}
	}
	out.Result = res

	if n := len(out.Failures); n > 0 {
		logrus.Warnf("fill: %d deficit intervals left partly unfilled after %d passes", n, out.Iterations)
		for _, f := range out.Failures {
			logrus.Debugf("fill: %s", f)
		}
	}
	if !out.Converged() {
		logrus.Warnf("fill: residual deficit %.1f MWh above allowance %.1f MWh", out.Residual, out.Target)
	}
	return out, nil
}
