// Package objective turns a decision vector into the scalar fitness minimised
// by the outer search: the levelised cost of electricity plus soft penalties
// for unreliable or mis-sized configurations.
package objective

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/audit"
	"github.com/firm-sim/firm-sim/sim/network"
)

// Penalties are the additive soft constraints of the fitness.
type Penalties struct {
	Deficit      float64 // unserved energy above the allowance, MWh
	Energy       float64 // import energy over budget; not priced yet
	Power        float64 // |peak deficit - interconnection capacity|, MW
	Transmission float64 // not priced yet
}

// Total is the sum of every penalty.
func (p Penalties) Total() float64 {
	return p.Deficit + p.Energy + p.Power + p.Transmission
}

// Evaluation is the outcome of one objective call.
type Evaluation struct {
	Candidate *sim.Candidate     // carries the costing simulation in Result
	Flows     *network.FlowResult // nil when the coverage is a single node
	Cost      Cost
	Penalties Penalties
	LCOE      float64
	Fitness   float64
	Export    float64 // average annual export, MWh, grossed up like imports
}

// Record converts the evaluation into its audit row.
func (e *Evaluation) Record() audit.Record {
	return audit.Record{
		X:                   append([]float64(nil), e.Candidate.X...),
		Fitness:             e.Fitness,
		LCOE:                e.LCOE,
		PenaltyDeficit:      e.Penalties.Deficit,
		PenaltyEnergy:       e.Penalties.Energy,
		PenaltyPower:        e.Penalties.Power,
		PenaltyTransmission: e.Penalties.Transmission,
		ExportEnergy:        e.Export,
	}
}

// Evaluator computes the objective over shared, read-only inputs.
// It is safe for concurrent use: every call builds its own candidate.
type Evaluator struct {
	in       *sim.Inputs
	topology *network.Topology
}

// NewEvaluator validates the topology of in once for every later evaluation.
func NewEvaluator(in *sim.Inputs) (*Evaluator, error) {
	tp, err := network.NewTopology(in)
	if err != nil {
		return nil, fmt.Errorf("building topology: %w", err)
	}
	return &Evaluator{in: in, topology: tp}, nil
}

// Inputs returns the configuration the evaluator was built over.
func (e *Evaluator) Inputs() *sim.Inputs { return e.in }

// Topology returns the validated network.
func (e *Evaluator) Topology() *network.Topology { return e.topology }

// Evaluate runs the full simulation protocol for x. Any error, including an
// *sim.InvariantError, means the evaluation failed and has no fitness.
func (e *Evaluator) Evaluate(x []float64) (*Evaluation, error) {
	in := e.in
	c, err := sim.NewCandidate(in, x)
	if err != nil {
		return nil, err
	}
	peaking := in.TotalPeaking()
	n := in.Intervals()
	ev := &Evaluation{Candidate: c}

	var imports []float64
	if in.ImportEnabled {
		capacity := c.InterconnectionMW()

		// Unconstrained deficit shape.
		free, err := sim.Simulate(c, nil, peaking, sim.FullHorizon(in))
		if err != nil {
			return nil, fmt.Errorf("zero-import run: %w", err)
		}
		ev.Penalties.Power = math.Abs(floats.Max(free.Deficit) - capacity)
		imports = make([]float64, n)
		for t, d := range free.Deficit {
			imports[t] = math.Min(math.Max(d, 0), capacity)
		}

		full := make([]float64, n)
		for t := range full {
			full[t] = capacity
		}
		res, err := sim.Simulate(c, full, peaking, sim.FullHorizon(in))
		if err != nil {
			return nil, fmt.Errorf("full-import run: %w", err)
		}
		ev.Penalties.Deficit = deficitPenalty(in, res)

		if _, err := sim.Simulate(c, imports, peaking, sim.FullHorizon(in)); err != nil {
			return nil, fmt.Errorf("clipped-import run: %w", err)
		}
	} else {
		res, err := sim.Simulate(c, nil, peaking, sim.FullHorizon(in))
		if err != nil {
			return nil, err
		}
		ev.Penalties.Deficit = deficitPenalty(in, res)
	}

	if in.Networked() {
		ev.Flows, err = e.topology.Decompose(c, true)
		if err != nil {
			return nil, err
		}
	}

	ev.Cost = CostOf(c, ev.Flows)
	ev.LCOE = ev.Cost.LCOE()
	ev.Fitness = ev.LCOE + ev.Penalties.Total()
	ev.Export = floats.Sum(c.Result.Export) * in.Resolution / float64(in.Years) / in.Efficiency
	return ev, nil
}

// Score is Evaluate reduced to what the search needs: the fitness and the
// audit row. A failed evaluation scores +Inf and its row carries the error.
func (e *Evaluator) Score(x []float64) (float64, audit.Record) {
	ev, err := e.Evaluate(x)
	if err != nil {
		return math.Inf(1), audit.Failure(x, err)
	}
	return ev.Fitness, ev.Record()
}

func deficitPenalty(in *sim.Inputs, res *sim.Result) float64 {
	return math.Max(0, floats.Sum(res.Deficit)*in.Resolution-in.Allowance)
}
