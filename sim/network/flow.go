package network

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/firm-sim/firm-sim/sim"
)

// ErrNoResult is returned when a candidate has not been simulated yet.
var ErrNoResult = errors.New("candidate has no simulation result")

// FlowResult holds signed leg flows (MW, positive From -> To) for every
// interval of the simulated window.
type FlowResult struct {
	Legs   []sim.Leg
	Window sim.Window
	Flows  *mat.Dense // intervals x legs

	// Mix is the per-node allocation, one intervals x nodes matrix per
	// component. Only set by DecomposeWithMix.
	Mix *Mix
}

// Mix is the per-node generation and consumption breakdown of a result.
type Mix struct {
	Nodes      []string
	Components [numComponents]*mat.Dense
}

// Decompose resolves the pooled result attached to c into leg flows.
// With domesticOnly the exported part of spillage stays at the generating
// nodes, so the flows only serve domestic demand.
func (tp *Topology) Decompose(c *sim.Candidate, domesticOnly bool) (*FlowResult, error) {
	return tp.decompose(c, domesticOnly, false)
}

// DecomposeWithMix is Decompose that also keeps the per-node allocation.
func (tp *Topology) DecomposeWithMix(c *sim.Candidate, domesticOnly bool) (*FlowResult, error) {
	return tp.decompose(c, domesticOnly, true)
}

func (tp *Topology) decompose(c *sim.Candidate, domesticOnly, keepMix bool) (*FlowResult, error) {
	if c.Result == nil {
		return nil, ErrNoResult
	}
	in := c.Inputs()
	res := c.Result
	n := res.Window.Len()
	out := &FlowResult{Legs: tp.legs, Window: res.Window}
	if len(tp.legs) > 0 {
		out.Flows = mat.NewDense(n, len(tp.legs), nil)
	}

	a := newAllocator(c)
	if keepMix {
		out.Mix = &Mix{Nodes: in.Nodes}
		for k := range out.Mix.Components {
			out.Mix.Components[k] = mat.NewDense(n, len(in.Nodes), nil)
		}
	}
	if !in.Networked() && !keepMix {
		return out, nil
	}

	imb := make([]float64, len(in.Nodes))
	need := make([]float64, len(tp.nodes))
	for i := 0; i < n; i++ {
		a.at(i, domesticOnly)
		if keepMix {
			for k, m := range out.Mix.Components {
				m.SetRow(i, a.parts[k])
			}
		}
		if !in.Networked() {
			continue
		}
		a.imbalance(imb)
		for v, col := range tp.covered {
			need[v] = 0
			if col >= 0 {
				need[v] = imb[col]
			}
		}
		residual := tp.solve(need, out.Flows.RawRowView(i))
		if math.Abs(residual) > sim.BoundsTolerance {
			return nil, &sim.InvariantError{
				Invariant: "flow conservation",
				Interval:  res.Window.Start + i,
				Magnitude: residual,
				Detail:    fmt.Sprintf("paths into junction %q disagree", tp.Junction()),
			}
		}
	}
	return out, nil
}

// PeakFlows returns the largest absolute flow on each leg, MW.
func (f *FlowResult) PeakFlows() []float64 {
	peaks := make([]float64, len(f.Legs))
	if f.Flows == nil {
		return peaks
	}
	r, _ := f.Flows.Dims()
	for t := 0; t < r; t++ {
		for k, v := range f.Flows.RawRowView(t) {
			peaks[k] = math.Max(peaks[k], math.Abs(v))
		}
	}
	return peaks
}

// AbsFlowSums returns the sum over intervals of the absolute flow on each leg.
func (f *FlowResult) AbsFlowSums() []float64 {
	sums := make([]float64, len(f.Legs))
	if f.Flows == nil {
		return sums
	}
	r, _ := f.Flows.Dims()
	for t := 0; t < r; t++ {
		for k, v := range f.Flows.RawRowView(t) {
			sums[k] += math.Abs(v)
		}
	}
	return sums
}

// LossEnergy is the transmission loss over the window, MWh, weighting each
// leg's absolute flow by its loss factor.
func (f *FlowResult) LossEnergy(resolution float64) float64 {
	var loss float64
	for k, s := range f.AbsFlowSums() {
		loss += s * f.Legs[k].LossFactor
	}
	return loss * resolution
}

// Leg returns the flow series of the named leg, or nil if unknown.
func (f *FlowResult) Leg(name string) []float64 {
	for k, l := range f.Legs {
		if l.Name == name {
			if f.Flows == nil {
				r := f.Window.Len()
				return make([]float64, r)
			}
			return mat.Col(nil, k, f.Flows)
		}
	}
	return nil
}

// NodeNetFlow returns the net transmission inflow of node per interval:
// flows on legs pointing into the node minus flows on legs leaving it.
func (f *FlowResult) NodeNetFlow(node string) []float64 {
	out := make([]float64, f.Window.Len())
	if f.Flows == nil {
		return out
	}
	for k, l := range f.Legs {
		var sign float64
		switch node {
		case l.To:
			sign = 1
		case l.From:
			sign = -1
		default:
			continue
		}
		for t := range out {
			out[t] += sign * f.Flows.At(t, k)
		}
	}
	return out
}
