// sim/reliability.go
package sim

import (
	"fmt"
	"math"
)

// Window selects a half-open range [Start, End) of intervals.
// The zero value selects the full horizon.
type Window struct {
	Start int
	End   int
}

// FullHorizon returns the window covering every interval of in.
func FullHorizon(in *Inputs) Window { return Window{0, in.Intervals()} }

// YearWindow returns the window of the zero-based calendar year.
func YearWindow(in *Inputs, year int) Window {
	return Window{year * in.IntervalsPerYear, (year + 1) * in.IntervalsPerYear}
}

// Len is the number of intervals in the window.
func (w Window) Len() int { return w.End - w.Start }

func (w Window) resolve(in *Inputs) (Window, error) {
	if w == (Window{}) {
		return FullHorizon(in), nil
	}
	if w.Start < 0 || w.End > in.Intervals() || w.Start >= w.End {
		return w, fmt.Errorf("window [%d, %d) outside horizon of %d intervals", w.Start, w.End, in.Intervals())
	}
	return w, nil
}

// Result holds the per-interval trajectories of one Simulate call.
// Index i corresponds to absolute interval Window.Start+i.
type Result struct {
	Window Window

	Imports []float64 // injected import, MW
	Peaking []float64 // injected hydro peaking, MW

	Discharge     []float64 // storage discharge, MW
	Charge        []float64 // storage charge, MW
	Storage       []float64 // state of charge at the end of the interval, MWh
	DeficitEnergy []float64 // unmet demand while the reservoir is empty, MW
	DeficitPower  []float64 // unmet demand while discharge is at power capacity, MW
	Deficit       []float64 // DeficitEnergy + DeficitPower
	Spillage      []float64 // surplus generation that could not be stored, MW
	Export        []float64 // part of Spillage sent across the border, MW
}

// reservoir is the pooled storage state carried across intervals.
type reservoir struct {
	power      float64 // MW
	capacity   float64 // MWh
	efficiency float64
	resolution float64
	soc        float64 // MWh
}

// step advances the reservoir by one interval for the given net load and
// returns the discharge and charge it settled on.
func (r *reservoir) step(netload float64) (discharge, charge float64) {
	discharge = math.Min(math.Min(math.Max(0, netload), r.power), r.soc/r.resolution)
	charge = math.Min(math.Min(math.Max(0, -netload), r.power), (r.capacity-r.soc)/r.efficiency/r.resolution)
	r.soc = r.soc - discharge*r.resolution + charge*r.resolution*r.efficiency
	return discharge, charge
}

// Simulate runs the sequential storage dispatch of c over w with the given
// import and hydro peaking injections. A nil injection is treated as zero.
// The reservoir starts half full at w.Start, so windows never share state.
//
// The result is attached to c.Result. Concurrent calls on one candidate are
// not safe.
func Simulate(c *Candidate, imports, peaking []float64, w Window) (*Result, error) {
	in := c.in
	w, err := w.resolve(in)
	if err != nil {
		return nil, err
	}
	n := w.Len()
	if imports == nil {
		imports = make([]float64, n)
	}
	if peaking == nil {
		peaking = make([]float64, n)
	}
	if len(imports) != n {
		return nil, fmt.Errorf("imports: %w (got %d, want %d)", ErrSeriesLength, len(imports), n)
	}
	if len(peaking) != n {
		return nil, fmt.Errorf("peaking: %w (got %d, want %d)", ErrSeriesLength, len(peaking), n)
	}

	res := &Result{
		Window:        w,
		Imports:       append([]float64(nil), imports...),
		Peaking:       append([]float64(nil), peaking...),
		Discharge:     make([]float64, n),
		Charge:        make([]float64, n),
		Storage:       make([]float64, n),
		DeficitEnergy: make([]float64, n),
		DeficitPower:  make([]float64, n),
		Deficit:       make([]float64, n),
		Spillage:      make([]float64, n),
		Export:        make([]float64, n),
	}

	demand, baseload := in.TotalDemand(), in.TotalBaseload()
	st := reservoir{
		power:      c.StoragePowerMW(),
		capacity:   c.StorageEnergyMWh(),
		efficiency: in.Efficiency,
		resolution: in.Resolution,
	}
	st.soc = 0.5 * st.capacity
	exportCap := 0.0
	if in.ExportEnabled {
		exportCap = c.InterconnectionMW()
	}

	for i := 0; i < n; i++ {
		t := w.Start + i
		netload := demand[t] - c.Solar[t] - baseload[t] - res.Peaking[i] - res.Imports[i]

		prior := st.soc
		discharge, charge := st.step(netload)
		res.Discharge[i] = discharge
		res.Charge[i] = charge
		res.Storage[i] = st.soc

		residual := netload - discharge + charge
		switch {
		case residual <= 0:
		case discharge == st.power:
			res.DeficitPower[i] = residual
		case discharge == prior/st.resolution:
			res.DeficitEnergy[i] = residual
		}
		res.Deficit[i] = res.DeficitEnergy[i] + res.DeficitPower[i]
		res.Spillage[i] = -math.Min(0, residual)
		if exportCap > 0 {
			res.Export[i] = math.Min(res.Spillage[i], math.Max(0, exportCap-res.Imports[i]))
		}
	}

	if err := res.check(c, demand, baseload); err != nil {
		return nil, err
	}
	c.Result = res
	return res, nil
}

// check verifies the postconditions of a simulation.
func (r *Result) check(c *Candidate, demand, baseload []float64) error {
	capacity := c.StorageEnergyMWh()
	for i := range r.Storage {
		t := r.Window.Start + i
		if s := r.Storage[i]; s < -BoundsTolerance || s > capacity+BoundsTolerance {
			return &InvariantError{Invariant: "storage bounds", Interval: t, Magnitude: s,
				Detail: fmt.Sprintf("state of charge outside [0, %g] MWh", capacity)}
		}
		if d := r.Deficit[i]; d < -BoundsTolerance {
			return &InvariantError{Invariant: "deficit non-negative", Interval: t, Magnitude: d}
		}
		if s := r.Spillage[i]; s < -BoundsTolerance {
			return &InvariantError{Invariant: "spillage non-negative", Interval: t, Magnitude: s}
		}
		supply := c.Solar[t] + baseload[t] + r.Peaking[i] + r.Imports[i] + r.Discharge[i] + r.Deficit[i]
		use := demand[t] + r.Charge[i] + r.Spillage[i]
		if gap := math.Abs(use - supply); gap > BalanceTolerance {
			return &InvariantError{Invariant: "energy balance", Interval: t, Magnitude: gap,
				Detail: fmt.Sprintf("demand+charge+spillage=%g, supply=%g", use, supply)}
		}
	}
	return nil
}
