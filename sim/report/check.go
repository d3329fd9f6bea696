// Package report produces the post-optimisation statistics of a candidate:
// consistency checks, the cost and energy breakdown, and generation-mix
// time series for the whole system and each node.
package report

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
)

// Warning flags an installed capacity exceeded by the simulated schedule.
type Warning struct {
	Quantity string
	Peak     float64 // observed maximum
	Limit    float64 // installed capacity or budget
}

func (w Warning) String() string {
	return fmt.Sprintf("%s peaks at %.3f above its limit %.3f", w.Quantity, w.Peak, w.Limit)
}

// Check re-verifies the result attached to c interval by interval. Energy
// balance and storage recurrence mismatches above BalanceTolerance are
// errors; capacity over-use above BoundsTolerance is returned as warnings
// and logged.
func Check(c *sim.Candidate) ([]Warning, error) {
	res := c.Result
	if res == nil {
		return nil, fmt.Errorf("candidate has no simulation result")
	}
	in := c.Inputs()
	demand, baseload := in.TotalDemand(), in.TotalBaseload()
	capacity := c.StorageEnergyMWh()

	prev := 0.5 * capacity
	for i := range res.Storage {
		t := res.Window.Start + i
		gap := demand[t] + res.Charge[i] + res.Spillage[i] -
			c.Solar[t] - res.Imports[i] - baseload[t] - res.Peaking[i] - res.Discharge[i] - res.Deficit[i]
		if math.Abs(gap) > sim.BalanceTolerance {
			return nil, &sim.InvariantError{Invariant: "energy balance", Interval: t, Magnitude: gap}
		}
		step := res.Storage[i] - prev + res.Discharge[i]*in.Resolution - res.Charge[i]*in.Resolution*in.Efficiency
		if math.Abs(step) > sim.BalanceTolerance {
			return nil, &sim.InvariantError{Invariant: "storage recurrence", Interval: t, Magnitude: step}
		}
		prev = res.Storage[i]
	}

	var warnings []Warning
	over := func(name string, series []float64, limit float64) {
		if len(series) == 0 {
			return
		}
		if peak := floats.Max(series); peak-limit > sim.BoundsTolerance {
			warnings = append(warnings, Warning{Quantity: name, Peak: peak, Limit: limit})
		}
	}
	over("imports (MW)", res.Imports, c.InterconnectionMW())
	over("storage discharge (MW)", res.Discharge, c.StoragePowerMW())
	over("storage charge (MW)", res.Charge, c.StoragePowerMW())
	over("storage state (MWh)", res.Storage, capacity)
	if in.HydroEnergyLimit > 0 {
		hydro := make([]float64, res.Window.Len())
		for i := range hydro {
			hydro[i] = baseload[res.Window.Start+i] + res.Peaking[i]
		}
		annual := sim.AnnualTotals(hydro, in.IntervalsPerYear)
		floats.Scale(in.Resolution, annual)
		over("hydro energy (MWh/yr)", annual, in.HydroEnergyLimit)
	}

	for _, w := range warnings {
		logrus.Warnf("check: %s", w)
	}
	if d := floats.Sum(res.Deficit) * in.Resolution; d >= 0.1 {
		logrus.Warnf("check: energy generation and demand are not balanced, %.1f MWh unserved", d)
	}
	return warnings, nil
}
