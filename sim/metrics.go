// Aggregates of a simulation result used by the objective, the fill loop and reports.

package sim

import (
	"gonum.org/v1/gonum/floats"
)

// Metrics summarises the trajectories of one Result.
// Energies are MWh over the simulated window.
type Metrics struct {
	DeficitEnergy   float64 // total unserved energy
	DeficitPower    float64 // unserved energy while power-limited
	DeficitStorage  float64 // unserved energy while energy-limited
	SpillageEnergy  float64
	DischargeEnergy float64
	ChargeEnergy    float64
	ImportEnergy    float64
	ExportEnergy    float64
	PeakDeficit     float64 // MW
	MaxYearDeficit  float64 // largest deficit energy of any whole year in the window
}

// Metrics computes the summary of r for inputs in.
func (r *Result) Metrics(in *Inputs) Metrics {
	res := in.Resolution
	m := Metrics{
		DeficitEnergy:   floats.Sum(r.Deficit) * res,
		DeficitPower:    floats.Sum(r.DeficitPower) * res,
		DeficitStorage:  floats.Sum(r.DeficitEnergy) * res,
		SpillageEnergy:  floats.Sum(r.Spillage) * res,
		DischargeEnergy: floats.Sum(r.Discharge) * res,
		ChargeEnergy:    floats.Sum(r.Charge) * res,
		ImportEnergy:    floats.Sum(r.Imports) * res,
		ExportEnergy:    floats.Sum(r.Export) * res,
	}
	if len(r.Deficit) > 0 {
		m.PeakDeficit = floats.Max(r.Deficit)
	}
	for _, e := range AnnualTotals(r.Deficit, in.IntervalsPerYear) {
		if e*res > m.MaxYearDeficit {
			m.MaxYearDeficit = e * res
		}
	}
	return m
}

// AnnualTotals sums series over consecutive blocks of perYear intervals.
// A trailing partial block is summed as its own entry.
func AnnualTotals(series []float64, perYear int) []float64 {
	if perYear <= 0 {
		return nil
	}
	out := make([]float64, 0, (len(series)+perYear-1)/perYear)
	for start := 0; start < len(series); start += perYear {
		end := min(start+perYear, len(series))
		out = append(out, floats.Sum(series[start:end]))
	}
	return out
}
