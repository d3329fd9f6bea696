package objective

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/network"
)

// Cost is the annualised cost breakdown of one simulated candidate.
// Cost components are $b per year; energies are per year.
type Cost struct {
	PV              float64
	Import          float64
	StoragePower    float64
	StorageEnergy   float64
	StorageVOM      float64
	Transmission    float64
	SolarConnection float64
	Hydro           float64

	TransmissionGW []float64 // sized capacity per leg, peak absolute flow

	ImportMWh    float64 // imported energy grossed up by storage efficiency
	HydroMWh     float64 // baseload and peaking energy grossed up by storage efficiency
	DischargeTWh float64
	EnergyPWh    float64 // demand
	LossPWh      float64 // transmission losses
}

// Total is the annual system cost, $b.
func (c Cost) Total() float64 {
	return c.PV + c.Import + c.StoragePower + c.StorageEnergy + c.StorageVOM +
		c.Transmission + c.SolarConnection + c.Hydro
}

// LCOE is the levelised cost of electricity in $/MWh.
func (c Cost) LCOE() float64 {
	return c.Total() / math.Abs(c.EnergyPWh-c.LossPWh)
}

// CostOf prices the result attached to c. flows may be nil when the network
// is not resolved, in which case no transmission is built and nothing is lost.
func CostOf(c *sim.Candidate, flows *network.FlowResult) Cost {
	in := c.Inputs()
	res := c.Result
	years := float64(in.Years) * float64(res.Window.Len()) / float64(in.Intervals())
	f := in.Costs

	baseload := floats.Sum(in.TotalBaseload()[res.Window.Start:res.Window.End])

	out := Cost{
		ImportMWh:    in.Resolution * floats.Sum(res.Imports) / years / in.Efficiency,
		HydroMWh:     in.Resolution * (baseload + floats.Sum(res.Peaking)) / in.Efficiency / years,
		DischargeTWh: floats.Sum(res.Discharge) * in.Resolution / years * 1e-6,
		EnergyPWh:    floats.Sum(in.TotalDemand()[res.Window.Start:res.Window.End]) * 1e-9 * in.Resolution / years,
	}
	cpv := floats.Sum(c.SolarGW)
	out.PV = f.PV * cpv
	out.SolarConnection = f.SolarConnection * cpv
	out.Import = f.Import * out.ImportMWh * 1e-6
	out.StoragePower = f.StoragePower * floats.Sum(c.StoragePowerGW)
	out.StorageEnergy = f.StorageEnergy * c.StorageEnergyGWh
	out.StorageVOM = f.StorageVOM * out.DischargeTWh
	out.Hydro = f.Hydro * out.HydroMWh * 1e-6

	if flows != nil {
		out.TransmissionGW = flows.PeakFlows()
		for k, l := range flows.Legs {
			out.TransmissionGW[k] *= 1e-3
			out.Transmission += f.Transmission[l.Name] * out.TransmissionGW[k]
		}
		out.LossPWh = flows.LossEnergy(in.Resolution) * 1e-9 / years
	}
	return out
}
