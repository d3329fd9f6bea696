package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// HoursPerYear is the calendar length used to split the horizon into years.
const HoursPerYear = 8760

// Leg is one transmission connection of the radial network.
// A positive flow on the leg moves power From -> To.
type Leg struct {
	Name       string  // e.g. "SPKP"
	From       string  // node id
	To         string  // node id
	LossFactor float64 // fractional loss per unit of flow (distance x line-type factor)
}

// CostFactors groups the annualised cost coefficients of each technology.
// Capacity factors are $b per GW (or GWh) per year, energy factors are $b per TWh.
type CostFactors struct {
	PV              float64            // solar capacity
	Import          float64            // imported energy
	StoragePower    float64            // pumped hydro power capacity
	StorageEnergy   float64            // pumped hydro energy capacity
	StorageVOM      float64            // storage variable O&M on discharged energy
	Hydro           float64            // existing hydro energy
	SolarConnection float64            // AC connection of solar capacity
	Transmission    map[string]float64 // per leg, on peak flow capacity
}

// Bounds are the per-component limits of the decision vector.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// Inputs is the immutable configuration shared by every evaluation: demand,
// generation traces, topology and cost data. It is built once and only read
// afterwards, so one instance may be shared across goroutines.
type Inputs struct {
	Resolution       float64 // hours per interval
	IntervalsPerYear int
	Years            int
	FirstYear        int

	Nodes                []string // covered nodes, column order of the per-node matrices
	ZoneNodes            []string // node of each solar zone
	InterconnectionNodes []string // node of each interconnection

	Demand     *mat.Dense // intervals x nodes, MW
	SolarTrace *mat.Dense // intervals x zones, per unit of installed capacity; nil without zones
	Baseload   *mat.Dense // intervals x nodes, MW
	Peaking    *mat.Dense // intervals x nodes, MW

	Efficiency       float64 // storage round trip efficiency
	Allowance        float64 // tolerated unserved energy per year, MWh
	HydroCapacityGW  float64
	HydroEnergyLimit float64 // annual hydro energy available, MWh; 0 means unconstrained

	Legs     []Leg
	Junction string

	Costs  CostFactors
	Bounds Bounds

	ImportEnabled bool
	ExportEnabled bool

	totalDemand   []float64
	totalBaseload []float64
	totalPeaking  []float64
	nodeIndex     map[string]int
}

// Finalize validates the inputs and derives the pooled series. It must be
// called once after all fields are set and before the inputs are used.
func (in *Inputs) Finalize() error {
	if in.Resolution <= 0 || math.IsNaN(in.Resolution) {
		return fmt.Errorf("resolution must be positive, got %f", in.Resolution)
	}
	if in.Efficiency <= 0 || in.Efficiency > 1 {
		return fmt.Errorf("efficiency must be in (0, 1], got %f", in.Efficiency)
	}
	if len(in.Nodes) == 0 {
		return fmt.Errorf("at least one node required")
	}
	if in.Demand == nil {
		return fmt.Errorf("demand is required")
	}
	intervals, nodes := in.Demand.Dims()
	if nodes != len(in.Nodes) {
		return fmt.Errorf("demand has %d columns, want %d nodes", nodes, len(in.Nodes))
	}
	if len(in.ZoneNodes) > 0 {
		if in.SolarTrace == nil {
			return fmt.Errorf("solar trace is required for %d zones", len(in.ZoneNodes))
		}
		if r, c := in.SolarTrace.Dims(); r != intervals || c != len(in.ZoneNodes) {
			return fmt.Errorf("solar trace is %dx%d, want %dx%d", r, c, intervals, len(in.ZoneNodes))
		}
	}
	if in.Baseload == nil {
		in.Baseload = mat.NewDense(intervals, nodes, nil)
	}
	if in.Peaking == nil {
		in.Peaking = mat.NewDense(intervals, nodes, nil)
	}
	for name, m := range map[string]*mat.Dense{"baseload": in.Baseload, "peaking": in.Peaking} {
		if r, c := m.Dims(); r != intervals || c != nodes {
			return fmt.Errorf("%s is %dx%d, want %dx%d", name, r, c, intervals, nodes)
		}
	}

	in.nodeIndex = make(map[string]int, len(in.Nodes))
	for i, n := range in.Nodes {
		in.nodeIndex[n] = i
	}
	for i, n := range in.ZoneNodes {
		if _, ok := in.nodeIndex[n]; !ok {
			return fmt.Errorf("solar zone %d references unknown node %q", i, n)
		}
	}
	for i, n := range in.InterconnectionNodes {
		if _, ok := in.nodeIndex[n]; !ok {
			return fmt.Errorf("interconnection %d references unknown node %q", i, n)
		}
	}

	in.IntervalsPerYear = int(math.Round(HoursPerYear / in.Resolution))
	if intervals == 0 || intervals%in.IntervalsPerYear != 0 {
		return fmt.Errorf("horizon of %d intervals is not a whole number of %d-interval years", intervals, in.IntervalsPerYear)
	}
	in.Years = intervals / in.IntervalsPerYear

	in.totalDemand = rowSums(in.Demand)
	in.totalBaseload = rowSums(in.Baseload)
	in.totalPeaking = rowSums(in.Peaking)

	if want := in.DecisionLength(); len(in.Bounds.Lower) != 0 || len(in.Bounds.Upper) != 0 {
		if len(in.Bounds.Lower) != want || len(in.Bounds.Upper) != want {
			return fmt.Errorf("bounds have %d/%d entries, want %d", len(in.Bounds.Lower), len(in.Bounds.Upper), want)
		}
	}
	return nil
}

func rowSums(m *mat.Dense) []float64 {
	r, _ := m.Dims()
	out := make([]float64, r)
	for t := 0; t < r; t++ {
		out[t] = floats.Sum(m.RawRowView(t))
	}
	return out
}

// Intervals returns the length of the simulated horizon.
func (in *Inputs) Intervals() int {
	r, _ := in.Demand.Dims()
	return r
}

// NodeIndex returns the column of node id, or -1 when the node is not covered.
func (in *Inputs) NodeIndex(id string) int {
	if i, ok := in.nodeIndex[id]; ok {
		return i
	}
	return -1
}

// TotalDemand is the pooled demand series. Callers must not modify it.
func (in *Inputs) TotalDemand() []float64 { return in.totalDemand }

// TotalBaseload is the pooled hydro baseload series. Callers must not modify it.
func (in *Inputs) TotalBaseload() []float64 { return in.totalBaseload }

// TotalPeaking is the pooled hydro peaking series. Callers must not modify it.
func (in *Inputs) TotalPeaking() []float64 { return in.totalPeaking }

// Energy is the average annual demand in MWh.
func (in *Inputs) Energy() float64 {
	return floats.Sum(in.totalDemand) * in.Resolution / float64(in.Years)
}

// DecisionLength is the number of entries in a decision vector.
func (in *Inputs) DecisionLength() int {
	return len(in.ZoneNodes) + len(in.Nodes) + 1 + len(in.InterconnectionNodes)
}

// Networked reports whether flows between nodes need to be resolved.
func (in *Inputs) Networked() bool { return len(in.Nodes) > 1 }
