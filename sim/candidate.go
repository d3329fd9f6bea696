package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Candidate is one decision vector together with everything derived from it.
// It is immutable apart from Result, which Simulate overwrites on every call.
type Candidate struct {
	X []float64

	SolarGW           []float64 // per solar zone
	StoragePowerGW    []float64 // per node
	StorageEnergyGWh  float64   // pooled
	InterconnectionGW []float64 // per interconnection

	// Solar is the pooled solar generation, MW per interval.
	Solar []float64

	// Result of the most recent Simulate call.
	Result *Result

	in *Inputs
}

// NewCandidate splits x into its capacity blocks and derives the solar series.
// The vector layout is [solar zones | storage power per node | storage energy | interconnections].
func NewCandidate(in *Inputs, x []float64) (*Candidate, error) {
	if want := in.DecisionLength(); len(x) != want {
		return nil, fmt.Errorf("decision vector has %d entries, want %d", len(x), want)
	}
	for i, v := range x {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("decision vector entry %d must be finite and non-negative, got %g", i, v)
		}
	}

	zones, nodes := len(in.ZoneNodes), len(in.Nodes)
	c := &Candidate{
		X:                append([]float64(nil), x...),
		StorageEnergyGWh: x[zones+nodes],
		in:               in,
	}
	c.SolarGW = c.X[:zones]
	c.StoragePowerGW = c.X[zones : zones+nodes]
	c.InterconnectionGW = c.X[zones+nodes+1:]

	n := in.Intervals()
	c.Solar = make([]float64, n)
	if zones == 0 {
		return c, nil
	}
	for t := 0; t < n; t++ {
		row := in.SolarTrace.RawRowView(t)
		var g float64
		for z, cf := range row {
			g += cf * c.SolarGW[z]
		}
		c.Solar[t] = g * 1e3
	}
	return c, nil
}

// Inputs returns the shared configuration the candidate was built from.
func (c *Candidate) Inputs() *Inputs { return c.in }

// StoragePowerMW is the pooled storage power capacity.
func (c *Candidate) StoragePowerMW() float64 { return floats.Sum(c.StoragePowerGW) * 1e3 }

// StorageEnergyMWh is the pooled storage energy capacity.
func (c *Candidate) StorageEnergyMWh() float64 { return c.StorageEnergyGWh * 1e3 }

// InterconnectionMW is the total cross-border capacity.
func (c *Candidate) InterconnectionMW() float64 { return floats.Sum(c.InterconnectionGW) * 1e3 }

func (c *Candidate) String() string {
	return fmt.Sprintf("Candidate(%v)", c.X)
}
