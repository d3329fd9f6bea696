package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// rawInputs returns unfinalized two-node inputs covering one year at a
// six-hour resolution.
func rawInputs() *Inputs {
	const rows = HoursPerYear / 6
	in := &Inputs{
		Resolution:           6,
		FirstYear:            2020,
		Nodes:                []string{"A", "B"},
		ZoneNodes:            []string{"A"},
		InterconnectionNodes: []string{"B"},
		Demand:               mat.NewDense(rows, 2, nil),
		SolarTrace:           mat.NewDense(rows, 1, nil),
		Baseload:             mat.NewDense(rows, 2, nil),
		Efficiency:           0.8,
	}
	for t := 0; t < rows; t++ {
		in.Demand.Set(t, 0, 10)
		in.Demand.Set(t, 1, 5)
		in.Baseload.Set(t, 1, 2)
	}
	return in
}

func TestFinalize_DerivesTotals(t *testing.T) {
	in := rawInputs()
	require.NoError(t, in.Finalize())

	assert.Equal(t, HoursPerYear/6, in.IntervalsPerYear)
	assert.Equal(t, 1, in.Years)
	assert.Equal(t, HoursPerYear/6, in.Intervals())
	assert.Equal(t, 15.0, in.TotalDemand()[0])
	assert.Equal(t, 2.0, in.TotalBaseload()[7])
	assert.Equal(t, 0.0, in.TotalPeaking()[7], "missing peaking defaults to zero")
	assert.InDelta(t, 15*HoursPerYear, in.Energy(), 1e-6)
	assert.Equal(t, 1+2+1+1, in.DecisionLength())
	assert.Equal(t, 1, in.NodeIndex("B"))
	assert.Equal(t, -1, in.NodeIndex("Z"))
	assert.True(t, in.Networked())
}

func TestFinalize_SingleNodeWithoutZones(t *testing.T) {
	in := &Inputs{
		Resolution: 1,
		Nodes:      []string{"N"},
		Demand:     mat.NewDense(2*HoursPerYear, 1, nil),
		Efficiency: 1,
	}
	require.NoError(t, in.Finalize())
	assert.Equal(t, 2, in.Years)
	assert.False(t, in.Networked())
	assert.Equal(t, 2, in.DecisionLength())
}

func TestFinalize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Inputs)
		want   string
	}{
		{"zero resolution", func(in *Inputs) { in.Resolution = 0 }, "resolution"},
		{"NaN resolution", func(in *Inputs) { in.Resolution = math.NaN() }, "resolution"},
		{"efficiency above one", func(in *Inputs) { in.Efficiency = 1.2 }, "efficiency"},
		{"zero efficiency", func(in *Inputs) { in.Efficiency = 0 }, "efficiency"},
		{"no nodes", func(in *Inputs) { in.Nodes = nil }, "at least one node"},
		{"no demand", func(in *Inputs) { in.Demand = nil }, "demand is required"},
		{"demand columns", func(in *Inputs) { in.Nodes = []string{"A", "B", "C"} }, "demand has 2 columns"},
		{"missing trace", func(in *Inputs) { in.SolarTrace = nil }, "solar trace is required"},
		{"trace shape", func(in *Inputs) { in.SolarTrace = mat.NewDense(10, 1, nil) }, "solar trace is 10x1"},
		{"baseload shape", func(in *Inputs) { in.Baseload = mat.NewDense(10, 2, nil) }, "baseload is 10x2"},
		{"unknown zone node", func(in *Inputs) { in.ZoneNodes = []string{"Q"} }, `unknown node "Q"`},
		{"unknown interconnection node", func(in *Inputs) { in.InterconnectionNodes = []string{"Q"} }, `unknown node "Q"`},
		{"partial year", func(in *Inputs) {
			in.Demand = mat.NewDense(100, 2, nil)
			in.SolarTrace = mat.NewDense(100, 1, nil)
			in.Baseload = nil
		}, "whole number"},
		{"bounds length", func(in *Inputs) {
			in.Bounds = Bounds{Lower: []float64{0}, Upper: []float64{1}}
		}, "bounds have 1/1 entries, want 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := rawInputs()
			tt.mutate(in)
			err := in.Finalize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewCandidate_SplitsBlocks(t *testing.T) {
	in := twoNodes(t, false)
	x := []float64{1, 2, 0.1, 0.2, 3, 0.4}

	c, err := NewCandidate(in, x)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2}, c.SolarGW)
	assert.Equal(t, []float64{0.1, 0.2}, c.StoragePowerGW)
	assert.Equal(t, 3.0, c.StorageEnergyGWh)
	assert.Equal(t, []float64{0.4}, c.InterconnectionGW)
	assert.InDelta(t, 300, c.StoragePowerMW(), 1e-9)
	assert.InDelta(t, 3000, c.StorageEnergyMWh(), 1e-9)
	assert.InDelta(t, 400, c.InterconnectionMW(), 1e-9)
	assert.Same(t, in, c.Inputs())

	// noon of the first day: zone A at 7/12, zone B at 6/12 of capacity
	assert.InDelta(t, (7.0/12*1+6.0/12*2)*1e3, c.Solar[12], 1e-9)
	assert.Zero(t, c.Solar[0])

	x[0] = 99
	assert.Equal(t, 1.0, c.SolarGW[0], "candidate keeps its own copy of x")
}

func TestNewCandidate_RejectsInvalidVectors(t *testing.T) {
	in := twoNodes(t, false)
	for name, x := range map[string][]float64{
		"short":    {1, 2, 3},
		"negative": {1, 2, -0.1, 0.2, 3, 0.4},
		"NaN":      {1, math.NaN(), 0.1, 0.2, 3, 0.4},
		"infinite": {1, 2, 0.1, 0.2, math.Inf(1), 0.4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewCandidate(in, x)
			assert.Error(t, err)
		})
	}
}
