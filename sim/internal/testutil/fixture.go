// Package testutil provides shared test infrastructure for the firm-sim
// packages: a synthetic version of the 11-node network and assertion helpers
// used across sim/ sub-package tests.
package testutil

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/firm-sim/firm-sim/sim"
)

// Node lists of the fixed network, in decision-vector order.
var (
	Nodes                = []string{"SP", "KP", "LP", "GP", "BP", "MP", "EP", "TI", "GI", "MI", "KI"}
	ZoneNodes            = []string{"SP", "SP", "SP", "KP", "KP", "KP", "LP", "LP", "GP", "GP", "GP", "BP", "BP", "BP", "MP", "MP", "MP", "EP", "EP", "EP", "EP", "EP", "EP"}
	InterconnectionNodes = []string{"TI", "GI", "MI", "KI"}
)

// Legs returns the ten legs of the radial network with AC loss factors.
func Legs() []sim.Leg {
	type leg struct {
		name, from, to string
		km             float64
	}
	defs := []leg{
		{"SPKP", "SP", "KP", 131},
		{"KPLP", "LP", "KP", 178},
		{"LPGP", "LP", "GP", 75},
		{"GPBP", "BP", "GP", 149},
		{"BPMP", "BP", "MP", 122},
		{"EPMP", "EP", "MP", 197},
		{"TISP", "SP", "TI", 16},
		{"GILP", "LP", "GI", 40},
		{"MIMP", "MI", "MP", 78},
		{"KIEP", "EP", "KI", 26},
	}
	out := make([]sim.Leg, len(defs))
	for k, d := range defs {
		out[k] = sim.Leg{Name: d.name, From: d.from, To: d.to, LossFactor: d.km * 0.07 * 1e-3}
	}
	return out
}

// Fixture describes synthetic inputs. Zero fields take small defaults.
type Fixture struct {
	Years            int      // default 2
	IntervalsPerYear int      // default 48
	Coverage         []string // nil covers every node
	Import           bool
	Export           bool
	Seed             int64 // default 1
}

// Inputs builds finalized synthetic inputs over the 11-node network: a daily
// demand shape per node, a solar bell per zone, constant baseload and an
// evening peaking block at the domestic nodes.
func Inputs(t testing.TB, f Fixture) *sim.Inputs {
	t.Helper()
	if f.Years == 0 {
		f.Years = 2
	}
	if f.IntervalsPerYear == 0 {
		f.IntervalsPerYear = 48
	}
	if f.Seed == 0 {
		f.Seed = 1
	}
	covered := func(n string) bool { return f.Coverage == nil || slices.Contains(f.Coverage, n) }

	in := &sim.Inputs{
		Resolution: sim.HoursPerYear / float64(f.IntervalsPerYear),
		FirstYear:  2013,
		Efficiency: 0.8,
		Legs:       Legs(),
		Junction:   "MP",
		Costs: sim.CostFactors{
			PV: 0.6, Import: 0.08, StoragePower: 0.1, StorageEnergy: 0.005,
			StorageVOM: 0.0005, Hydro: 0.05, SolarConnection: 0.03,
			Transmission: map[string]float64{},
		},
		ImportEnabled: f.Import,
		ExportEnabled: f.Export,
	}
	for _, l := range in.Legs {
		in.Costs.Transmission[l.Name] = 0.02
	}
	for _, n := range Nodes {
		if covered(n) {
			in.Nodes = append(in.Nodes, n)
		}
	}
	for _, n := range ZoneNodes {
		if covered(n) {
			in.ZoneNodes = append(in.ZoneNodes, n)
		}
	}
	for _, n := range InterconnectionNodes {
		if covered(n) {
			in.InterconnectionNodes = append(in.InterconnectionNodes, n)
		}
	}

	rng := rand.New(rand.NewSource(f.Seed))
	intervals := f.Years * f.IntervalsPerYear
	nodes, zones := len(in.Nodes), len(in.ZoneNodes)
	in.Demand = mat.NewDense(intervals, nodes, nil)
	in.Baseload = mat.NewDense(intervals, nodes, nil)
	in.Peaking = mat.NewDense(intervals, nodes, nil)
	in.SolarTrace = mat.NewDense(intervals, zones, nil)
	for ti := 0; ti < intervals; ti++ {
		hour := ti % 24
		for j, n := range in.Nodes {
			scale := 50.0 * float64(slices.Index(Nodes, n)+1)
			in.Demand.Set(ti, j, scale*(1+0.3*math.Sin(2*math.Pi*float64(hour)/24))+10*rng.Float64())
			if isDomestic(n) {
				in.Baseload.Set(ti, j, 10)
				if hour >= 18 && hour < 22 {
					in.Peaking.Set(ti, j, 5)
				}
			}
		}
		for z := range in.ZoneNodes {
			cf := math.Max(0, math.Sin(math.Pi*float64(hour-6)/12))
			in.SolarTrace.Set(ti, z, cf*(0.8+0.1*float64(z%3)))
		}
	}

	for range in.ZoneNodes {
		in.Bounds.Lower = append(in.Bounds.Lower, 0.001)
		in.Bounds.Upper = append(in.Bounds.Upper, 20)
	}
	for _, n := range in.Nodes {
		in.Bounds.Lower = append(in.Bounds.Lower, 0)
		ub := 0.0
		if isDomestic(n) {
			ub = 50
		}
		in.Bounds.Upper = append(in.Bounds.Upper, ub)
	}
	in.Bounds.Lower = append(in.Bounds.Lower, 0)
	in.Bounds.Upper = append(in.Bounds.Upper, 10000)
	for range in.InterconnectionNodes {
		in.Bounds.Lower = append(in.Bounds.Lower, 0)
		in.Bounds.Upper = append(in.Bounds.Upper, 500)
	}

	if err := in.Finalize(); err != nil {
		t.Fatalf("finalizing fixture: %v", err)
	}
	annual := sim.AnnualTotals(in.TotalDemand(), in.IntervalsPerYear)
	in.Allowance = 0.00002 * slices.Min(annual) * in.Resolution
	return in
}

func isDomestic(n string) bool {
	return !slices.Contains(InterconnectionNodes, n)
}

// Vector builds a decision vector with the same capacity in every slot of a
// block: solar GW per zone, storage GW per node, storage GWh and
// interconnection GW per interconnection.
func Vector(in *sim.Inputs, solar, storagePower, storageEnergy, inter float64) []float64 {
	x := make([]float64, 0, in.DecisionLength())
	for range in.ZoneNodes {
		x = append(x, solar)
	}
	for range in.Nodes {
		x = append(x, storagePower)
	}
	x = append(x, storageEnergy)
	for range in.InterconnectionNodes {
		x = append(x, inter)
	}
	return x
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t testing.TB, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
