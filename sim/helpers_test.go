package sim

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// singleNode builds one year of hourly inputs for one node "N" without solar
// zones or interconnections. demand and baseload fill the first intervals;
// the rest of the year is zero.
func singleNode(t *testing.T, demand, baseload []float64) *Inputs {
	t.Helper()
	in := &Inputs{
		Resolution: 1,
		FirstYear:  2013,
		Nodes:      []string{"N"},
		Demand:     mat.NewDense(HoursPerYear, 1, nil),
		Baseload:   mat.NewDense(HoursPerYear, 1, nil),
		Efficiency: 0.8,
	}
	for i, v := range demand {
		in.Demand.Set(i, 0, v)
	}
	for i, v := range baseload {
		in.Baseload.Set(i, 0, v)
	}
	if err := in.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return in
}

// twoNodes builds one year over nodes A and B with one solar zone each and
// one interconnection at B. Demand and solar follow a daily shape.
func twoNodes(t *testing.T, export bool) *Inputs {
	t.Helper()
	in := &Inputs{
		Resolution:           1,
		FirstYear:            2013,
		Nodes:                []string{"A", "B"},
		ZoneNodes:            []string{"A", "B"},
		InterconnectionNodes: []string{"B"},
		Demand:               mat.NewDense(HoursPerYear, 2, nil),
		SolarTrace:           mat.NewDense(HoursPerYear, 2, nil),
		Efficiency:           0.8,
		ExportEnabled:        export,
		Legs:                 []Leg{{Name: "AB", From: "A", To: "B", LossFactor: 0.01}},
		Junction:             "A",
	}
	for ti := 0; ti < HoursPerYear; ti++ {
		h := float64(ti % 24)
		in.Demand.Set(ti, 0, 100+5*h)
		in.Demand.Set(ti, 1, float64(60+ti%7))
		if h >= 6 && h < 18 {
			in.SolarTrace.Set(ti, 0, (h-5)/12)
			in.SolarTrace.Set(ti, 1, (18-h)/12)
		}
	}
	if err := in.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return in
}
