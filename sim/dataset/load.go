package dataset

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/firm-sim/firm-sim/sim"
)

// Row labels of the cost factor file.
const (
	factorPV           = "PV"
	factorImport       = "India"
	factorStoragePower = "PHP"
	factorStorageEnerg = "PHS"
	factorStorageVOM   = "PHES-VOM"
	factorConnection   = "ACPV"
	factorHydro        = "Hydro"
)

// Options select the data files and the simulated subset.
type Options struct {
	DataDir   string
	Scenario  string // asset scenario: existing, construction, all
	PerCapita int    // demand scenario, MWh per person per year
	Coverage  string // coverage preset of the Scenario
	Import    bool
	Export    bool
}

// Suffix names the results of a run, e.g. "_Super_existing_2_true_false".
func (o Options) Suffix() string {
	return fmt.Sprintf("_%s_%s_%d_%t_%t", o.Coverage, o.Scenario, o.PerCapita, o.Import, o.Export)
}

// Load reads the data files for opt and returns finalized inputs restricted
// to the coverage preset.
func Load(sc *Scenario, opt Options) (*sim.Inputs, error) {
	covered, preset, err := sc.Covered(opt.Coverage)
	if err != nil {
		return nil, err
	}
	file := func(name string) string { return filepath.Join(opt.DataDir, name) }

	demand, err := readSeries(file(fmt.Sprintf("electricity%d.csv", opt.PerCapita)), len(sc.Nodes))
	if err != nil {
		return nil, err
	}
	solar, err := readSeries(file("pv.csv"), len(sc.SolarZones))
	if err != nil {
		return nil, err
	}
	profiles, err := readSeries(file(fmt.Sprintf("RoR_%s.csv", opt.Scenario)), len(sc.Nodes))
	if err != nil {
		return nil, err
	}
	assets, err := readTable(file(fmt.Sprintf("assets_%s.csv", opt.Scenario)))
	if err != nil {
		return nil, err
	}
	constraints, err := readTable(file(fmt.Sprintf("constraints_%s.csv", opt.Scenario)))
	if err != nil {
		return nil, err
	}
	factors, err := readFactors(file("factor_hvac.csv"))
	if err != nil {
		return nil, err
	}
	if len(assets) != len(sc.Nodes) {
		return nil, fmt.Errorf("assets_%s.csv has %d rows, want one per node (%d)", opt.Scenario, len(assets), len(sc.Nodes))
	}
	for i, row := range assets {
		if len(row) < 3 {
			return nil, fmt.Errorf("assets_%s.csv row %d: want max, run-of-river and peaking capacity", opt.Scenario, i+2)
		}
	}

	baseload, peaking := hydro(sc, profiles, assets)

	in := &sim.Inputs{
		Resolution:    sc.Resolution,
		FirstYear:     sc.FirstYear,
		Efficiency:    sc.Efficiency,
		Junction:      sc.Junction,
		ImportEnabled: opt.Import,
		ExportEnabled: opt.Export,
	}

	var nodeCols []int
	for j, n := range sc.Nodes {
		if slices.Contains(covered, n) {
			nodeCols = append(nodeCols, j)
			in.Nodes = append(in.Nodes, n)
			in.HydroCapacityGW += assets[j][0] * 1e-3
		}
	}
	var zoneCols []int
	for z, zone := range sc.SolarZones {
		if slices.Contains(covered, zone.Node) {
			zoneCols = append(zoneCols, z)
			in.ZoneNodes = append(in.ZoneNodes, zone.Node)
			in.Bounds.Lower = append(in.Bounds.Lower, sc.SolarLower)
			in.Bounds.Upper = append(in.Bounds.Upper, zone.Upper)
		}
	}
	for _, n := range in.Nodes {
		in.Bounds.Lower = append(in.Bounds.Lower, 0)
		in.Bounds.Upper = append(in.Bounds.Upper, sc.Storage.PowerUpper[n])
	}
	in.Bounds.Lower = append(in.Bounds.Lower, 0)
	in.Bounds.Upper = append(in.Bounds.Upper, sc.Storage.EnergyUpper)
	if preset.Interconnections {
		for _, ic := range sc.Interconnections {
			if slices.Contains(covered, ic.Node) {
				in.InterconnectionNodes = append(in.InterconnectionNodes, ic.Node)
				in.Bounds.Lower = append(in.Bounds.Lower, 0)
				in.Bounds.Upper = append(in.Bounds.Upper, ic.Upper)
			}
		}
	}

	in.Demand = columns(demand, nodeCols)
	in.SolarTrace = columns(solar, zoneCols)
	in.Baseload = columns(baseload, nodeCols)
	in.Peaking = columns(peaking, nodeCols)

	for _, row := range constraints {
		in.HydroEnergyLimit += row[0] * 1e3
	}

	in.Costs = sim.CostFactors{
		PV:              factors[factorPV],
		Import:          factors[factorImport],
		StoragePower:    factors[factorStoragePower],
		StorageEnergy:   factors[factorStorageEnerg],
		StorageVOM:      factors[factorStorageVOM],
		Hydro:           factors[factorHydro],
		SolarConnection: factors[factorConnection],
		Transmission:    map[string]float64{},
	}
	for _, l := range sc.Legs {
		in.Legs = append(in.Legs, sim.Leg{
			Name:       l.Name,
			From:       l.From,
			To:         l.To,
			LossFactor: l.Distance * sc.LossPerKm[l.Type] * 1e-3,
		})
		cost, ok := factors[l.Name]
		if !ok {
			logrus.Warnf("factor_hvac.csv has no factor for leg %s; its transmission is free", l.Name)
		}
		in.Costs.Transmission[l.Name] = cost
	}

	if err := in.Finalize(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", opt.Suffix(), err)
	}
	annual := sim.AnnualTotals(in.TotalDemand(), in.IntervalsPerYear)
	in.Allowance = sc.Allowance * floats.Min(annual) * in.Resolution

	logrus.Infof("loaded %d intervals (%d years) over %d nodes, %d solar zones, %d interconnections",
		in.Intervals(), in.Years, len(in.Nodes), len(in.ZoneNodes), len(in.InterconnectionNodes))
	return in, nil
}

// hydro splits the run-of-river profiles into baseload, capped at the
// run-of-river capacity, and peaking: the excess up to the peaking capacity,
// released only inside the daily peaking window.
func hydro(sc *Scenario, profiles *mat.Dense, assets [][]float64) (baseload, peaking *mat.Dense) {
	r, c := profiles.Dims()
	baseload = mat.NewDense(r, c, nil)
	peaking = mat.NewDense(r, c, nil)
	for t := 0; t < r; t++ {
		hour := int(float64(t)*sc.Resolution) % 24
		window := hour >= sc.Peaking.Start && hour < sc.Peaking.Start+sc.Peaking.Hours
		for j := 0; j < c; j++ {
			p := profiles.At(t, j)
			b := min(p, assets[j][1])
			baseload.Set(t, j, b)
			if limit := assets[j][2]; window && limit > 0 {
				peaking.Set(t, j, max(0, min(p-b, limit)))
			}
		}
	}
	return baseload, peaking
}

// columns copies the selected columns of m, or returns nil when none are selected.
func columns(m *mat.Dense, cols []int) *mat.Dense {
	if len(cols) == 0 {
		return nil
	}
	r, _ := m.Dims()
	out := mat.NewDense(r, len(cols), nil)
	for k, j := range cols {
		out.SetCol(k, mat.Col(nil, j, m))
	}
	return out
}
