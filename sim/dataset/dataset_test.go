package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoNodeScenario = `
nodes: [A, B, X]
junction: A
resolution: 730
first_year: 2013
efficiency: 0.8
allowance_fraction: 0.01
peaking: {start: 18, hours: 4}
solar_lower: 0.001
solar_zones:
  - {node: A, upper: 5}
  - {node: B, upper: 7}
storage:
  power_upper: {A: 2, B: 3}
  energy_upper: 100
interconnections:
  - {node: X, upper: 50}
loss_per_km: {ac: 0.07, dc: 0.03}
legs:
  - {name: AB, from: A, to: B, km: 100, type: ac}
  - {name: XA, from: X, to: A, km: 10, type: dc}
coverage:
  Super: {interconnections: true}
  BOnly: {nodes: [B]}
`

// writeData creates two years of twelve intervals for the scenario above.
func writeData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, lines []string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	}
	series := func(values func(t int) string) []string {
		lines := []string{"Year,Month,Day,Interval,c1,c2,c3"}
		for ti := 0; ti < 24; ti++ {
			lines = append(lines, fmt.Sprintf("%d,1,1,%d,%s", 2013+ti/12, ti%12, values(ti)))
		}
		return lines
	}
	write("electricity2.csv", series(func(ti int) string { return fmt.Sprintf("%d,200,50", 100+ti) }))
	write("pv.csv", series(func(int) string { return "0.5,0.25" }))
	write("RoR_existing.csv", series(func(int) string { return "30,0,0" }))
	write("assets_existing.csv", []string{
		"Node,Name,Type,Max,RoR,Peaking",
		"A,a,hydro,40,20,5",
		"B,b,hydro,0,0,0",
		"X,x,hydro,0,0,0",
	})
	write("constraints_existing.csv", []string{
		"Node,Name,Type,Energy",
		"A,a,hydro,12",
		"B,b,hydro,3",
	})
	write("factor_hvac.csv", []string{
		"PV,1.5", "India,0.08", "PHP,0.1", "PHS,0.01", "PHES-VOM,0.002",
		"AB,0.3", "XA,0.2", "ACPV,0.05", "Hydro,0.04",
	})
	return dir
}

func TestLoad_FullCoverage(t *testing.T) {
	// GIVEN the three-node scenario and its data files
	sc, err := ParseScenario([]byte(twoNodeScenario))
	require.NoError(t, err)
	dir := writeData(t)

	// WHEN loaded with every node
	in, err := Load(sc, Options{DataDir: dir, Scenario: "existing", PerCapita: 2, Coverage: "Super", Import: true})
	require.NoError(t, err)

	// THEN shapes and derived quantities follow the files
	assert.Equal(t, []string{"A", "B", "X"}, in.Nodes)
	assert.Equal(t, 12, in.IntervalsPerYear)
	assert.Equal(t, 2, in.Years)
	assert.Equal(t, []string{"X"}, in.InterconnectionNodes)
	assert.Equal(t, []float64{0.001, 0.001, 0, 0, 0, 0, 0}, in.Bounds.Lower)
	assert.Equal(t, []float64{5, 7, 2, 3, 0, 100, 50}, in.Bounds.Upper)
	assert.InDelta(t, 100*0.07*1e-3, in.Legs[0].LossFactor, 1e-15)
	assert.InDelta(t, 10*0.03*1e-3, in.Legs[1].LossFactor, 1e-15)
	assert.Equal(t, 0.3, in.Costs.Transmission["AB"])
	assert.Equal(t, 0.08, in.Costs.Import)
	assert.InDelta(t, 0.04, in.HydroCapacityGW, 1e-12)
	assert.InDelta(t, 15000, in.HydroEnergyLimit, 1e-9)
	assert.True(t, in.ImportEnabled)
	assert.False(t, in.ExportEnabled)

	// AND the allowance is the fraction of the smaller annual demand
	var year0 float64
	for ti := 0; ti < 12; ti++ {
		year0 += float64(100+ti) + 250
	}
	assert.InDelta(t, 0.01*year0*730, in.Allowance, 1e-6)
}

func TestLoad_HydroSplitsBaseloadAndPeaking(t *testing.T) {
	sc, err := ParseScenario([]byte(twoNodeScenario))
	require.NoError(t, err)
	in, err := Load(sc, Options{DataDir: writeData(t), Scenario: "existing", PerCapita: 2, Coverage: "Super"})
	require.NoError(t, err)

	// Interval 2 starts at hour 1460, 20:00 of its day; interval 0 at midnight.
	assert.Equal(t, 20.0, in.Baseload.At(0, 0))
	assert.Equal(t, 0.0, in.Peaking.At(0, 0))
	assert.Equal(t, 5.0, in.Peaking.At(2, 0))
	assert.Equal(t, 5.0, in.Peaking.At(9, 0))
	assert.Equal(t, 0.0, in.Peaking.At(2, 1), "no peaking capacity at B")
}

func TestLoad_CoverageSubset(t *testing.T) {
	sc, err := ParseScenario([]byte(twoNodeScenario))
	require.NoError(t, err)

	in, err := Load(sc, Options{DataDir: writeData(t), Scenario: "existing", PerCapita: 2, Coverage: "BOnly"})
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, in.Nodes)
	assert.Equal(t, []string{"B"}, in.ZoneNodes)
	assert.Empty(t, in.InterconnectionNodes)
	assert.Equal(t, 200.0, in.Demand.At(5, 0))
	assert.Equal(t, 0.25, in.SolarTrace.At(0, 0))
	assert.False(t, in.Networked())
}

func TestLoad_Errors(t *testing.T) {
	sc, err := ParseScenario([]byte(twoNodeScenario))
	require.NoError(t, err)
	dir := writeData(t)

	_, err = Load(sc, Options{DataDir: dir, Scenario: "existing", PerCapita: 2, Coverage: "Nowhere"})
	assert.ErrorContains(t, err, "undefined network structure")

	_, err = Load(sc, Options{DataDir: dir, Scenario: "existing", PerCapita: 9, Coverage: "Super"})
	assert.ErrorContains(t, err, "electricity9.csv")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pv.csv"), []byte("h1,h2,h3,h4,z1\n2013,1,1,0,0.5\n"), 0o644))
	_, err = Load(sc, Options{DataDir: dir, Scenario: "existing", PerCapita: 2, Coverage: "Super"})
	assert.ErrorContains(t, err, "pv.csv")
}

func TestOptions_Suffix(t *testing.T) {
	o := Options{Coverage: "Super", Scenario: "existing", PerCapita: 2, Import: true}
	assert.Equal(t, "_Super_existing_2_true_false", o.Suffix())
}
