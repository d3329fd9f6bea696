package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/network"
)

// timeLayout renders interval timestamps, e.g. "Tue 1 Jan 2013 00:00".
const timeLayout = "Mon 2 Jan 2006 15:04"

// Analysis is a simulated candidate with its resolved network.
type Analysis struct {
	Candidate *sim.Candidate
	Flows     *network.FlowResult // carries the per-node Mix
	Warnings  []Warning
	Summary   Summary
}

// Analyse simulates x over the full horizon with the given import schedule,
// resolves domestic flows with the per-node mix, checks the result and
// summarises it.
func Analyse(in *sim.Inputs, x, imports []float64) (*Analysis, error) {
	tp, err := network.NewTopology(in)
	if err != nil {
		return nil, err
	}
	c, err := sim.NewCandidate(in, x)
	if err != nil {
		return nil, err
	}
	if _, err := sim.Simulate(c, imports, in.TotalPeaking(), sim.FullHorizon(in)); err != nil {
		return nil, err
	}
	flows, err := tp.DecomposeWithMix(c, true)
	if err != nil {
		return nil, err
	}
	warnings, err := Check(c)
	if err != nil {
		return nil, err
	}
	var priced *network.FlowResult
	if in.Networked() {
		priced = flows
	}
	return &Analysis{
		Candidate: c,
		Flows:     flows,
		Warnings:  warnings,
		Summary:   Summarise(c, priced),
	}, nil
}

// timestamps labels the intervals of the analysed window.
func (a *Analysis) timestamps() []string {
	in := a.Candidate.Inputs()
	start := time.Date(in.FirstYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	step := time.Duration(in.Resolution * float64(time.Hour))
	w := a.Candidate.Result.Window
	out := make([]string, w.Len())
	for i := range out {
		out[i] = start.Add(time.Duration(w.Start+i) * step).Format(timeLayout)
	}
	return out
}

// WriteMix writes the system load profile and generation mix: one row per
// interval with pooled components and the flow on every leg, rounded to MW.
func WriteMix(w io.Writer, a *Analysis) error {
	res := a.Candidate.Result
	mix := a.Flows.Mix
	header := []string{
		"Date & time", "Operational demand (MW)", "RoR hydropower (MW)", "Peaking hydropower (MW)",
		"Imports (MW)", "Solar photovoltaics (MW)", "PHES-Discharge (MW)", "Energy deficit (MW)",
		"Exports (MW)", "Spillage (MW)", "PHES-Charge (MW)", "PHES-Storage (MWh)",
	}
	for _, l := range a.Flows.Legs {
		header = append(header, l.Name)
	}
	times := a.timestamps()
	rows := make([][]float64, len(times))
	for i := range rows {
		rows[i] = []float64{
			rowSum(mix, network.Load, i),
			rowSum(mix, network.Baseload, i),
			res.Peaking[i],
			res.Imports[i],
			rowSum(mix, network.Solar, i),
			res.Discharge[i],
			res.Deficit[i],
			res.Export[i],
			-res.Spillage[i],
			-res.Charge[i],
			res.Storage[i],
		}
		if a.Flows.Flows != nil {
			rows[i] = append(rows[i], a.Flows.Flows.RawRowView(i)...)
		} else {
			rows[i] = append(rows[i], make([]float64, len(a.Flows.Legs))...)
		}
	}
	return writeRounded(w, header, times, rows)
}

// WriteNodeMix writes the mix of one covered node, including its net
// transmission inflow.
func WriteNodeMix(w io.Writer, a *Analysis, node string) error {
	mix := a.Flows.Mix
	j := -1
	for k, n := range mix.Nodes {
		if n == node {
			j = k
		}
	}
	if j < 0 {
		return fmt.Errorf("node %q is not covered", node)
	}
	header := []string{
		"Date & time", "Operational demand (MW)", "RoR hydropower (MW)", "Peaking hydropower (MW)",
		"Imports (MW)", "Solar photovoltaics (MW)", "PHES-Discharge (MW)", "Energy deficit (MW)",
		"Exports (MW)", "Spillage (MW)", "Transmission (MW)", "PHES-Charge (MW)", "PHES-Storage (MWh)",
	}
	transmission := a.Flows.NodeNetFlow(node)
	times := a.timestamps()
	at := func(k, i int) float64 { return mix.Components[k].At(i, j) }
	rows := make([][]float64, len(times))
	for i := range rows {
		rows[i] = []float64{
			at(network.Load, i),
			at(network.Baseload, i),
			at(network.Peaking, i),
			at(network.Import, i),
			at(network.Solar, i),
			at(network.Discharge, i),
			at(network.Deficit, i),
			at(network.Export, i),
			-at(network.Spillage, i),
			transmission[i],
			-at(network.Charge, i),
			at(network.Storage, i),
		}
	}
	return writeRounded(w, header, times, rows)
}

func rowSum(mix *network.Mix, component, i int) float64 {
	return floats.Sum(mix.Components[component].RawRowView(i))
}

func writeRounded(w io.Writer, header, times []string, rows [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range rows {
		fields := make([]string, 0, len(row)+1)
		fields = append(fields, times[i])
		for _, v := range row {
			// Adding zero folds -0 into 0.
			fields = append(fields, strconv.FormatFloat(math.Round(v)+0, 'f', -1, 64))
		}
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
