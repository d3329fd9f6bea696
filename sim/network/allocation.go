package network

import (
	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
)

// spillageFloor keeps spillage divisible between nodes when no solar runs.
const spillageFloor = 1e-9

// Components of a node's balance, in Mix column order.
const (
	Load = iota
	Solar
	Baseload
	Peaking
	Import
	Export
	Discharge
	Charge
	Storage
	Deficit
	Spillage
	numComponents
)

// ComponentNames labels the Mix components.
var ComponentNames = [numComponents]string{
	"load", "solar", "baseload", "peaking", "import", "export",
	"discharge", "charge", "storage", "deficit", "spillage",
}

// allocator splits the pooled quantities of a simulation result between the
// covered nodes. Storage follows the share of installed storage power,
// deficit follows load, spillage follows solar output and cross-border
// energy follows interconnection capacity. Imports injected without any
// interconnection capacity go evenly to the interconnection nodes, or follow
// load when none is covered.
type allocator struct {
	in  *sim.Inputs
	c   *sim.Candidate
	res *sim.Result

	storageShare []float64
	importShare  []float64
	importByLoad bool // no interconnection node to receive imports

	// per-interval scratch, indexed by component then covered node
	parts [numComponents][]float64
	share []float64
}

func newAllocator(c *sim.Candidate) *allocator {
	in := c.Inputs()
	n := len(in.Nodes)
	a := &allocator{
		in:           in,
		c:            c,
		res:          c.Result,
		storageShare: make([]float64, n),
		importShare:  make([]float64, n),
	}
	if total := floats.Sum(c.StoragePowerGW); total != 0 {
		for j, p := range c.StoragePowerGW {
			a.storageShare[j] = p / total
		}
	}
	switch total := floats.Sum(c.InterconnectionGW); {
	case total != 0:
		for k, p := range c.InterconnectionGW {
			a.importShare[in.NodeIndex(in.InterconnectionNodes[k])] += p / total
		}
	case len(in.InterconnectionNodes) > 0:
		for _, node := range in.InterconnectionNodes {
			a.importShare[in.NodeIndex(node)] += 1 / float64(len(in.InterconnectionNodes))
		}
	default:
		a.importByLoad = true
	}
	for k := range a.parts {
		a.parts[k] = make([]float64, n)
	}
	return a
}

// at fills a.parts for window offset i. When domesticOnly is false the
// exported share of spillage is moved from the generating nodes to the
// interconnection nodes.
func (a *allocator) at(i int, domesticOnly bool) {
	in, res := a.in, a.res
	t := res.Window.Start + i
	for k := range a.parts {
		for j := range a.parts[k] {
			a.parts[k][j] = 0
		}
	}

	load := a.parts[Load]
	copy(load, in.Demand.RawRowView(t))
	copy(a.parts[Baseload], in.Baseload.RawRowView(t))

	solar := a.parts[Solar]
	for z, node := range in.ZoneNodes {
		solar[in.NodeIndex(node)] += in.SolarTrace.At(t, z) * a.c.SolarGW[z] * 1e3
	}

	totalLoad := in.TotalDemand()[t]
	peak := a.parts[Peaking]
	if total := in.TotalPeaking()[t]; total > 0 {
		row := in.Peaking.RawRowView(t)
		for j := range peak {
			peak[j] = res.Peaking[i] * row[j] / total
		}
	} else if totalLoad > 0 {
		for j := range peak {
			peak[j] = res.Peaking[i] * load[j] / totalLoad
		}
	}

	spillWeight := 0.0
	for j := range solar {
		spillWeight += solar[j] + spillageFloor
	}
	exported := 0.0
	if !domesticOnly {
		exported = res.Export[i]
	}
	local := res.Spillage[i] - exported

	importShare := a.importShare
	if a.importByLoad {
		importShare = a.loadShare(load, totalLoad)
	}
	for j := range load {
		a.parts[Discharge][j] = res.Discharge[i] * a.storageShare[j]
		a.parts[Charge][j] = res.Charge[i] * a.storageShare[j]
		a.parts[Storage][j] = res.Storage[i] * a.storageShare[j]
		a.parts[Import][j] = res.Imports[i] * importShare[j]
		a.parts[Export][j] = exported * a.importShare[j]
		a.parts[Spillage][j] = local * (solar[j] + spillageFloor) / spillWeight
		if totalLoad > 0 {
			a.parts[Deficit][j] = res.Deficit[i] * load[j] / totalLoad
		}
	}
}

// loadShare returns each node's share of totalLoad, or an even split when
// there is no load. It reuses a.share.
func (a *allocator) loadShare(load []float64, totalLoad float64) []float64 {
	if a.share == nil {
		a.share = make([]float64, len(load))
	}
	for j := range load {
		if totalLoad > 0 {
			a.share[j] = load[j] / totalLoad
		} else {
			a.share[j] = 1 / float64(len(load))
		}
	}
	return a.share
}

// imbalance writes the net import each covered node needs at the interval
// last passed to at: consumption (load, charging, spillage, export) minus
// local supply.
func (a *allocator) imbalance(out []float64) {
	p := a.parts
	for j := range out {
		out[j] = p[Load][j] + p[Charge][j] + p[Spillage][j] + p[Export][j] -
			p[Solar][j] - p[Baseload][j] - p[Peaking][j] - p[Discharge][j] - p[Deficit][j] - p[Import][j]
	}
}
