// Package network resolves pooled simulation results into flows on the fixed
// radial transmission network.
//
// The topology is data: a list of legs (From, To) over node ids, rooted at a
// junction node. Flows are found by substitution from the leaves toward the
// junction, each leg carrying the cumulative imbalance of everything beyond it.
// The junction is reached from every direction, so the imbalance left over
// there is an independent consistency check on the allocation.
package network

import (
	"fmt"

	"github.com/firm-sim/firm-sim/sim"
)

// substitution is one step of the leaf-to-junction walk: the subtree rooted
// at node is resolved and its cumulative imbalance is carried on leg toward
// parent.
type substitution struct {
	node   int // index into Topology.nodes
	parent int
	leg    int
	sign   float64 // +1 when the leg points into node's subtree
}

// Topology is a validated radial network.
type Topology struct {
	legs     []sim.Leg
	nodes    []string
	junction int
	order    []substitution // children always precede their parents
	covered  []int          // per topology node: column in sim.Inputs, or -1
}

// NewTopology validates in.Legs as a tree rooted at in.Junction.
// Nodes that appear in legs but not in in.Nodes are outside the coverage and
// carry no imbalance.
func NewTopology(in *sim.Inputs) (*Topology, error) {
	tp := &Topology{legs: in.Legs}
	index := map[string]int{}
	add := func(id string) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(tp.nodes)
		tp.nodes = append(tp.nodes, id)
		return index[id]
	}
	for _, n := range in.Nodes {
		add(n)
	}

	adj := make(map[int][]int) // node -> leg indices
	for k, l := range in.Legs {
		if l.From == l.To {
			return nil, fmt.Errorf("leg %q connects node %q to itself", l.Name, l.From)
		}
		a, b := add(l.From), add(l.To)
		adj[a] = append(adj[a], k)
		adj[b] = append(adj[b], k)
	}

	if len(in.Legs) == 0 {
		if len(tp.nodes) > 1 {
			return nil, fmt.Errorf("%d nodes but no legs", len(tp.nodes))
		}
	} else if len(in.Legs) != len(tp.nodes)-1 {
		return nil, fmt.Errorf("%d legs over %d nodes is not a tree", len(in.Legs), len(tp.nodes))
	}

	root, ok := index[in.Junction]
	if !ok {
		if len(in.Legs) > 0 {
			return nil, fmt.Errorf("junction %q is not a network node", in.Junction)
		}
		root = 0
	}
	tp.junction = root

	// Depth-first from the junction, then reverse to get leaves first.
	visited := make([]bool, len(tp.nodes))
	visited[root] = true
	stack := []int{root}
	var walk []substitution
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, k := range adj[u] {
			l := in.Legs[k]
			v, sign := index[l.To], 1.0
			if v == u {
				v, sign = index[l.From], -1.0
			}
			if visited[v] {
				continue
			}
			visited[v] = true
			walk = append(walk, substitution{node: v, parent: u, leg: k, sign: sign})
			stack = append(stack, v)
		}
	}
	for i, seen := range visited {
		if !seen {
			return nil, fmt.Errorf("node %q is not connected to junction %q", tp.nodes[i], tp.nodes[root])
		}
	}
	for i := len(walk) - 1; i >= 0; i-- {
		tp.order = append(tp.order, walk[i])
	}

	tp.covered = make([]int, len(tp.nodes))
	for i, id := range tp.nodes {
		tp.covered[i] = in.NodeIndex(id)
	}
	return tp, nil
}

// Legs returns the legs in flow-column order.
func (tp *Topology) Legs() []sim.Leg { return tp.legs }

// Junction returns the node where the substitution paths meet.
func (tp *Topology) Junction() string { return tp.nodes[tp.junction] }

// LegNames returns the leg names in flow-column order.
func (tp *Topology) LegNames() []string {
	names := make([]string, len(tp.legs))
	for k, l := range tp.legs {
		names[k] = l.Name
	}
	return names
}

// solve fills flows (one per leg) from per-node imbalances indexed like
// tp.nodes and returns the residual left at the junction. need is used as
// scratch space and is overwritten.
func (tp *Topology) solve(need, flows []float64) float64 {
	for _, s := range tp.order {
		flows[s.leg] = s.sign * need[s.node]
		need[s.parent] += need[s.node]
	}
	return need[tp.junction]
}
