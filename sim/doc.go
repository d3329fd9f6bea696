// Package sim provides the core reliability simulation of firm-sim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - config.go: Inputs, the immutable description of demand, generation traces, topology and costs
//   - candidate.go: Candidate, one decision vector split into capacity blocks
//   - reliability.go: Simulate, the sequential pooled-storage recurrence over a window
//
// # Architecture
//
// The sim package defines the shared data types and the recurrence;
// everything built on top of a simulation lives in sub-packages:
//   - sim/network/: leaf-to-junction flow decomposition over the radial network
//   - sim/objective/: fitness and cost of a decision vector
//   - sim/fill/: backward deficit filling with imports and the convergence loop
//   - sim/dispatch/: per-year flexible import dispatch
//   - sim/search/: differential evolution over the objective
//   - sim/audit/: append-only evaluation log
//   - sim/dataset/: scenario and CSV loading
//   - sim/report/: checks, cost breakdown and generation mix exports
//
// # Units
//
// Decision vectors are in GW and GWh. Every time series is in MW per
// interval and every stored quantity in MWh; Resolution converts between the
// two.
//
// # Errors
//
// Postcondition failures are returned as *InvariantError and always indicate
// a programming error. Infeasible candidates are not errors: the objective
// turns them into penalties.
package sim
