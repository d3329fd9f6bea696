package search

import (
	"fmt"
	"math"
)

// Config controls a differential evolution run.
type Config struct {
	MaxIter       int     // generations after the initial population
	PopSize       int     // population members per decision variable
	Mutation      float64 // differential weight F, in [0, 2]
	Recombination float64 // crossover probability CR, in [0, 1]
	Tol           float64 // relative convergence tolerance on population energies
	Atol          float64 // absolute convergence tolerance
	Seed          int64
	Workers       int // concurrent evaluations; <= 0 means available parallelism
}

// DefaultConfig mirrors the command line defaults.
func DefaultConfig() Config {
	return Config{
		MaxIter:       400,
		PopSize:       2,
		Mutation:      0.5,
		Recombination: 0.3,
		Seed:          42,
	}
}

// Validate rejects settings the algorithm cannot run with.
func (c Config) Validate() error {
	if c.MaxIter < 0 {
		return fmt.Errorf("maxiter must be non-negative, got %d", c.MaxIter)
	}
	if c.PopSize <= 0 {
		return fmt.Errorf("popsize must be positive, got %d", c.PopSize)
	}
	if c.Mutation < 0 || c.Mutation > 2 || math.IsNaN(c.Mutation) {
		return fmt.Errorf("mutation must be in [0, 2], got %g", c.Mutation)
	}
	if c.Recombination < 0 || c.Recombination > 1 || math.IsNaN(c.Recombination) {
		return fmt.Errorf("recombination must be in [0, 1], got %g", c.Recombination)
	}
	if c.Tol < 0 || c.Atol < 0 {
		return fmt.Errorf("tolerances must be non-negative, got tol=%g atol=%g", c.Tol, c.Atol)
	}
	return nil
}
