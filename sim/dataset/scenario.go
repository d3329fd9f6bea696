// Package dataset builds sim.Inputs from a network scenario file and the CSV
// time series and asset tables that describe demand, solar and hydro.
package dataset

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is the static description of the network, loaded from YAML via
// LoadScenario(path).
type Scenario struct {
	Nodes      []string    `yaml:"nodes"`
	Junction   string      `yaml:"junction"`
	Resolution float64     `yaml:"resolution"` // hours per interval
	FirstYear  int         `yaml:"first_year"`
	Efficiency float64     `yaml:"efficiency"` // storage round trip
	Allowance  float64     `yaml:"allowance_fraction"`
	Peaking    PeakingSpec `yaml:"peaking"`

	SolarZones       []ZoneSpec              `yaml:"solar_zones"`
	SolarLower       float64                 `yaml:"solar_lower"`
	Storage          StorageSpec             `yaml:"storage"`
	Interconnections []InterconnectionSpec   `yaml:"interconnections"`
	Legs             []LegSpec               `yaml:"legs"`
	LossPerKm        map[string]float64      `yaml:"loss_per_km"` // per line type, fraction per 1000 km
	Coverage         map[string]CoverageSpec `yaml:"coverage"`
}

// PeakingSpec is the daily window in which hydro above run-of-river output is dispatched.
type PeakingSpec struct {
	Start int `yaml:"start"` // hour of day
	Hours int `yaml:"hours"`
}

// ZoneSpec is one solar zone.
type ZoneSpec struct {
	Node  string  `yaml:"node"`
	Upper float64 `yaml:"upper"` // GW
}

// StorageSpec bounds pumped hydro storage.
type StorageSpec struct {
	PowerUpper  map[string]float64 `yaml:"power_upper"`  // GW per node; absent nodes get 0
	EnergyUpper float64            `yaml:"energy_upper"` // GWh, pooled
}

// InterconnectionSpec is one cross-border link.
type InterconnectionSpec struct {
	Node  string  `yaml:"node"`
	Upper float64 `yaml:"upper"` // GW
}

// LegSpec is one transmission leg. Positive flow runs From -> To.
type LegSpec struct {
	Name     string  `yaml:"name"`
	From     string  `yaml:"from"`
	To       string  `yaml:"to"`
	Distance float64 `yaml:"km"`
	Type     string  `yaml:"type"` // key of LossPerKm
}

// CoverageSpec is a named subset of nodes to simulate.
type CoverageSpec struct {
	Nodes            []string `yaml:"nodes"` // empty means every node
	Interconnections bool     `yaml:"interconnections"`
}

// LoadScenario reads a scenario from YAML, rejecting unknown fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks references between nodes, zones, legs and presets.
func (s *Scenario) Validate() error {
	if len(s.Nodes) == 0 {
		return fmt.Errorf("at least one node required")
	}
	seen := map[string]bool{}
	for _, n := range s.Nodes {
		if seen[n] {
			return fmt.Errorf("duplicate node %q", n)
		}
		seen[n] = true
	}
	known := func(what, n string) error {
		if !seen[n] {
			return fmt.Errorf("%s references unknown node %q", what, n)
		}
		return nil
	}
	if s.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %f", s.Resolution)
	}
	if s.Efficiency <= 0 || s.Efficiency > 1 {
		return fmt.Errorf("efficiency must be in (0, 1], got %f", s.Efficiency)
	}
	if s.Allowance < 0 {
		return fmt.Errorf("allowance_fraction must be non-negative, got %f", s.Allowance)
	}
	if s.Peaking.Start < 0 || s.Peaking.Hours < 0 || s.Peaking.Start+s.Peaking.Hours > 24 {
		return fmt.Errorf("peaking window %d+%dh does not fit in a day", s.Peaking.Start, s.Peaking.Hours)
	}
	for i, z := range s.SolarZones {
		if err := known(fmt.Sprintf("solar_zones[%d]", i), z.Node); err != nil {
			return err
		}
		if z.Upper < s.SolarLower {
			return fmt.Errorf("solar_zones[%d]: upper %g below solar_lower %g", i, z.Upper, s.SolarLower)
		}
	}
	for n, ub := range s.Storage.PowerUpper {
		if err := known("storage.power_upper", n); err != nil {
			return err
		}
		if ub < 0 {
			return fmt.Errorf("storage.power_upper[%s] must be non-negative, got %g", n, ub)
		}
	}
	if s.Storage.EnergyUpper < 0 {
		return fmt.Errorf("storage.energy_upper must be non-negative, got %g", s.Storage.EnergyUpper)
	}
	for i, ic := range s.Interconnections {
		if err := known(fmt.Sprintf("interconnections[%d]", i), ic.Node); err != nil {
			return err
		}
	}
	if len(s.Legs) > 0 {
		if err := known("junction", s.Junction); err != nil {
			return err
		}
	}
	for i, l := range s.Legs {
		prefix := fmt.Sprintf("legs[%d] %s", i, l.Name)
		if err := known(prefix, l.From); err != nil {
			return err
		}
		if err := known(prefix, l.To); err != nil {
			return err
		}
		if _, ok := s.LossPerKm[l.Type]; !ok {
			return fmt.Errorf("%s: unknown line type %q", prefix, l.Type)
		}
		if l.Distance < 0 {
			return fmt.Errorf("%s: distance must be non-negative, got %g", prefix, l.Distance)
		}
	}
	if len(s.Coverage) == 0 {
		return fmt.Errorf("at least one coverage preset required")
	}
	for name, c := range s.Coverage {
		for _, n := range c.Nodes {
			if err := known("coverage "+name, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Covered returns the nodes of preset in scenario order.
func (s *Scenario) Covered(preset string) ([]string, CoverageSpec, error) {
	c, ok := s.Coverage[preset]
	if !ok {
		names := make([]string, 0, len(s.Coverage))
		for n := range s.Coverage {
			names = append(names, n)
		}
		slices.Sort(names)
		return nil, c, fmt.Errorf("undefined network structure %q; valid: %v", preset, names)
	}
	if len(c.Nodes) == 0 {
		return s.Nodes, c, nil
	}
	var out []string
	for _, n := range s.Nodes {
		if slices.Contains(c.Nodes, n) {
			out = append(out, n)
		}
	}
	return out, c, nil
}
