// Package fill schedules imports ahead of deficits. A remote or imported
// resource can be dispatched early and stored, so each deficit is covered by
// raising imports at earlier intervals within a per-interval limit and a
// calendar-year energy budget.
package fill

import (
	"fmt"
	"math"
)

// exhausted is the headroom below which a year's budget counts as spent.
const exhausted = 1e-9

// Params bound a fill pass.
type Params struct {
	Limit            float64 // per-interval import ceiling, MW
	AnnualBudget     float64 // import energy per calendar year, MWh
	Efficiency       float64 // storage round trip charged on imports moved earlier
	MaxBacktrack     int     // walk steps per deficit interval
	IntervalsPerYear int
	Resolution       float64 // hours per interval
}

// Validate reports parameters that would make the walk meaningless.
func (p Params) Validate() error {
	switch {
	case p.Limit < 0:
		return fmt.Errorf("limit must be non-negative, got %g", p.Limit)
	case p.AnnualBudget < 0:
		return fmt.Errorf("annual budget must be non-negative, got %g", p.AnnualBudget)
	case p.Efficiency <= 0 || p.Efficiency > 1:
		return fmt.Errorf("efficiency must be in (0, 1], got %g", p.Efficiency)
	case p.MaxBacktrack <= 0:
		return fmt.Errorf("max backtrack must be positive, got %d", p.MaxBacktrack)
	case p.IntervalsPerYear <= 0:
		return fmt.Errorf("intervals per year must be positive, got %d", p.IntervalsPerYear)
	case p.Resolution <= 0:
		return fmt.Errorf("resolution must be positive, got %g", p.Resolution)
	}
	return nil
}

// Reasons a deficit interval could not be covered.
const (
	ReasonBacktrack = "backtrack limit reached"
	ReasonHorizon   = "reached start of horizon"
	ReasonHeadroom  = "no earlier interval below the import limit"
)

// Failure is a deficit interval whose need was only partly placed.
type Failure struct {
	Interval int
	Unfilled float64 // MW still needed, including any efficiency inflation
	Reason   string
}

func (f Failure) String() string {
	return fmt.Sprintf("interval %d: %.3f MW unfilled (%s)", f.Interval, f.Unfilled, f.Reason)
}

// Report summarises one fill pass.
type Report struct {
	Deficits     int       // intervals with positive deficit
	Added        float64   // import energy added, MWh
	AnnualTotals []float64 // import energy per year after the pass, MWh
	Failures     []Failure
}

// Fill raises imports in place to cover every positive entry of deficit,
// processing deficit intervals in increasing time order. The walk for a
// deficit starts at the deficit interval itself and moves backward to the
// latest earlier interval still below the limit. The remaining need is
// inflated by 1/Efficiency once, on the first step before the deficit
// interval. When a raise spends the last of a year's budget the walk jumps to
// the final interval of the previous year.
func Fill(deficit, imports []float64, p Params) Report {
	if len(deficit) != len(imports) {
		panic(fmt.Sprintf("fill: deficit has %d intervals, imports %d", len(deficit), len(imports)))
	}
	ipy := p.IntervalsPerYear
	years := (len(imports) + ipy - 1) / ipy
	rep := Report{AnnualTotals: make([]float64, years)}
	for t, v := range imports {
		rep.AnnualTotals[t/ipy] += v * p.Resolution
	}

	for i, d := range deficit {
		if d <= 0 {
			continue
		}
		rep.Deficits++
		need, reason := d, ReasonBacktrack
		inflated := false
		t := i
		for steps := 0; need > 0 && steps < p.MaxBacktrack; steps++ {
			if t < i && !inflated {
				need /= p.Efficiency
				inflated = true
			}
			year := t / ipy
			headroom := math.Max(0, p.AnnualBudget-rep.AnnualTotals[year]) / p.Resolution
			raise := math.Min(math.Min(need, p.Limit-imports[t]), headroom)
			if raise > 0 {
				imports[t] += raise
				need -= raise
				rep.AnnualTotals[year] += raise * p.Resolution
				rep.Added += raise * p.Resolution
			}
			if need <= 0 {
				break
			}

			if (headroom-math.Max(raise, 0))*p.Resolution <= exhausted {
				t = year*ipy - 1
			} else {
				t = previousBelow(imports, t, p.Limit)
			}
			if t < 0 {
				reason = ReasonHorizon
				if t == -2 {
					reason = ReasonHeadroom
				}
				break
			}
		}
		if need > exhausted {
			rep.Failures = append(rep.Failures, Failure{Interval: i, Unfilled: need, Reason: reason})
		}
	}
	return rep
}

// previousBelow returns the latest interval before t whose import is below
// limit, or -2 when there is none.
func previousBelow(imports []float64, t int, limit float64) int {
	for j := t - 1; j >= 0; j-- {
		if imports[j] < limit {
			return j
		}
	}
	return -2
}
