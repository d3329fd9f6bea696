package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(limit, budget float64, ipy int) Params {
	return Params{
		Limit:            limit,
		AnnualBudget:     budget,
		Efficiency:       0.8,
		MaxBacktrack:     168,
		IntervalsPerYear: ipy,
		Resolution:       1,
	}
}

func TestFill_DeficitAboveLimit_SpreadsBackward(t *testing.T) {
	// GIVEN a deficit of 10 MW at interval 5, a limit of 5 MW and ample budget
	deficit := make([]float64, 8)
	deficit[5] = 10
	imports := make([]float64, 8)

	// WHEN filled
	rep := Fill(deficit, imports, params(5, 1e6, 8))

	// THEN the deficit interval and the one before run at the limit, and the
	// efficiency-inflated remainder lands one interval earlier
	assert.Equal(t, []float64{0, 0, 0, 1.25, 5, 5, 0, 0}, imports)
	assert.Equal(t, 1, rep.Deficits)
	assert.InDelta(t, 11.25, rep.Added, 1e-12)
	assert.InDelta(t, 11.25, rep.AnnualTotals[0], 1e-12)
	assert.Empty(t, rep.Failures)
}

func TestFill_DeficitWithinLimit_CoveredInPlace(t *testing.T) {
	deficit := []float64{0, 0, 3}
	imports := []float64{0, 0, 1}

	rep := Fill(deficit, imports, params(5, 100, 3))

	assert.Equal(t, []float64{0, 0, 4}, imports)
	assert.InDelta(t, 3, rep.Added, 1e-12)
}

func TestFill_YearBudgetExhausted_JumpsToPreviousYear(t *testing.T) {
	// GIVEN two 4-interval years, year 1 already at its 2 MWh budget
	deficit := []float64{0, 0, 0, 0, 0, 0, 3, 0}
	imports := []float64{0, 0, 0, 0, 1, 1, 0, 0}

	// WHEN filled with a generous limit
	rep := Fill(deficit, imports, params(10, 2, 4))

	// THEN nothing is added in year 1 and the need moves to the last interval of year 0
	assert.Equal(t, []float64{0, 0, 0, 2, 1, 1, 0, 0}, imports)
	assert.InDelta(t, 2, rep.AnnualTotals[0], 1e-12)
	assert.InDelta(t, 2, rep.AnnualTotals[1], 1e-12)

	// AND the rest is reported, not retried
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, 6, rep.Failures[0].Interval)
	assert.InDelta(t, 3/0.8-2, rep.Failures[0].Unfilled, 1e-12)
	assert.Equal(t, ReasonHorizon, rep.Failures[0].Reason)
}

func TestFill_RunningTotalsNeverExceedBudget(t *testing.T) {
	deficit := make([]float64, 48)
	for i := 6; i < 48; i += 5 {
		deficit[i] = 7
	}
	imports := make([]float64, 48)

	rep := Fill(deficit, imports, params(4, 30, 24))

	for year, total := range rep.AnnualTotals {
		assert.LessOrEqual(t, total, 30+1e-9, "year %d", year)
	}
	for i, v := range imports {
		assert.LessOrEqual(t, v, 4.0, "interval %d", i)
	}
	assert.NotEmpty(t, rep.Failures)
}

func TestFill_BacktrackBudgetStopsWalk(t *testing.T) {
	deficit := []float64{0, 0, 0, 0, 9}
	imports := make([]float64, 5)
	p := params(1, 100, 5)
	p.MaxBacktrack = 2

	rep := Fill(deficit, imports, p)

	assert.Equal(t, []float64{0, 0, 0, 1, 1}, imports)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, ReasonBacktrack, rep.Failures[0].Reason)
}

func TestFill_AllEarlierIntervalsAtLimit_ReportsHeadroom(t *testing.T) {
	deficit := []float64{0, 0, 2}
	imports := []float64{1, 1, 0}

	rep := Fill(deficit, imports, params(1, 100, 3))

	assert.Equal(t, []float64{1, 1, 1}, imports)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, ReasonHeadroom, rep.Failures[0].Reason)
	assert.InDelta(t, 1, rep.Failures[0].Unfilled, 1e-12)
}

func TestFill_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Fill(make([]float64, 2), make([]float64, 3), params(1, 1, 1)) })
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative limit", func(p *Params) { p.Limit = -1 }},
		{"negative budget", func(p *Params) { p.AnnualBudget = -1 }},
		{"zero efficiency", func(p *Params) { p.Efficiency = 0 }},
		{"efficiency above one", func(p *Params) { p.Efficiency = 1.2 }},
		{"zero backtrack", func(p *Params) { p.MaxBacktrack = 0 }},
		{"zero year length", func(p *Params) { p.IntervalsPerYear = 0 }},
		{"zero resolution", func(p *Params) { p.Resolution = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := params(1, 1, 1)
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
	assert.NoError(t, params(1, 1, 1).Validate())
}
