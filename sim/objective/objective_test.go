package objective

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/internal/testutil"
)

func TestEvaluate_NoImport_FitnessIsLCOEPlusDeficitPenalty(t *testing.T) {
	// GIVEN a networked system without imports and a candidate short of storage
	in := testutil.Inputs(t, testutil.Fixture{})
	e, err := NewEvaluator(in)
	require.NoError(t, err)
	x := testutil.Vector(in, 1, 0.1, 1, 0)

	// WHEN evaluated
	ev, err := e.Evaluate(x)
	require.NoError(t, err)

	// THEN fitness decomposes into LCOE and penalties
	assert.Zero(t, ev.Penalties.Power)
	assert.InDelta(t, ev.LCOE+ev.Penalties.Total(), ev.Fitness, 1e-9)
	want := math.Max(0, floats.Sum(ev.Candidate.Result.Deficit)*in.Resolution-in.Allowance)
	assert.InDelta(t, want, ev.Penalties.Deficit, 1e-9)
	require.NotNil(t, ev.Flows)
	assert.Len(t, ev.Cost.TransmissionGW, len(in.Legs))
}

func TestEvaluate_Import_PowerPenaltyFromUnconstrainedDeficit(t *testing.T) {
	// GIVEN imports enabled and 0.05 GW per interconnection
	in := testutil.Inputs(t, testutil.Fixture{Import: true})
	e, err := NewEvaluator(in)
	require.NoError(t, err)
	x := testutil.Vector(in, 0.5, 0.05, 0.5, 0.05)

	// WHEN evaluated
	ev, err := e.Evaluate(x)
	require.NoError(t, err)

	// THEN the power penalty is the gap between peak free deficit and capacity
	c, err := sim.NewCandidate(in, x)
	require.NoError(t, err)
	free, err := sim.Simulate(c, nil, in.TotalPeaking(), sim.Window{})
	require.NoError(t, err)
	assert.InDelta(t, math.Abs(floats.Max(free.Deficit)-c.InterconnectionMW()), ev.Penalties.Power, 1e-9)

	// AND the costed run imports the free deficit clipped to capacity
	for t2, d := range free.Deficit {
		assert.InDelta(t, math.Min(d, c.InterconnectionMW()), ev.Candidate.Result.Imports[t2], 1e-9)
	}
}

func TestEvaluate_InvalidVector_ScoresInfinity(t *testing.T) {
	in := testutil.Inputs(t, testutil.Fixture{})
	e, err := NewEvaluator(in)
	require.NoError(t, err)

	x := testutil.Vector(in, 1, 1, 1, 0)
	x[0] = -1
	_, err = e.Evaluate(x)
	require.Error(t, err)

	fitness, rec := e.Score(x)
	assert.True(t, math.IsInf(fitness, 1))
	assert.True(t, rec.Failed())
	assert.Equal(t, x, rec.X)
}

func TestEvaluate_SingleNode_NoTransmission(t *testing.T) {
	// GIVEN coverage of one node
	in := testutil.Inputs(t, testutil.Fixture{Coverage: []string{"SP"}})
	e, err := NewEvaluator(in)
	require.NoError(t, err)

	ev, err := e.Evaluate(testutil.Vector(in, 1, 1, 10, 0))
	require.NoError(t, err)

	// THEN no network is resolved or priced
	assert.Nil(t, ev.Flows)
	assert.Zero(t, ev.Cost.Transmission)
	assert.Zero(t, ev.Cost.LossPWh)
}

func TestEvaluate_ConcurrentCallsAgree(t *testing.T) {
	in := testutil.Inputs(t, testutil.Fixture{Import: true, Export: true})
	e, err := NewEvaluator(in)
	require.NoError(t, err)
	x := testutil.Vector(in, 2, 0.5, 5, 0.1)

	want, _ := e.Score(x)
	got := make([]float64, 8)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = e.Score(x)
		}(i)
	}
	wg.Wait()
	for i, f := range got {
		assert.Equal(t, want, f, "goroutine %d", i)
	}
}

func TestEvaluation_Record_CarriesBreakdown(t *testing.T) {
	in := testutil.Inputs(t, testutil.Fixture{})
	e, err := NewEvaluator(in)
	require.NoError(t, err)
	ev, err := e.Evaluate(testutil.Vector(in, 1, 0.2, 2, 0))
	require.NoError(t, err)

	rec := ev.Record()
	assert.False(t, rec.Failed())
	assert.Equal(t, ev.Fitness, rec.Fitness)
	assert.Equal(t, ev.LCOE, rec.LCOE)
	assert.InDelta(t, ev.Penalties.Total(), rec.Penalty(), 1e-12)
}
