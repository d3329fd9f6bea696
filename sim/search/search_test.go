package search

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firm-sim/firm-sim/sim"
	"github.com/firm-sim/firm-sim/sim/audit"
)

func sphere(x []float64) (float64, audit.Record) {
	var f float64
	for _, v := range x {
		f += (v - 1) * (v - 1)
	}
	return f, audit.Record{X: append([]float64(nil), x...), Fitness: f, LCOE: f}
}

func bounds(dim int, lo, hi float64) sim.Bounds {
	b := sim.Bounds{Lower: make([]float64, dim), Upper: make([]float64, dim)}
	for j := 0; j < dim; j++ {
		b.Lower[j], b.Upper[j] = lo, hi
	}
	return b
}

func TestRun_Sphere_FindsMinimum(t *testing.T) {
	// GIVEN a shifted sphere with its minimum at (1, 1) inside [-5, 5]^2
	cfg := Config{MaxIter: 300, PopSize: 15, Mutation: 0.5, Recombination: 0.7, Seed: 7, Workers: 4}
	o, err := New(cfg, bounds(2, -5, 5), sphere)
	require.NoError(t, err)

	// WHEN searched
	res, err := o.Run(context.Background())
	require.NoError(t, err)

	// THEN the best vector is close to the minimum
	assert.Less(t, res.Fitness, 1e-4)
	assert.InDelta(t, 1, res.X[0], 1e-2)
	assert.InDelta(t, 1, res.X[1], 1e-2)
	assert.Equal(t, (res.Generations+1)*o.PopulationSize(), res.Evaluations)
	assert.NotEmpty(t, res.RunID)
}

func TestRun_SameSeed_IdenticalAcrossWorkerCounts(t *testing.T) {
	run := func(workers int) (*Result, string) {
		var buf bytes.Buffer
		cfg := Config{MaxIter: 20, PopSize: 5, Mutation: 0.5, Recombination: 0.3, Seed: 3, Workers: workers}
		o, err := New(cfg, bounds(3, 0, 10), sphere)
		require.NoError(t, err)
		o.Log = audit.NewLog(&buf)
		res, err := o.Run(context.Background())
		require.NoError(t, err)
		require.NoError(t, o.Log.Close())
		return res, buf.String()
	}

	serial, serialLog := run(1)
	parallel, parallelLog := run(8)

	assert.Equal(t, serial.X, parallel.X)
	assert.Equal(t, serial.Fitness, parallel.Fitness)
	assert.Equal(t, serialLog, parallelLog, "audit rows must appear in the same order")
}

func TestRun_FailedEvaluations_CountedAndSkipped(t *testing.T) {
	// GIVEN an objective that fails on half of the space
	obj := func(x []float64) (float64, audit.Record) {
		if x[0] > 0.5 {
			return math.Inf(1), audit.Failure(x, assert.AnError)
		}
		return sphere(x)
	}
	cfg := Config{MaxIter: 30, PopSize: 10, Mutation: 0.5, Recombination: 0.3, Seed: 1, Workers: 2}
	o, err := New(cfg, bounds(2, 0, 1), obj)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	o.Metrics = NewMetrics(reg)

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	// THEN the search continues and keeps a feasible best
	assert.Greater(t, res.Failures, 0)
	assert.False(t, math.IsInf(res.Fitness, 1))
	assert.LessOrEqual(t, res.X[0], 0.5)

	// AND the collectors agree with the result
	assert.Equal(t, float64(res.Evaluations), promtest.ToFloat64(o.Metrics.Evaluations))
	assert.Equal(t, float64(res.Failures), promtest.ToFloat64(o.Metrics.Failures))
	assert.Equal(t, float64(res.Generations), promtest.ToFloat64(o.Metrics.Generation))
	assert.Equal(t, res.Fitness, promtest.ToFloat64(o.Metrics.BestFitness))
	n, err := promtest.GatherAndCount(reg, "firm_search_evaluation_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_ConstantObjective_ConvergesImmediately(t *testing.T) {
	obj := func(x []float64) (float64, audit.Record) { return 3, audit.Record{X: x, Fitness: 3} }
	o, err := New(Config{MaxIter: 50, PopSize: 5, Mutation: 0.5, Recombination: 0.3}, bounds(2, 0, 1), obj)
	require.NoError(t, err)

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Generations)
}

func TestRun_StaysWithinBounds(t *testing.T) {
	b := sim.Bounds{Lower: []float64{0.001, 0, 5}, Upper: []float64{22, 0, 7}}
	var buf bytes.Buffer
	o, err := New(Config{MaxIter: 10, PopSize: 4, Mutation: 1.5, Recombination: 0.9, Seed: 9, Workers: 3}, b, sphere)
	require.NoError(t, err)
	o.Log = audit.NewLog(&buf)
	_, err = o.Run(context.Background())
	require.NoError(t, err)

	sum := o.Log.Summary()
	assert.Equal(t, 11*o.PopulationSize(), sum.Total)
	require.Len(t, sum.Best, 3)
	for j, v := range sum.Best {
		assert.GreaterOrEqual(t, v, b.Lower[j])
		assert.LessOrEqual(t, v, b.Upper[j])
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o, err := New(DefaultConfig(), bounds(2, 0, 1), sphere)
	require.NoError(t, err)

	_, err = o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsInvalidSettings(t *testing.T) {
	_, err := New(Config{PopSize: 0}, bounds(2, 0, 1), sphere)
	assert.Error(t, err)
	_, err = New(DefaultConfig(), sim.Bounds{}, sphere)
	assert.Error(t, err)
	_, err = New(DefaultConfig(), sim.Bounds{Lower: []float64{1}, Upper: []float64{0}}, sphere)
	assert.Error(t, err)
	_, err = New(DefaultConfig(), sim.Bounds{Lower: []float64{0}, Upper: []float64{math.Inf(1)}}, sphere)
	assert.Error(t, err)
}

func TestPopulationSize_HasFloorOfFive(t *testing.T) {
	o, err := New(Config{PopSize: 1, Mutation: 0.5, Recombination: 0.3}, bounds(2, 0, 1), sphere)
	require.NoError(t, err)
	assert.Equal(t, 5, o.PopulationSize())
}
