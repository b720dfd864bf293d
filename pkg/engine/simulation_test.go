package engine

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/geometry"
	"github.com/df07/go-mcrt/pkg/material"
	"github.com/df07/go-mcrt/pkg/scene"
	"github.com/df07/go-mcrt/pkg/source"
	"github.com/df07/go-mcrt/pkg/tally"
	"github.com/df07/go-mcrt/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadProblem(t *testing.T, id string) (Problem, *scene.Scene) {
	t.Helper()
	s, err := scene.Load(id)
	require.NoError(t, err)
	tracer, err := s.Tracer()
	require.NoError(t, err)
	return Problem{Tracer: tracer, Source: s.Source}, s
}

func smallConfig(packets, batch, workers int) Config {
	c := DefaultConfig()
	c.Packets = packets
	c.BatchSize = batch
	c.Workers = workers
	c.Seed = 42
	return c
}

func runSimulation(t *testing.T, p Problem, c Config) *Result {
	t.Helper()
	sim, err := NewSimulation(p, c)
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestSimulation_Reproducible(t *testing.T) {
	p, _ := loadProblem(t, "scattering-sphere")
	c := smallConfig(4000, 250, 4)

	a := runSimulation(t, p, c)
	b := runSimulation(t, p, c)

	assert.True(t, a.Tally.Equal(b.Tally), "identical seeds must give identical tallies")
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, 4000, a.Packets)
	assert.Equal(t, 16, a.Batches)

	c.Seed = 43
	other := runSimulation(t, p, c)
	assert.False(t, a.Tally.Equal(other.Tally), "a different seed must change the histories")
}

func TestSimulation_WorkerCountInvariance(t *testing.T) {
	p, _ := loadProblem(t, "layered-slab")

	reference := runSimulation(t, p, smallConfig(3000, 100, 1))
	for _, workers := range []int{2, 3, 8} {
		res := runSimulation(t, p, smallConfig(3000, 100, workers))
		assert.True(t, reference.Tally.Equal(res.Tally), "workers=%d", workers)
	}
}

func TestSimulation_AbsorbingSlabConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("long statistical test")
	}
	p, s := loadProblem(t, "slab")

	c := smallConfig(1000000, 10000, 0)
	res := runSimulation(t, p, c)

	assert.Equal(t, 1000000, res.Packets)
	assert.InDelta(t, math.Exp(-2), s.Expected, 1e-15)
	assert.InEpsilon(t, s.Expected, res.Estimate(), 0.01)
	assert.Less(t, res.RelativeError, 0.01)
	assert.InDelta(t, 0.0, res.Tally.Balance(), 1e-6)
}

func TestSimulation_AbsorbedDensityIntegratesToAbsorption(t *testing.T) {
	p, _ := loadProblem(t, "slab")
	res := runSimulation(t, p, smallConfig(5000, 500, 2))

	density := res.Density(tally.Absorbed)
	require.NotNil(t, density)
	sum := 0.0
	for _, d := range density {
		sum += d * res.CellVolume
	}
	assert.InDelta(t, res.Tally.Observable(tally.AbsorbedFraction), sum, 1e-9)
	assert.Greater(t, res.PacketsPerSecond(), 0.0)
}

func TestSimulation_EarlyStop(t *testing.T) {
	p, _ := loadProblem(t, "slab")

	c := smallConfig(1000000, 1000, 4)
	c.TargetRelativeError = 0.05
	c.MinBatches = 10
	c.CheckInterval = 5
	res := runSimulation(t, p, c)

	assert.True(t, res.Converged)
	assert.Equal(t, 10, res.Batches)
	assert.Equal(t, 10000, res.Packets)
	assert.LessOrEqual(t, res.RelativeError, 0.05)

	// The stop point depends only on the merged prefix
	c.Workers = 1
	again := runSimulation(t, p, c)
	assert.True(t, res.Tally.Equal(again.Tally))
}

func TestSimulation_CancelledBeforeStart(t *testing.T) {
	p, _ := loadProblem(t, "slab")
	sim, err := NewSimulation(p, smallConfig(10000, 100, 2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sim.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 0, res.Batches)
	assert.Equal(t, 0.0, res.Tally.Scalar(tally.Emitted))
}

// cancellingSource cancels the run after a number of emissions
type cancellingSource struct {
	source.Source
	after  int64
	count  atomic.Int64
	cancel context.CancelFunc
}

func (c *cancellingSource) Emit(sampler core.Sampler) source.Emission {
	if c.count.Add(1) == c.after {
		c.cancel()
	}
	return c.Source.Emit(sampler)
}

func TestSimulation_CancelledMidRunKeepsPrefix(t *testing.T) {
	p, _ := loadProblem(t, "slab")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapped := Problem{Tracer: p.Tracer, Source: &cancellingSource{Source: p.Source, after: 2500, cancel: cancel}}
	c := smallConfig(100000, 100, 3)
	sim, err := NewSimulation(wrapped, c)
	require.NoError(t, err)

	res, err := sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
	assert.Less(t, res.Batches, c.NumBatches())
	assert.Equal(t, res.Batches*c.BatchSize, res.Packets)
	assert.Equal(t, float64(res.Packets), res.Tally.Scalar(tally.Emitted))

	// The partial tally is exactly the first Batches batches of a full run
	if res.Batches > 0 {
		prefix := smallConfig(res.Packets, 100, 1)
		full := runSimulation(t, p, prefix)
		assert.True(t, full.Tally.Equal(res.Tally))
	}
}

// nanSource emits packets with a broken direction
type nanSource struct{}

func (nanSource) Emit(core.Sampler) source.Emission {
	return source.Emission{Direction: core.NewVec3(math.NaN(), 0, 0), Wavelength: 500, Weight: 1}
}

func (nanSource) Type() string { return "nan" }

func TestSimulation_NumericalInstability(t *testing.T) {
	world := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	k, err := geometry.NewBuilder(world, "fog").Build(geometry.DefaultBuildConfig())
	require.NoError(t, err)
	table, err := material.NewTable(k, map[string]*material.Material{
		"fog": material.NewConstant("fog", 0, 1, 0, 1),
	})
	require.NoError(t, err)
	tracer, err := transport.NewTracer(k, table, nil, transport.DefaultSettings())
	require.NoError(t, err)

	sim, err := NewSimulation(Problem{Tracer: tracer, Source: nanSource{}}, smallConfig(1000, 100, 2))
	require.NoError(t, err)
	res, err := sim.Run(context.Background())

	assert.True(t, errors.Is(err, ErrNumericalInstability))
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Batches)
	assert.Equal(t, 100.0, res.Diagnostics.Discarded)
	assert.Equal(t, 1.0, res.Diagnostics.AnomalyRate)
}

func TestNewSimulation_Errors(t *testing.T) {
	p, _ := loadProblem(t, "slab")

	_, err := NewSimulation(Problem{}, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Packets = 0
	_, err = NewSimulation(p, bad)
	assert.Error(t, err)

	spectrum := DefaultConfig()
	spectrum.SpectrumBins = 10
	_, err = NewSimulation(p, spectrum)
	assert.Error(t, err, "spectrum bins need a range")
}

func TestRunBatch_Deterministic(t *testing.T) {
	p, _ := loadProblem(t, "nested")
	layout := p.Tracer.Layout(0, 0, 0)

	a, b := tally.New(layout), tally.New(layout)
	RunBatch(p.Tracer, p.Source, 7, BatchTask{Index: 3, Packets: 200}, a)
	b.Emit(99) // stale contents must be cleared
	RunBatch(p.Tracer, p.Source, 7, BatchTask{Index: 3, Packets: 200}, b)

	assert.True(t, a.Equal(b))
	assert.Equal(t, 200.0, a.Scalar(tally.Emitted))
	assert.InDelta(t, 0.0, a.Balance(), 1e-9)
}

func TestRun_MergeReadyLayoutMismatch(t *testing.T) {
	pool := NewWorkerPool(nil, nil, tally.Layout{Regions: 2}, 0, 3, 4)
	assert.Equal(t, 3, pool.GetNumWorkers())

	r := &run{
		config:  DefaultConfig(),
		total:   tally.New(tally.Layout{Regions: 2}),
		pending: map[int]BatchResult{0: {Index: 0, Packets: 10, Tally: tally.New(tally.Layout{Regions: 3})}},
	}
	stop, err := r.mergeReady(pool)
	assert.True(t, stop)
	assert.ErrorIs(t, err, tally.ErrLayoutMismatch)
	assert.Equal(t, 0, r.merged)
	assert.Equal(t, 0, r.packets)

	r.releasePending(pool)
	assert.Empty(t, r.pending)
}

func TestRun_ReleasePendingAfterStop(t *testing.T) {
	layout := tally.Layout{Regions: 2}
	pool := NewWorkerPool(nil, nil, layout, 0, 1, 4)

	r := &run{
		config: DefaultConfig(),
		total:  tally.New(layout),
		pending: map[int]BatchResult{
			3: {Index: 3, Packets: 10, Tally: tally.New(layout)},
			5: {Index: 5, Packets: 10, Tally: tally.New(layout)},
		},
	}
	stop, err := r.mergeReady(pool)
	require.NoError(t, err)
	assert.False(t, stop, "batch 0 has not arrived")
	assert.Len(t, r.pending, 2)

	r.releasePending(pool)
	assert.Empty(t, r.pending)
	assert.Equal(t, 0, r.merged)
}
