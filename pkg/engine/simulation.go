package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-mcrt/pkg/log"
	"github.com/df07/go-mcrt/pkg/source"
	"github.com/df07/go-mcrt/pkg/tally"
	"github.com/df07/go-mcrt/pkg/transport"
)

// ErrNumericalInstability is returned when too many packets are discarded
// after numerical faults. It signals a geometry or material defect.
var ErrNumericalInstability = errors.New("numerical instability")

var logger = log.New("engine")

// Problem is what a simulation transports: a tracer over a scene and an emitter
type Problem struct {
	Tracer *transport.Tracer
	Source source.Source
}

// Simulation schedules batches of packet histories across a worker pool and
// merges their tallies in batch order
type Simulation struct {
	problem Problem
	config  Config
	layout  tally.Layout
}

// NewSimulation validates the configuration against the problem
func NewSimulation(problem Problem, config Config) (*Simulation, error) {
	if problem.Tracer == nil || problem.Source == nil {
		return nil, errors.New("simulation needs a tracer and a source")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	layout := problem.Tracer.Layout(config.SpectrumBins, config.SpectrumMin, config.SpectrumMax)
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Simulation{problem: problem, config: config, layout: layout}, nil
}

// Config returns the simulation's configuration
func (s *Simulation) Config() Config {
	return s.config
}

// run tracks the ordered merge of batch results
type run struct {
	config    Config
	total     *tally.Tally
	pending   map[int]BatchResult
	means     []float64 // per-batch primary observable
	merged    int
	packets   int
	relError  float64
	converged bool
	unstable  bool
}

// Run transports the packet budget. The result only ever contains a
// contiguous prefix of batches, so it is identical for any worker count.
// On cancellation the partial result is returned together with ctx.Err().
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	cfg := s.config
	workers := cfg.NumWorkers()
	window := 2 * workers
	numBatches := cfg.NumBatches()

	pool := NewWorkerPool(s.problem.Tracer, s.problem.Source, s.layout, cfg.Seed, workers, window)
	pool.Start()
	logger.Infof("run: %d packets in %d batches of %d on %d workers",
		cfg.Packets, numBatches, cfg.BatchSize, pool.GetNumWorkers())

	r := &run{
		config:   cfg,
		total:    tally.New(s.layout),
		pending:  make(map[int]BatchResult),
		relError: math.Inf(1),
	}

	next, inFlight := 0, 0
	stopping, cancelled := false, false
	var mergeErr error
	for {
		if !stopping && ctx.Err() != nil {
			stopping, cancelled = true, true
		}
		for !stopping && next < numBatches && inFlight < window {
			pool.SubmitTask(BatchTask{Index: next, Packets: cfg.batchPackets(next)})
			next++
			inFlight++
		}
		if inFlight == 0 {
			break
		}

		var result BatchResult
		if stopping {
			result = <-pool.Results()
		} else {
			select {
			case <-ctx.Done():
				stopping, cancelled = true, true
				continue
			case result = <-pool.Results():
			}
		}
		inFlight--

		if stopping {
			// Batches finishing after a stop are not part of the reported prefix
			pool.Release(result.Tally)
			continue
		}
		r.pending[result.Index] = result
		stopping, mergeErr = r.mergeReady(pool)
		if mergeErr != nil {
			stopping = true
		}
	}
	pool.Stop()
	r.releasePending(pool)

	res := &Result{
		RunID:         uuid.New(),
		Tally:         r.total,
		Observable:    cfg.Observable,
		Packets:       r.packets,
		Batches:       r.merged,
		RelativeError: r.relError,
		Converged:     r.converged,
		Cancelled:     cancelled,
		WallTime:      time.Since(start),
		Diagnostics:   newDiagnostics(r.total, r.packets),
	}
	if g := s.problem.Tracer.Grid(); g != nil {
		res.CellVolume = g.CellVolume()
	}

	switch {
	case mergeErr != nil:
		logger.Errorf("run %s: %v", res.RunID, mergeErr)
		return res, mergeErr
	case r.unstable:
		logger.Errorf("run %s: %d of %d packets discarded", res.RunID, int(res.Diagnostics.Discarded), res.Packets)
		return res, fmt.Errorf("%w: anomaly rate %.3g exceeds %.3g",
			ErrNumericalInstability, res.Diagnostics.AnomalyRate, cfg.MaxAnomalyRate)
	case cancelled:
		logger.Warningf("run %s cancelled after %d of %d batches", res.RunID, res.Batches, numBatches)
		return res, ctx.Err()
	case r.converged:
		logger.Noticef("run %s converged after %d batches: relative error %.3g", res.RunID, res.Batches, res.RelativeError)
	default:
		logger.Infof("run %s finished %d packets in %s", res.RunID, res.Packets, res.WallTime)
	}
	return res, nil
}

// mergeReady merges every pending batch that extends the contiguous prefix
// and reports whether the run should stop
func (r *run) mergeReady(pool *WorkerPool) (bool, error) {
	for {
		result, ok := r.pending[r.merged]
		if !ok {
			return false, nil
		}

		if err := r.total.Merge(result.Tally); err != nil {
			return true, fmt.Errorf("merging batch %d: %w", result.Index, err)
		}
		delete(r.pending, r.merged)
		r.means = append(r.means, result.Tally.Observable(r.config.Observable))
		pool.Release(result.Tally)
		r.merged++
		r.packets += result.Packets

		discarded := r.total.Scalar(tally.Discarded)
		if discarded > 0 && discarded > r.config.MaxAnomalyRate*float64(r.packets) {
			r.unstable = true
			return true, nil
		}

		if r.merged >= 2 && (r.merged%r.config.CheckInterval == 0) {
			r.relError = relativeError(r.means)
			logger.Infof("batch %d: %s %.6g, relative error %.3g",
				r.merged, r.config.Observable, r.total.Observable(r.config.Observable), r.relError)
			if r.config.TargetRelativeError > 0 && r.merged >= r.config.MinBatches &&
				r.relError <= r.config.TargetRelativeError {
				r.converged = true
				return true, nil
			}
		}
	}
}

// releasePending hands back buffers of batches that finished out of order
// but were never merged because the run stopped first
func (r *run) releasePending(pool *WorkerPool) {
	for index, result := range r.pending {
		pool.Release(result.Tally)
		delete(r.pending, index)
	}
}

// relativeError is the batch-means standard error of the mean divided by
// the mean
func relativeError(means []float64) float64 {
	if len(means) < 2 {
		return math.Inf(1)
	}
	mean, std := stat.MeanStdDev(means, nil)
	if mean == 0 {
		return math.Inf(1)
	}
	return std / math.Sqrt(float64(len(means))) / math.Abs(mean)
}
