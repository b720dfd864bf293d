package engine

import (
	"fmt"
	"runtime"

	"github.com/df07/go-mcrt/pkg/tally"
)

// Config contains configuration for a transport run
type Config struct {
	Packets             int              // total packet budget
	BatchSize           int              // packets per batch, the smallest schedulable unit
	Workers             int              // number of parallel workers (0 = use CPU count)
	Seed                uint64           // base seed; batch k draws from stream (Seed, k)
	TargetRelativeError float64          // stop once the primary observable reaches this relative error (0 = run the full budget)
	MinBatches          int              // batches merged before convergence may stop the run
	CheckInterval       int              // batches between convergence checks
	MaxAnomalyRate      float64          // discarded packets per packet above which the run fails
	Observable          tally.Observable // primary observable for convergence
	SpectrumBins        int              // escaped spectrum bins (0 = none)
	SpectrumMin         float64
	SpectrumMax         float64
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Packets:             1000000,
		BatchSize:           10000,
		Workers:             0, // Auto-detect CPU count
		Seed:                1,
		TargetRelativeError: 0,
		MinBatches:          10,
		CheckInterval:       10,
		MaxAnomalyRate:      1e-3,
		Observable:          tally.EscapedFraction,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	switch {
	case c.Packets < 1:
		return fmt.Errorf("invalid config: packets must be at least 1, got %d", c.Packets)
	case c.BatchSize < 1:
		return fmt.Errorf("invalid config: batch size must be at least 1, got %d", c.BatchSize)
	case c.Workers < 0:
		return fmt.Errorf("invalid config: workers must be non-negative, got %d", c.Workers)
	case !(c.TargetRelativeError >= 0):
		return fmt.Errorf("invalid config: target relative error must be non-negative, got %v", c.TargetRelativeError)
	case c.MinBatches < 2:
		return fmt.Errorf("invalid config: min batches must be at least 2, got %d", c.MinBatches)
	case c.CheckInterval < 1:
		return fmt.Errorf("invalid config: check interval must be at least 1, got %d", c.CheckInterval)
	case !(c.MaxAnomalyRate >= 0 && c.MaxAnomalyRate <= 1):
		return fmt.Errorf("invalid config: max anomaly rate must be in [0, 1], got %v", c.MaxAnomalyRate)
	}
	return nil
}

// NumWorkers resolves the worker count
func (c Config) NumWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// NumBatches returns the number of batches covering the packet budget
func (c Config) NumBatches() int {
	return (c.Packets + c.BatchSize - 1) / c.BatchSize
}

// batchPackets returns the size of batch k; only the last batch may be short
func (c Config) batchPackets(k int) int {
	return min(c.BatchSize, c.Packets-k*c.BatchSize)
}
