package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-mcrt/pkg/tally"
)

// Diagnostics summarises numerical health of a run
type Diagnostics struct {
	Capped      float64 // histories ended by the scatter or step cap
	Resampled   float64 // directions redrawn after a numerical fault
	Discarded   float64 // packets dropped after repeated faults
	Events      float64 // state machine steps
	AnomalyRate float64 // Discarded per packet
}

func newDiagnostics(t *tally.Tally, packets int) Diagnostics {
	d := Diagnostics{
		Capped:    t.Scalar(tally.Capped),
		Resampled: t.Scalar(tally.Resampled),
		Discarded: t.Scalar(tally.Discarded),
		Events:    t.Scalar(tally.Events),
	}
	if packets > 0 {
		d.AnomalyRate = d.Discarded / float64(packets)
	}
	return d
}

// Result is the merged output of a run and its metadata
type Result struct {
	RunID         uuid.UUID
	Tally         *tally.Tally
	Observable    tally.Observable
	Packets       int
	Batches       int
	RelativeError float64 // batch-means estimate for Observable, +Inf when unknown
	Converged     bool
	Cancelled     bool
	WallTime      time.Duration
	Diagnostics   Diagnostics
	CellVolume    float64 // grid cell volume, 0 without a grid
}

// Estimate returns the value of the primary observable
func (r *Result) Estimate() float64 {
	return r.Tally.Observable(r.Observable)
}

// Density returns a per-cell field normalised per unit emitted weight and
// per unit volume: absorbed energy density for Absorbed, fluence rate for
// Fluence. It is nil without a grid or before any emission.
func (r *Result) Density(q tally.Quantity) []float64 {
	emitted := r.Tally.Scalar(tally.Emitted)
	if r.CellVolume == 0 || emitted == 0 {
		return nil
	}
	return r.Tally.Scaled(q, 1/(emitted*r.CellVolume))
}

// PacketsPerSecond returns the throughput of the run
func (r *Result) PacketsPerSecond() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.Packets) / r.WallTime.Seconds()
}
