package tally

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrLayoutMismatch is returned when merging tallies of different shapes
var ErrLayoutMismatch = errors.New("tally layouts differ")

// Layout fixes the size of every field. All buffers of one run share a layout.
type Layout struct {
	Cells        int // grid cells, 0 without a grid
	Regions      int // including the exterior
	Surfaces     int
	SpectrumBins int
	SpectrumMin  float64 // wavelength range of the escaped and detector spectra
	SpectrumMax  float64
}

// Len returns the number of entries of q
func (l Layout) Len(q Quantity) int {
	switch q {
	case Absorbed, Fluence:
		return l.Cells
	case RegionAbsorbed:
		return l.Regions
	case SurfaceCrossings, SurfaceWeight, SurfaceAbsorbed, SurfaceDetected:
		return l.Surfaces
	case EscapedSpectrum:
		return l.SpectrumBins
	case DetectorSpectrum:
		return l.Surfaces * l.SpectrumBins
	default:
		return 1
	}
}

// Validate checks that sizes are non-negative and the spectrum range is usable
func (l Layout) Validate() error {
	if l.Cells < 0 || l.Regions < 0 || l.Surfaces < 0 || l.SpectrumBins < 0 {
		return fmt.Errorf("negative tally size in %+v", l)
	}
	if l.SpectrumBins > 0 && !(l.SpectrumMax > l.SpectrumMin) {
		return fmt.Errorf("spectrum range [%v, %v] is empty", l.SpectrumMin, l.SpectrumMax)
	}
	return nil
}

// SpectrumBin returns the spectrum bin of a wavelength. The upper
// edge belongs to the last bin.
func (l Layout) SpectrumBin(wavelength float64) (int, bool) {
	if l.SpectrumBins == 0 || wavelength < l.SpectrumMin || wavelength > l.SpectrumMax {
		return 0, false
	}
	bin := int(float64(l.SpectrumBins) * (wavelength - l.SpectrumMin) / (l.SpectrumMax - l.SpectrumMin))
	if bin >= l.SpectrumBins {
		bin = l.SpectrumBins - 1
	}
	return bin, true
}

// Tally is one accumulation buffer. All fields live in a single slice so a
// merge is one elementwise sum. A Tally is not safe for concurrent writes;
// each worker owns its own.
type Tally struct {
	layout  Layout
	offsets [numQuantities + 1]int
	data    []float64
}

// New allocates a zeroed tally
func New(layout Layout) *Tally {
	t := &Tally{layout: layout}
	for q := Quantity(0); q < numQuantities; q++ {
		t.offsets[q+1] = t.offsets[q] + layout.Len(q)
	}
	t.data = make([]float64, t.offsets[numQuantities])
	return t
}

// Layout returns the tally's shape
func (t *Tally) Layout() Layout {
	return t.layout
}

// Deposit adds amount to entry index of q. Out-of-range indices panic.
func (t *Tally) Deposit(q Quantity, index int, amount float64) {
	if index < 0 || index >= t.offsets[q+1]-t.offsets[q] {
		panic(fmt.Sprintf("tally: %s index %d out of range [0, %d)", q, index, t.offsets[q+1]-t.offsets[q]))
	}
	t.data[t.offsets[q]+index] += amount
}

// Add increments a scalar quantity
func (t *Tally) Add(q Quantity, amount float64) {
	t.data[t.offsets[q]] += amount
}

// Emit records a launched packet
func (t *Tally) Emit(weight float64) {
	t.data[t.offsets[Emitted]] += weight
}

// Absorb records weight absorbed in a region, and in a grid cell when cell >= 0
func (t *Tally) Absorb(region, cell int, weight float64) {
	t.data[t.offsets[RegionAbsorbed]+region] += weight
	if cell >= 0 {
		t.data[t.offsets[Absorbed]+cell] += weight
	}
}

// Track records a flight segment of the given length inside a grid cell
func (t *Tally) Track(cell int, length, weight float64) {
	t.data[t.offsets[Fluence]+cell] += length * weight
}

// Cross records a packet crossing a surface
func (t *Tally) Cross(surface int, weight float64) {
	t.data[t.offsets[SurfaceCrossings]+surface]++
	t.data[t.offsets[SurfaceWeight]+surface] += weight
}

// AbsorbSurface records weight absorbed by a mirror or absorber surface
func (t *Tally) AbsorbSurface(surface int, weight float64) {
	t.data[t.offsets[SurfaceAbsorbed]+surface] += weight
}

// Detect records weight collected by a detector surface
func (t *Tally) Detect(surface int, wavelength, weight float64) {
	t.data[t.offsets[SurfaceDetected]+surface] += weight
	if bin, ok := t.layout.SpectrumBin(wavelength); ok {
		t.data[t.offsets[DetectorSpectrum]+surface*t.layout.SpectrumBins+bin] += weight
	}
}

// Spectrum returns the detector spectrum row of one surface. The slice
// aliases the tally's storage.
func (t *Tally) Spectrum(surface int) []float64 {
	n := t.layout.SpectrumBins
	row := t.Field(DetectorSpectrum)[surface*n : (surface+1)*n]
	return row[:n:n]
}

// Escape records a packet leaving the world
func (t *Tally) Escape(wavelength, weight float64) {
	t.data[t.offsets[Escaped]] += weight
	t.data[t.offsets[EscapedCount]]++
	if bin, ok := t.layout.SpectrumBin(wavelength); ok {
		t.data[t.offsets[EscapedSpectrum]+bin] += weight
	}
}

// Field returns the entries of q. The slice aliases the tally's storage.
func (t *Tally) Field(q Quantity) []float64 {
	return t.data[t.offsets[q]:t.offsets[q+1]:t.offsets[q+1]]
}

// Scalar returns the value of a scalar quantity
func (t *Tally) Scalar(q Quantity) float64 {
	return t.data[t.offsets[q]]
}

// Total sums every entry of q
func (t *Tally) Total(q Quantity) float64 {
	return floats.Sum(t.Field(q))
}

// Merge adds other into t. Merging is an elementwise sum, so any grouping
// of the same buffers gives the same totals up to rounding.
func (t *Tally) Merge(other *Tally) error {
	if t.layout != other.layout {
		return fmt.Errorf("%w: %+v and %+v", ErrLayoutMismatch, t.layout, other.layout)
	}
	floats.Add(t.data, other.data)
	return nil
}

// Reset zeroes every entry
func (t *Tally) Reset() {
	clear(t.data)
}

// Clone returns an independent copy
func (t *Tally) Clone() *Tally {
	c := *t
	c.data = append([]float64(nil), t.data...)
	return &c
}

// Equal reports whether two tallies hold identical values
func (t *Tally) Equal(other *Tally) bool {
	return t.layout == other.layout && floats.Equal(t.data, other.data)
}

// Observable evaluates a primary observable. It is zero before any emission.
func (t *Tally) Observable(o Observable) float64 {
	emitted := t.Scalar(Emitted)
	if emitted == 0 {
		return 0
	}
	switch o {
	case EscapedFraction:
		return t.Scalar(Escaped) / emitted
	case AbsorbedFraction:
		return (t.Total(RegionAbsorbed) + t.Total(SurfaceAbsorbed)) / emitted
	case DetectedFraction:
		return t.Total(SurfaceDetected) / emitted
	default:
		return 0
	}
}

// Balance returns emitted plus gained weight minus every sink. It is zero up
// to rounding for a tally of complete histories.
func (t *Tally) Balance() float64 {
	in := t.Scalar(Emitted) + t.Scalar(RouletteGained)
	out := t.Scalar(Escaped) + t.Total(RegionAbsorbed) + t.Total(SurfaceAbsorbed) + t.Total(SurfaceDetected) +
		t.Scalar(Truncated) + t.Scalar(RouletteKilled) + t.Scalar(Lost)
	return in - out
}

// Scaled returns a copy of q multiplied by scale, e.g. 1/(emitted × cell
// volume) for an absorbed energy density
func (t *Tally) Scaled(q Quantity, scale float64) []float64 {
	out := append([]float64(nil), t.Field(q)...)
	floats.Scale(scale, out)
	return out
}
