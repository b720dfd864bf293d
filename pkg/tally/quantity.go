package tally

import (
	"fmt"
	"strings"
)

// Quantity names one accumulated field of a tally
type Quantity int

const (
	// Absorbed is weight absorbed per grid cell
	Absorbed Quantity = iota
	// Fluence is track length times weight per grid cell
	Fluence
	// RegionAbsorbed is weight absorbed per region
	RegionAbsorbed
	// SurfaceCrossings counts packets crossing each surface
	SurfaceCrossings
	// SurfaceWeight is weight carried across each surface
	SurfaceWeight
	// SurfaceAbsorbed is weight absorbed by mirror and absorber surfaces
	SurfaceAbsorbed
	// SurfaceDetected is weight collected by detector surfaces
	SurfaceDetected
	// EscapedSpectrum is escaped weight binned by wavelength
	EscapedSpectrum
	// DetectorSpectrum is detected weight binned by wavelength, one row of
	// SpectrumBins per surface
	DetectorSpectrum

	// Emitted is total launched weight
	Emitted
	// Escaped is weight that left the world box
	Escaped
	// EscapedCount counts escaped packets
	EscapedCount
	// Truncated is weight still in flight when a history hit its cap
	Truncated
	// RouletteKilled is weight removed by Russian roulette
	RouletteKilled
	// RouletteGained is weight added to roulette survivors
	RouletteGained
	// Lost is weight of packets discarded after unrecoverable numerical errors
	Lost
	// Capped counts histories ended by the scatter or step cap
	Capped
	// Resampled counts directions redrawn after a numerical anomaly
	Resampled
	// Discarded counts packets dropped after repeated anomalies
	Discarded
	// Events counts state machine steps
	Events

	numQuantities
)

var quantityNames = [numQuantities]string{
	Absorbed:         "absorbed",
	Fluence:          "fluence",
	RegionAbsorbed:   "region absorbed",
	SurfaceCrossings: "surface crossings",
	SurfaceWeight:    "surface weight",
	SurfaceAbsorbed:  "surface absorbed",
	SurfaceDetected:  "surface detected",
	EscapedSpectrum:  "escaped spectrum",
	DetectorSpectrum: "detector spectrum",
	Emitted:          "emitted",
	Escaped:          "escaped",
	EscapedCount:     "escaped count",
	Truncated:        "truncated",
	RouletteKilled:   "roulette killed",
	RouletteGained:   "roulette gained",
	Lost:             "lost",
	Capped:           "capped",
	Resampled:        "resampled",
	Discarded:        "discarded",
	Events:           "events",
}

func (q Quantity) String() string {
	if q < 0 || q >= numQuantities {
		return "unknown"
	}
	return quantityNames[q]
}

// IsScalar reports whether q is a single number rather than a field
func (q Quantity) IsScalar() bool {
	return q >= Emitted && q < numQuantities
}

// Scalars lists the scalar quantities in display order
func Scalars() []Quantity {
	out := make([]Quantity, 0, numQuantities-Emitted)
	for q := Emitted; q < numQuantities; q++ {
		out = append(out, q)
	}
	return out
}

// Observable is a scalar estimate normalised by emitted weight
type Observable int

const (
	// EscapedFraction is Escaped / Emitted
	EscapedFraction Observable = iota
	// AbsorbedFraction is total absorbed weight / Emitted
	AbsorbedFraction
	// DetectedFraction is weight collected by detectors / Emitted
	DetectedFraction
)

func (o Observable) String() string {
	switch o {
	case EscapedFraction:
		return "escaped fraction"
	case AbsorbedFraction:
		return "absorbed fraction"
	case DetectedFraction:
		return "detected fraction"
	default:
		return "unknown"
	}
}

// ParseObservable accepts "escaped", "absorbed" or "detected", or the full names
func ParseObservable(name string) (Observable, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "escaped", "escaped fraction":
		return EscapedFraction, nil
	case "absorbed", "absorbed fraction":
		return AbsorbedFraction, nil
	case "detected", "detected fraction":
		return DetectedFraction, nil
	}
	return EscapedFraction, fmt.Errorf("unknown observable %q", name)
}
