package material

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Spectrum is a piecewise-linear emission spectrum sampled by inverse CDF
type Spectrum struct {
	Wavelengths []float64
	Intensity   []float64
	cdf         []float64 // cumulative bin areas, normalised to end at 1
}

// Monochromatic emits a single wavelength
func Monochromatic(wavelength float64) *Spectrum {
	return &Spectrum{Wavelengths: []float64{wavelength}, Intensity: []float64{1}}
}

// NewSpectrum tabulates intensity over ascending wavelengths
func NewSpectrum(wavelengths, intensity []float64) (*Spectrum, error) {
	if len(wavelengths) == 0 || len(wavelengths) != len(intensity) {
		return nil, fmt.Errorf("spectrum needs matching wavelengths and intensities, got %d and %d",
			len(wavelengths), len(intensity))
	}
	if len(wavelengths) == 1 {
		return Monochromatic(wavelengths[0]), nil
	}
	if !sort.Float64sAreSorted(wavelengths) {
		return nil, errors.New("spectrum wavelengths must be ascending")
	}
	for _, v := range intensity {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("spectrum intensity %v out of range", v)
		}
	}

	// Trapezoid area of each bin
	areas := make([]float64, len(wavelengths)-1)
	for i := range areas {
		areas[i] = 0.5 * (intensity[i] + intensity[i+1]) * (wavelengths[i+1] - wavelengths[i])
	}
	total := floats.Sum(areas)
	if !(total > 0) {
		return nil, errors.New("spectrum has no emission")
	}

	cdf := floats.CumSum(make([]float64, len(areas)), areas)
	floats.Scale(1/total, cdf)
	cdf[len(cdf)-1] = 1

	return &Spectrum{Wavelengths: wavelengths, Intensity: intensity, cdf: cdf}, nil
}

// Sample maps u in [0,1) to a wavelength distributed as the intensity
func (s *Spectrum) Sample(u float64) float64 {
	if len(s.Wavelengths) == 1 {
		return s.Wavelengths[0]
	}

	bin := sort.SearchFloat64s(s.cdf, u)
	if bin >= len(s.cdf) {
		bin = len(s.cdf) - 1
	}
	lower := 0.0
	if bin > 0 {
		lower = s.cdf[bin-1]
	}

	span := s.cdf[bin] - lower
	if !(span > 0) {
		return s.Wavelengths[bin]
	}

	width := s.Wavelengths[bin+1] - s.Wavelengths[bin]
	a := s.Intensity[bin]
	b := s.Intensity[bin+1]

	// Invert the linear density inside the bin: area(t) = width*(a*t + (b-a)*t²/2)
	target := (u - lower) / span * 0.5 * (a + b)
	var t float64
	if math.Abs(b-a) < 1e-12*(a+b) {
		t = target / a
	} else {
		t = (-a + math.Sqrt(a*a+2*(b-a)*target)) / (b - a)
	}
	t = math.Max(0, math.Min(1, t))
	return s.Wavelengths[bin] + t*width
}

// Range returns the lowest and highest wavelength
func (s *Spectrum) Range() (float64, float64) {
	return s.Wavelengths[0], s.Wavelengths[len(s.Wavelengths)-1]
}

// Mean returns the intensity-weighted mean wavelength
func (s *Spectrum) Mean() float64 {
	if len(s.Wavelengths) == 1 {
		return s.Wavelengths[0]
	}
	moment, area := 0.0, 0.0
	for i := 0; i+1 < len(s.Wavelengths); i++ {
		x0, x1 := s.Wavelengths[i], s.Wavelengths[i+1]
		a, b := s.Intensity[i], s.Intensity[i+1]
		h := x1 - x0
		area += 0.5 * (a + b) * h
		// ∫ x f(x) dx for linear f over the bin
		moment += h * (a*(2*x0+x1) + b*(x0+2*x1)) / 6
	}
	return moment / area
}
