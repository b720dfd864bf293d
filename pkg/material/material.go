package material

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Optics is the optical property record of a region at one wavelength.
// Coefficients are per unit length.
type Optics struct {
	MuA      float64 // absorption coefficient
	MuS      float64 // scattering coefficient
	MuT      float64 // extinction, MuA + MuS
	Albedo   float64 // single-scatter albedo, MuS / MuT (0 when MuT is 0)
	G        float64 // Henyey-Greenstein asymmetry parameter
	RefIndex float64 // refractive index
	Emission float64 // volume emission term
}

// Vacuum has no interaction and unit refractive index. It is returned for
// the exterior region and for wavelengths outside a material's table.
var Vacuum = Optics{RefIndex: 1}

// Interacts reports whether the medium can absorb or scatter
func (o Optics) Interacts() bool {
	return o.MuT > 0
}

func newOptics(muA, muS, g, n, emission float64) Optics {
	o := Optics{MuA: muA, MuS: muS, MuT: muA + muS, G: g, RefIndex: n, Emission: emission}
	if o.MuT > 0 {
		o.Albedo = muS / o.MuT
	}
	return o
}

// Material tabulates optical properties over wavelength. A channel holds
// either one value (wavelength independent) or one value per wavelength.
// With at most one wavelength the material is constant everywhere.
type Material struct {
	Name        string
	Wavelengths []float64 // ascending
	MuA         []float64
	MuS         []float64
	G           []float64
	RefIndex    []float64
	Emission    []float64
}

// NewConstant creates a wavelength independent material
func NewConstant(name string, muA, muS, g, refIndex float64) *Material {
	return &Material{
		Name:     name,
		MuA:      []float64{muA},
		MuS:      []float64{muS},
		G:        []float64{g},
		RefIndex: []float64{refIndex},
	}
}

// NewVacuum creates a non-interacting material with unit refractive index
func NewVacuum(name string) *Material {
	return NewConstant(name, 0, 0, 0, 1)
}

// Validate checks table shapes and physical ranges
func (m *Material) Validate() error {
	if len(m.Wavelengths) > 1 && !sort.Float64sAreSorted(m.Wavelengths) {
		return errors.New("wavelengths must be ascending")
	}
	for i := 1; i < len(m.Wavelengths); i++ {
		if m.Wavelengths[i] == m.Wavelengths[i-1] {
			return fmt.Errorf("duplicate wavelength %v", m.Wavelengths[i])
		}
	}

	channels := []struct {
		name     string
		values   []float64
		optional bool
		valid    func(float64) bool
	}{
		{"mu_a", m.MuA, false, func(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }},
		{"mu_s", m.MuS, false, func(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }},
		{"g", m.G, true, func(v float64) bool { return v > -1 && v < 1 }},
		{"refractive index", m.RefIndex, true, func(v float64) bool { return v >= 1 && !math.IsInf(v, 0) }},
		{"emission", m.Emission, true, func(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }},
	}
	for _, c := range channels {
		if len(c.values) == 0 {
			if c.optional {
				continue
			}
			return fmt.Errorf("%s has no values", c.name)
		}
		if len(c.values) != 1 && len(c.values) != len(m.Wavelengths) {
			return fmt.Errorf("%s has %d values for %d wavelengths", c.name, len(c.values), len(m.Wavelengths))
		}
		for _, v := range c.values {
			if !c.valid(v) {
				return fmt.Errorf("%s value %v out of range", c.name, v)
			}
		}
	}
	return nil
}

// Properties interpolates the table linearly at wavelength. Outside the
// tabulated range it returns Vacuum.
func (m *Material) Properties(wavelength float64) Optics {
	if len(m.Wavelengths) <= 1 {
		return newOptics(
			channel(m.MuA, 0, 0, 0),
			channel(m.MuS, 0, 0, 0),
			channel(m.G, 0, 0, 0),
			channelOr(m.RefIndex, 0, 0, 0, 1),
			channel(m.Emission, 0, 0, 0),
		)
	}

	last := len(m.Wavelengths) - 1
	if !(wavelength >= m.Wavelengths[0] && wavelength <= m.Wavelengths[last]) {
		return Vacuum
	}

	// First tabulated wavelength >= the query
	hi := sort.SearchFloat64s(m.Wavelengths, wavelength)
	lo := hi
	frac := 0.0
	if m.Wavelengths[hi] != wavelength {
		lo = hi - 1
		frac = (wavelength - m.Wavelengths[lo]) / (m.Wavelengths[hi] - m.Wavelengths[lo])
	}

	return newOptics(
		channel(m.MuA, lo, hi, frac),
		channel(m.MuS, lo, hi, frac),
		channel(m.G, lo, hi, frac),
		channelOr(m.RefIndex, lo, hi, frac, 1),
		channel(m.Emission, lo, hi, frac),
	)
}

func channel(values []float64, lo, hi int, frac float64) float64 {
	return channelOr(values, lo, hi, frac, 0)
}

func channelOr(values []float64, lo, hi int, frac, fallback float64) float64 {
	switch len(values) {
	case 0:
		return fallback
	case 1:
		return values[0]
	default:
		return values[lo] + (values[hi]-values[lo])*frac
	}
}

func (m *Material) String() string {
	if len(m.Wavelengths) <= 1 {
		o := m.Properties(0)
		return fmt.Sprintf("%s{mu_a=%g mu_s=%g g=%g n=%g}", m.Name, o.MuA, o.MuS, o.G, o.RefIndex)
	}
	return fmt.Sprintf("%s{%d wavelengths %g..%g}", m.Name, len(m.Wavelengths),
		m.Wavelengths[0], m.Wavelengths[len(m.Wavelengths)-1])
}
