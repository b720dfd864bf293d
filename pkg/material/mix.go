package material

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// NewMix blends two materials by volume fraction: 0 is all m1, 1 is all m2
func NewMix(name string, m1, m2 *Material, ratio float64) (*Material, error) {
	ratio = math.Max(0.0, math.Min(ratio, 1.0))
	return Blend(name, []*Material{m1, m2}, []float64{1 - ratio, ratio})
}

// Blend combines materials occupying the given volume fractions of a
// medium. Coefficients add by fraction; g is averaged over the scattering
// each component contributes and n over the fractions present. The result
// is tabulated at every wavelength of the components, within the range
// they all cover.
func Blend(name string, components []*Material, fractions []float64) (*Material, error) {
	if len(components) == 0 || len(components) != len(fractions) {
		return nil, fmt.Errorf("blend %s needs one fraction per component, got %d and %d",
			name, len(components), len(fractions))
	}
	total := 0.0
	for i, f := range fractions {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("blend %s: fraction %v out of range", name, f)
		}
		if err := components[i].Validate(); err != nil {
			return nil, fmt.Errorf("blend %s: %s: %w", name, components[i].Name, err)
		}
		total += f
	}
	if !(total > 0) {
		return nil, fmt.Errorf("blend %s has no volume", name)
	}

	wavelengths, err := commonWavelengths(components)
	if err != nil {
		return nil, fmt.Errorf("blend %s: %w", name, err)
	}

	m := &Material{Name: name, Wavelengths: wavelengths}
	samples := wavelengths
	if len(samples) == 0 {
		samples = []float64{0}
	}
	for _, wl := range samples {
		var muA, muS, gScatter, n, emission float64
		for i, c := range components {
			o := c.Properties(wl)
			f := fractions[i]
			muA += f * o.MuA
			muS += f * o.MuS
			gScatter += f * o.MuS * o.G
			n += f * o.RefIndex
			emission += f * o.Emission
		}
		g := 0.0
		if muS > 0 {
			g = gScatter / muS
		}
		m.MuA = append(m.MuA, muA)
		m.MuS = append(m.MuS, muS)
		m.G = append(m.G, g)
		m.RefIndex = append(m.RefIndex, n/total)
		m.Emission = append(m.Emission, emission)
	}
	return m, nil
}

// commonWavelengths merges the tabulated wavelengths of the components,
// clipped to the range every tabulated component covers. It is empty when
// all components are constant.
func commonWavelengths(components []*Material) ([]float64, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	var merged []float64
	for _, c := range components {
		if len(c.Wavelengths) <= 1 {
			continue
		}
		lo = math.Max(lo, c.Wavelengths[0])
		hi = math.Min(hi, c.Wavelengths[len(c.Wavelengths)-1])
		merged = append(merged, c.Wavelengths...)
	}
	if merged == nil {
		return nil, nil
	}
	if lo > hi {
		return nil, errors.New("component wavelength ranges do not overlap")
	}

	sort.Float64s(merged)
	out := make([]float64, 0, len(merged))
	for _, wl := range merged {
		if wl < lo || wl > hi || (len(out) > 0 && wl == out[len(out)-1]) {
			continue
		}
		out = append(out, wl)
	}
	return out, nil
}
