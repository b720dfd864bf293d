package source

import (
	"math"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/material"
)

// Spot emits from a point into a cone around Direction, like the output of
// an optical fibre. Directions are uniform over the cone's solid angle; past
// the falloff start the packet weight drops smoothly to zero at the edge.
type Spot struct {
	Position        core.Vec3
	Direction       core.Vec3
	Spectrum        *material.Spectrum
	cosTotalWidth   float64 // cosine of the cone half-angle
	cosFalloffStart float64 // cosine of the angle where falloff begins
}

// NewSpot creates a cone emitter with a half-angle and a falloff band, both
// in degrees. A zero band gives a hard edge.
func NewSpot(position, direction core.Vec3, coneAngleDegrees, coneDeltaAngleDegrees float64, spectrum *material.Spectrum) *Spot {
	total := coneAngleDegrees * math.Pi / 180.0
	falloffStart := (coneAngleDegrees - coneDeltaAngleDegrees) * math.Pi / 180.0
	return &Spot{
		Position:        position,
		Direction:       direction.Normalize(),
		Spectrum:        spectrum,
		cosTotalWidth:   math.Cos(total),
		cosFalloffStart: math.Cos(math.Max(0, falloffStart)),
	}
}

// NewFibre creates a hard-edged spot from a numerical aperture and the
// refractive index of the medium the fibre emits into
func NewFibre(position, direction core.Vec3, numericalAperture, refIndex float64, spectrum *material.Spectrum) *Spot {
	halfAngle := math.Asin(math.Min(1, numericalAperture/refIndex)) * 180 / math.Pi
	return NewSpot(position, direction, halfAngle, 0, spectrum)
}

func (s *Spot) Emit(sampler core.Sampler) Emission {
	direction := core.SampleCone(s.Direction, s.cosTotalWidth, sampler.Get2D()).Normalize()
	return Emission{
		Position:   s.Position,
		Direction:  direction,
		Wavelength: s.Spectrum.Sample(sampler.Get1D()),
		Weight:     s.falloff(direction.Dot(s.Direction)),
	}
}

// falloff is the angular weight: 1 inside the inner cone, a quartic ramp in
// the falloff band and 0 outside. Directions drawn from the cone may land a
// rounding error past its edge.
func (s *Spot) falloff(cosAngle float64) float64 {
	const slack = 1e-12
	if cosAngle < s.cosTotalWidth-slack {
		return 0
	}
	if cosAngle >= s.cosFalloffStart || s.cosFalloffStart <= s.cosTotalWidth {
		return 1
	}
	delta := math.Max(0, (cosAngle-s.cosTotalWidth)/(s.cosFalloffStart-s.cosTotalWidth))
	return delta * delta * delta * delta
}

func (s *Spot) Type() string {
	return "spot"
}
