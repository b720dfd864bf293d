package source

import (
	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/material"
)

// Emission is a freshly launched packet
type Emission struct {
	Position   core.Vec3
	Direction  core.Vec3 // unit vector
	Wavelength float64
	Weight     float64
}

// Source launches packets. Implementations are immutable and shared by all
// workers; randomness comes only from the sampler.
type Source interface {
	Emit(sampler core.Sampler) Emission
	Type() string
}

// PointSource emits isotropically from a point
type PointSource struct {
	Position core.Vec3
	Spectrum *material.Spectrum
}

// NewPointSource creates an isotropic point emitter
func NewPointSource(position core.Vec3, spectrum *material.Spectrum) *PointSource {
	return &PointSource{Position: position, Spectrum: spectrum}
}

func (p *PointSource) Emit(sampler core.Sampler) Emission {
	return Emission{
		Position:   p.Position,
		Direction:  core.SampleOnUnitSphere(sampler.Get2D()),
		Wavelength: p.Spectrum.Sample(sampler.Get1D()),
		Weight:     1,
	}
}

func (p *PointSource) Type() string {
	return "point"
}

// Beam emits collimated packets, uniformly over a disc of the given radius
// perpendicular to the direction. A zero radius gives a pencil beam.
type Beam struct {
	Origin    core.Vec3
	Direction core.Vec3
	Radius    float64
	Spectrum  *material.Spectrum
	u, v      core.Vec3
}

// NewBeam creates a collimated beam
func NewBeam(origin, direction core.Vec3, radius float64, spectrum *material.Spectrum) *Beam {
	dir := direction.Normalize()
	u, v := core.OrthonormalBasis(dir)
	return &Beam{Origin: origin, Direction: dir, Radius: radius, Spectrum: spectrum, u: u, v: v}
}

func (b *Beam) Emit(sampler core.Sampler) Emission {
	position := b.Origin
	if b.Radius > 0 {
		disk := core.SamplePointInUnitDisk(sampler.Get2D())
		position = position.
			Add(b.u.Multiply(disk.X * b.Radius)).
			Add(b.v.Multiply(disk.Y * b.Radius))
	}
	return Emission{
		Position:   position,
		Direction:  b.Direction,
		Wavelength: b.Spectrum.Sample(sampler.Get1D()),
		Weight:     1,
	}
}

func (b *Beam) Type() string {
	return "beam"
}
