package transport

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/geometry"
	"github.com/df07/go-mcrt/pkg/material"
	"github.com/df07/go-mcrt/pkg/source"
	"github.com/df07/go-mcrt/pkg/tally"
)

// Tracer runs packet histories against an immutable scene. It holds no
// mutable state and may be shared by any number of workers.
type Tracer struct {
	kernel   *geometry.Kernel
	table    *material.Table
	grid     *geometry.Grid // optional
	settings Settings
}

// NewTracer checks that the pieces of a scene fit together
func NewTracer(kernel *geometry.Kernel, table *material.Table, grid *geometry.Grid, settings Settings) (*Tracer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if table.Len() != kernel.NumRegions() {
		return nil, fmt.Errorf("material table has %d regions, kernel has %d", table.Len(), kernel.NumRegions())
	}
	if settings.BumpDistance <= kernel.Config().Epsilon {
		return nil, fmt.Errorf("bump distance %v must exceed the intersection epsilon %v",
			settings.BumpDistance, kernel.Config().Epsilon)
	}
	return &Tracer{kernel: kernel, table: table, grid: grid, settings: settings}, nil
}

// Settings returns the tracer's settings
func (t *Tracer) Settings() Settings {
	return t.settings
}

// Layout returns the tally shape for this scene with the given escaped
// spectrum binning
func (t *Tracer) Layout(spectrumBins int, spectrumMin, spectrumMax float64) tally.Layout {
	cells := 0
	if t.grid != nil {
		cells = t.grid.Len()
	}
	return tally.Layout{
		Cells:        cells,
		Regions:      t.kernel.NumRegions(),
		Surfaces:     t.kernel.NumSurfaces(),
		SpectrumBins: spectrumBins,
		SpectrumMin:  spectrumMin,
		SpectrumMax:  spectrumMax,
	}
}

// Launch turns an emission into a packet and records the emitted weight.
// The start region is resolved a bump along the direction, so a packet born
// on a face belongs to the region it is heading into. An emission with a
// non-finite position, direction or weight is discarded.
func (t *Tracer) Launch(e source.Emission, tl *tally.Tally) Packet {
	p := Packet{
		Position:   e.Position,
		Direction:  e.Direction,
		Wavelength: e.Wavelength,
		Weight:     e.Weight,
		State:      Emitted,
	}
	if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		p.Weight = 0
		t.discard(&p, tl)
		return p
	}

	tl.Emit(e.Weight)
	if !e.Position.IsFinite() || !validDirection(e.Direction) {
		t.discard(&p, tl)
		return p
	}
	p.Direction = e.Direction.Normalize()
	p.Region = t.kernel.Locate(p.Position.Add(p.Direction.Multiply(t.settings.BumpDistance)))
	return p
}

// Trace runs one full history and returns the final packet
func (t *Tracer) Trace(e source.Emission, sampler core.Sampler, tl *tally.Tally) Packet {
	p := t.Launch(e, tl)
	for !p.State.Terminal() {
		t.Step(&p, sampler, tl)
	}
	return p
}

// Step advances a packet by one free flight and the event that ends it
func (t *Tracer) Step(p *Packet, sampler core.Sampler, tl *tally.Tally) State {
	if p.State.Terminal() {
		return p.State
	}
	if p.Region == geometry.Exterior {
		return t.escape(p, tl)
	}
	if p.Steps >= t.settings.LoopLimit || p.Scatters >= t.settings.MaxScatters {
		tl.Add(tally.Truncated, p.Weight)
		tl.Add(tally.Capped, 1)
		p.State = Terminated
		return p.State
	}
	p.Steps++
	tl.Add(tally.Events, 1)

	if p.Weight < t.settings.RouletteThreshold && !t.roulette(p, sampler, tl) {
		return p.State
	}

	optics := t.table.Optics(p.Region, p.Wavelength)
	flight := math.Inf(1)
	if optics.MuT > 0 {
		flight = core.SampleFreePath(sampler.Get1D()) / optics.MuT
	}

	ray := core.NewRay(p.Position, p.Direction)
	if hit, ok := t.kernel.Intersect(ray, flight); ok {
		t.track(ray, hit.Distance, p.Weight, tl)
		p.Position = hit.Point
		return t.surface(p, hit, sampler, tl)
	}

	if math.IsInf(flight, 1) {
		// Nothing ahead in a transparent region: the packet slipped through a
		// crack between faces. Resolve where it actually is.
		if !p.Position.IsFinite() || !validDirection(p.Direction) {
			return t.discard(p, tl)
		}
		next := t.kernel.Locate(p.Position.Add(p.Direction.Multiply(t.settings.BumpDistance)))
		if next == geometry.Exterior {
			return t.escape(p, tl)
		}
		return t.discard(p, tl)
	}

	t.track(ray, flight, p.Weight, tl)
	p.Position = ray.At(flight)
	if !p.Position.IsFinite() {
		return t.discard(p, tl)
	}
	return t.interact(p, optics, sampler, tl)
}

// interact resolves an interaction inside the medium
func (t *Tracer) interact(p *Packet, optics material.Optics, sampler core.Sampler, tl *tally.Tally) State {
	region := int(p.Region)
	cell := t.cell(p.Position)

	if t.settings.ImplicitCapture {
		absorbed := p.Weight * (1 - optics.Albedo)
		tl.Absorb(region, cell, absorbed)
		p.Weight -= absorbed
		if p.Weight <= 0 {
			p.Weight = 0
			p.State = Absorbing
			return p.State
		}
	} else if sampler.Get1D() >= optics.Albedo {
		tl.Absorb(region, cell, p.Weight)
		p.Weight = 0
		p.State = Absorbing
		return p.State
	}

	for attempt := 0; ; attempt++ {
		cosTheta := core.SampleHenyeyGreenstein(optics.G, sampler.Get1D())
		dir := core.Deflect(p.Direction, cosTheta, 2*math.Pi*sampler.Get1D())
		if validDirection(dir) {
			p.Direction = dir.Normalize()
			break
		}
		if attempt >= t.settings.MaxResamples {
			return t.discard(p, tl)
		}
		tl.Add(tally.Resampled, 1)
	}

	p.Scatters++
	p.State = Scattering
	return p.State
}

// surface applies the boundary condition of the face the packet reached
func (t *Tracer) surface(p *Packet, hit geometry.Hit, sampler core.Sampler, tl *tally.Tally) State {
	s := t.kernel.Surface(hit.Surface)
	normal := hit.Normal
	if normal.Dot(p.Direction) > 0 {
		normal = normal.Negate()
	}

	switch s.Boundary.Kind {
	case geometry.Absorber:
		tl.AbsorbSurface(int(s.ID), p.Weight)
		p.Weight = 0
		p.State = Absorbing
		return p.State

	case geometry.Detector:
		tl.Detect(int(s.ID), p.Wavelength, p.Weight)
		p.Weight = 0
		p.State = Absorbing
		return p.State

	case geometry.Periodic:
		return t.wrap(p, s, tl)

	case geometry.Mirror:
		absorbed := p.Weight * s.Boundary.Absorption
		tl.AbsorbSurface(int(s.ID), absorbed)
		p.Weight -= absorbed
		if s.Boundary.Diffuse {
			p.Direction = core.SampleCosineHemisphere(normal, sampler.Get2D())
		} else {
			p.Direction = reflectVector(p.Direction, normal)
		}
		return t.reflect(p, tl)
	}

	ahead := p.Position.Add(p.Direction.Multiply(t.settings.BumpDistance))
	next := t.kernel.Locate(ahead)
	if next == p.Region {
		// Coincident faces or a clipped face: nothing changes across it
		p.Position = ahead
		p.State = Crossing
		return p.State
	}

	n1 := t.table.Optics(p.Region, p.Wavelength).RefIndex
	n2 := t.table.Optics(next, p.Wavelength).RefIndex
	if n1 != n2 {
		f := NewFresnel(p.Direction, normal, n1, n2)
		if f.TotalInternal || sampler.Get1D() < f.Reflectance {
			p.Direction = f.Reflected
			return t.reflect(p, tl)
		}
		if !validDirection(f.Transmitted) {
			return t.discard(p, tl)
		}
		p.Direction = f.Transmitted.Normalize()
		ahead = p.Position.Add(p.Direction.Multiply(t.settings.BumpDistance))
		next = t.kernel.Locate(ahead)
	}

	tl.Cross(int(s.ID), p.Weight)
	p.Position = ahead
	p.Region = next
	if next == geometry.Exterior {
		return t.escape(p, tl)
	}
	p.State = Crossing
	return p.State
}

// wrap carries a packet through a periodic world face to the opposite face
func (t *Tracer) wrap(p *Packet, s *geometry.Surface, tl *tally.Tally) State {
	tl.Cross(int(s.ID), p.Weight)
	ahead := t.kernel.Wrap(p.Position.Add(p.Direction.Multiply(t.settings.BumpDistance)))
	p.Position = ahead
	p.Region = t.kernel.Locate(ahead)
	if p.Region == geometry.Exterior {
		// Left through an open face at a corner
		return t.escape(p, tl)
	}
	p.State = Crossing
	return p.State
}

// reflect leaves a reflected packet on the surface in its current region.
// The intersection epsilon keeps it off the face it just left.
func (t *Tracer) reflect(p *Packet, tl *tally.Tally) State {
	if !validDirection(p.Direction) {
		return t.discard(p, tl)
	}
	p.Direction = p.Direction.Normalize()
	p.State = Crossing
	return p.State
}

// roulette plays Russian roulette and reports whether the packet survived
func (t *Tracer) roulette(p *Packet, sampler core.Sampler, tl *tally.Tally) bool {
	survival := t.settings.RouletteSurvival
	if sampler.Get1D() < survival {
		boosted := p.Weight / survival
		tl.Add(tally.RouletteGained, boosted-p.Weight)
		p.Weight = boosted
		return true
	}
	tl.Add(tally.RouletteKilled, p.Weight)
	p.Weight = 0
	p.State = Terminated
	return false
}

func (t *Tracer) escape(p *Packet, tl *tally.Tally) State {
	tl.Escape(p.Wavelength, p.Weight)
	p.State = Escaping
	return p.State
}

func (t *Tracer) discard(p *Packet, tl *tally.Tally) State {
	tl.Add(tally.Discarded, 1)
	tl.Add(tally.Lost, p.Weight)
	p.Weight = 0
	p.State = Terminated
	return p.State
}

// track deposits track-length fluence along a flight segment
func (t *Tracer) track(ray core.Ray, length, weight float64, tl *tally.Tally) {
	if t.grid == nil || math.IsInf(length, 0) {
		return
	}
	t.grid.Walk(ray, length, func(cell int, segment float64) {
		tl.Track(cell, segment, weight)
	})
}

func (t *Tracer) cell(p core.Vec3) int {
	if t.grid == nil {
		return -1
	}
	if i, ok := t.grid.Index(p); ok {
		return i
	}
	return -1
}

func validDirection(d core.Vec3) bool {
	if !d.IsFinite() {
		return false
	}
	l := d.Length()
	return l > 0.5 && l < 1.5
}

// Grid returns the tally grid, nil when there is none
func (t *Tracer) Grid() *geometry.Grid {
	return t.grid
}
