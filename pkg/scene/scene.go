package scene

import (
	"math"

	"github.com/df07/go-mcrt/pkg/geometry"
	"github.com/df07/go-mcrt/pkg/material"
	"github.com/df07/go-mcrt/pkg/source"
	"github.com/df07/go-mcrt/pkg/tally"
	"github.com/df07/go-mcrt/pkg/transport"
)

// Scene is a finished, validated problem: geometry, materials, an emitter
// and the tally grid
type Scene struct {
	Info     SceneInfo
	Kernel   *geometry.Kernel
	Table    *material.Table
	Grid     *geometry.Grid // nil when no spatial field is tallied
	Source   source.Source
	Settings transport.Settings

	Observable tally.Observable
	Expected   float64 // analytic value of Observable, NaN when none is known

	SpectrumBins int
	SpectrumMin  float64
	SpectrumMax  float64
}

// Tracer creates the transport tracer for the scene
func (s *Scene) Tracer() (*transport.Tracer, error) {
	return transport.NewTracer(s.Kernel, s.Table, s.Grid, s.Settings)
}

// HasExpected reports whether an analytic reference value is known
func (s *Scene) HasExpected() bool {
	return !math.IsNaN(s.Expected)
}

// PrimitiveCount returns the number of surfaces in the arena
func (s *Scene) PrimitiveCount() int {
	return s.Kernel.NumSurfaces()
}

// TriangleCount counts triangles contributed by mesh regions
func (s *Scene) TriangleCount() int {
	count := 0
	for id := geometry.World; int(id) < s.Kernel.NumRegions(); id++ {
		if mesh, ok := s.Kernel.Region(id).Solid.(*geometry.Mesh); ok {
			count += mesh.TriangleCount()
		}
	}
	return count
}

// assemble builds the kernel and material table of a scene
func assemble(info SceneInfo, b *geometry.Builder, materials map[string]*material.Material) (*Scene, error) {
	kernel, err := b.Build(geometry.DefaultBuildConfig())
	if err != nil {
		return nil, err
	}
	table, err := material.NewTable(kernel, materials)
	if err != nil {
		return nil, err
	}
	return &Scene{
		Info:     info,
		Kernel:   kernel,
		Table:    table,
		Settings: transport.DefaultSettings(),
		Expected: math.NaN(),
	}, nil
}
