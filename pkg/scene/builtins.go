package scene

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/geometry"
	"github.com/df07/go-mcrt/pkg/loaders"
	"github.com/df07/go-mcrt/pkg/material"
	"github.com/df07/go-mcrt/pkg/source"
	"github.com/df07/go-mcrt/pkg/tally"
)

func cube(half float64) core.AABB {
	return core.NewAABB(core.NewVec3(-half, -half, -half), core.NewVec3(half, half, half))
}

// NewAbsorbingSlab creates a purely absorbing slab of optical thickness tau
// (mu_a = 1, thickness tau) lit by a pencil beam normal to its near face.
// The escaped fraction is exp(-tau).
func NewAbsorbingSlab(info SceneInfo, tau float64) (*Scene, error) {
	if !(tau > 0) {
		return nil, fmt.Errorf("slab optical thickness must be positive, got %v", tau)
	}

	world := core.NewAABB(core.NewVec3(-5, -5, -1), core.NewVec3(5, 5, tau+1))
	b := geometry.NewBuilder(world, "vacuum")
	b.AddRegion("slab", geometry.World, geometry.NewSlab(core.Vec3{}, core.NewVec3(0, 0, 1), tau), "absorber")

	s, err := assemble(info, b, map[string]*material.Material{
		"vacuum":   material.NewVacuum("vacuum"),
		"absorber": material.NewConstant("absorber", 1, 0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	// Depth profile along the beam
	s.Grid, err = geometry.NewGrid(core.NewAABB(core.NewVec3(-0.5, -0.5, 0), core.NewVec3(0.5, 0.5, tau)), 1, 1, 20)
	if err != nil {
		return nil, err
	}
	s.Source = source.NewBeam(core.Vec3{}, core.NewVec3(0, 0, 1), 0, material.Monochromatic(550))
	s.Observable = tally.EscapedFraction
	s.Expected = math.Exp(-tau)
	return s, nil
}

// NewInfiniteMedium creates an isotropic point source at the centre of an
// absorbing sphere. Beyond the sphere nothing interacts, so the sphere
// stands in for an infinite medium and absorbs 1 - exp(-muA·radius).
func NewInfiniteMedium(info SceneInfo, muA, radius float64) (*Scene, error) {
	if !(muA > 0) || !(radius > 0) {
		return nil, fmt.Errorf("medium needs positive absorption and radius, got %v and %v", muA, radius)
	}

	b := geometry.NewBuilder(cube(2*radius), "vacuum")
	b.AddRegion("medium", geometry.World, geometry.NewSphere(core.Vec3{}, radius), "absorber")

	s, err := assemble(info, b, map[string]*material.Material{
		"vacuum":   material.NewVacuum("vacuum"),
		"absorber": material.NewConstant("absorber", muA, 0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	s.Grid, err = geometry.NewGrid(cube(radius), 16, 16, 16)
	if err != nil {
		return nil, err
	}
	s.Source = source.NewPointSource(core.Vec3{}, material.Monochromatic(550))
	s.Observable = tally.AbsorbedFraction
	s.Expected = 1 - math.Exp(-muA*radius)
	return s, nil
}

// NewScatteringSphere creates a point source inside a non-absorbing
// scattering sphere. Every packet eventually escapes.
func NewScatteringSphere(info SceneInfo, muS, g, refIndex float64) (*Scene, error) {
	b := geometry.NewBuilder(cube(2), "vacuum")
	b.AddRegion("cloud", geometry.World, geometry.NewSphere(core.Vec3{}, 1), "cloud")

	s, err := assemble(info, b, map[string]*material.Material{
		"vacuum": material.NewVacuum("vacuum"),
		"cloud":  material.NewConstant("cloud", 0, muS, g, refIndex),
	})
	if err != nil {
		return nil, err
	}

	s.Grid, err = geometry.NewGrid(cube(1), 20, 20, 20)
	if err != nil {
		return nil, err
	}
	s.Source = source.NewPointSource(core.Vec3{}, material.Monochromatic(550))
	s.Observable = tally.EscapedFraction
	s.Expected = 1
	return s, nil
}

// tissue tabulates optics at 450, 600 and 750 nm (lengths in mm)
func tissue(name string, muA, muS [3]float64, g, n float64) *material.Material {
	return &material.Material{
		Name:        name,
		Wavelengths: []float64{450, 600, 750},
		MuA:         muA[:],
		MuS:         muS[:],
		G:           []float64{g},
		RefIndex:    []float64{n},
	}
}

// NewLayeredSlab creates three stacked tissue layers under air, lit by a
// broadband disc beam
func NewLayeredSlab(info SceneInfo) (*Scene, error) {
	world := core.NewAABB(core.NewVec3(-10, -10, -3.5), core.NewVec3(10, 10, 1))
	b := geometry.NewBuilder(world, "air")

	up := core.NewVec3(0, 0, 1)
	b.AddRegion("epidermis", geometry.World, geometry.NewSlab(core.NewVec3(0, 0, -0.1), up, 0.1), "epidermis")
	b.AddRegion("dermis", geometry.World, geometry.NewSlab(core.NewVec3(0, 0, -1.1), up, 1.0), "dermis")
	b.AddRegion("subcutis", geometry.World, geometry.NewSlab(core.NewVec3(0, 0, -3.1), up, 2.0), "subcutis")
	// Skin has no side edges
	b.SetPeriodic(0, 1)

	// Dermis is bloodless connective tissue perfused with 2% blood
	dermis, err := material.NewMix("dermis",
		tissue("bloodless dermis", [3]float64{0.3, 0.25, 0.2}, [3]float64{20, 15, 12}, 0.9, 1.4),
		tissue("blood", [3]float64{10, 3, 0.5}, [3]float64{60, 55, 50}, 0.98, 1.4),
		0.02)
	if err != nil {
		return nil, err
	}

	s, err := assemble(info, b, map[string]*material.Material{
		"air":       material.NewVacuum("air"),
		"epidermis": tissue("epidermis", [3]float64{2.0, 1.0, 0.5}, [3]float64{40, 30, 25}, 0.8, 1.4),
		"dermis":    dermis,
		"subcutis":  tissue("subcutis", [3]float64{0.2, 0.15, 0.1}, [3]float64{10, 9, 8}, 0.8, 1.44),
	})
	if err != nil {
		return nil, err
	}

	spectrum, err := material.NewSpectrum([]float64{450, 600, 750}, []float64{0.5, 1, 0.5})
	if err != nil {
		return nil, err
	}
	s.Grid, err = geometry.NewGrid(core.NewAABB(core.NewVec3(-2, -2, -3.1), core.NewVec3(2, 2, 0)), 20, 20, 31)
	if err != nil {
		return nil, err
	}
	s.Source = source.NewBeam(core.NewVec3(0, 0, 0.5), core.NewVec3(0, 0, -1), 0.5, spectrum)
	s.Observable = tally.EscapedFraction
	s.SpectrumBins = 30
	s.SpectrumMin = 450
	s.SpectrumMax = 750
	return s, nil
}

//go:embed assets/lump.ply
var lumpPLY []byte

// lumpMesh reads the embedded cube mesh and places it with transform
func lumpMesh(transform geometry.Transform) (*geometry.Mesh, error) {
	data, err := loaders.ReadPLY(bytes.NewReader(lumpPLY))
	if err != nil {
		return nil, err
	}
	return data.Mesh(transform), nil
}

// NewNested creates a scattering glass shell holding a rotated mesh of
// tissue, a diffusely mirrored cavity and an absorbing detector. Packets come
// from a beam and from the tissue itself.
func NewNested(info SceneInfo) (*Scene, error) {
	b := geometry.NewBuilder(cube(3), "vacuum")
	shell := b.AddRegion("shell", geometry.World, geometry.NewSphere(core.Vec3{}, 2), "glass")

	placement := geometry.Scaling(core.NewVec3(0.5, 0.5, 0.5)).
		Then(geometry.Rotation(core.NewVec3(0.3, 0.5, 0))).
		Then(geometry.Translation(core.NewVec3(-0.8, 0, 0)))
	mesh, err := lumpMesh(placement)
	if err != nil {
		return nil, err
	}
	lump := b.AddRegion("lump", shell, mesh, "tissue")

	cavity := b.AddRegion("cavity", shell,
		geometry.NewBox(core.NewVec3(0.8, 0, 0), core.NewVec3(0.3, 0.3, 0.3), core.NewVec3(0, 0.4, 0.2)), "vacuum")
	b.SetBoundary(cavity, geometry.Boundary{Kind: geometry.Mirror, Absorption: 0.1, Diffuse: true})

	detector := b.AddRegion("detector", shell, geometry.NewSphere(core.NewVec3(0, 1.2, 0), 0.2), "vacuum")
	b.SetBoundary(detector, geometry.Boundary{Kind: geometry.Absorber})

	s, err := assemble(info, b, map[string]*material.Material{
		"vacuum": material.NewVacuum("vacuum"),
		"glass":  material.NewConstant("glass", 0.01, 1, 0.5, 1.5),
		"tissue": material.NewConstant("tissue", 0.5, 5, 0.9, 1.37),
	})
	if err != nil {
		return nil, err
	}

	spectrum := material.Monochromatic(630)
	glow, err := source.NewVolumeSource(s.Kernel, lump, spectrum)
	if err != nil {
		return nil, err
	}
	beam := source.NewBeam(core.NewVec3(0, 0, -2.9), core.NewVec3(0, 0, 1), 0.3, spectrum)
	s.Source, err = source.NewMixture([]source.Source{glow, beam}, []float64{1, 3})
	if err != nil {
		return nil, err
	}

	s.Grid, err = geometry.NewGrid(cube(2), 24, 24, 24)
	if err != nil {
		return nil, err
	}
	s.Observable = tally.AbsorbedFraction
	return s, nil
}

// NewCuvette creates a glass cuvette of scattering liquid lit from above by
// an optical fibre. The fibre sits in a conical housing whose faces count
// the light scattered back into it.
func NewCuvette(info SceneInfo) (*Scene, error) {
	b := geometry.NewBuilder(cube(3), "vacuum")
	wall := b.AddRegion("wall", geometry.World,
		geometry.NewCylinder(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 2), 1.2), "glass")
	liquid := b.AddRegion("liquid", wall,
		geometry.NewCylinder(core.NewVec3(0, 0, -1.9), core.NewVec3(0, 0, 1.9), 1.0), "intralipid")

	housing, err := geometry.NewCone(core.NewVec3(0, 0, 1.8), 0.3, core.NewVec3(0, 0, 1.2), 0.1)
	if err != nil {
		return nil, err
	}
	head := b.AddRegion("fibre head", liquid, housing, "vacuum")
	b.SetBoundary(head, geometry.Boundary{Kind: geometry.Detector})

	s, err := assemble(info, b, map[string]*material.Material{
		"vacuum":     material.NewVacuum("vacuum"),
		"glass":      material.NewConstant("glass", 0, 0, 0, 1.5),
		"intralipid": material.NewConstant("intralipid", 0.02, 8, 0.7, 1.33),
	})
	if err != nil {
		return nil, err
	}

	s.Source = source.NewFibre(core.NewVec3(0, 0, 1.15), core.NewVec3(0, 0, -1), 0.22, 1.33, material.Monochromatic(800))
	s.Grid, err = geometry.NewGrid(core.NewAABB(core.NewVec3(-1, -1, -1.9), core.NewVec3(1, 1, 1.9)), 20, 20, 38)
	if err != nil {
		return nil, err
	}
	s.Observable = tally.DetectedFraction
	return s, nil
}
