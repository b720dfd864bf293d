package source

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/geometry"
	"github.com/df07/go-mcrt/pkg/material"
)

// maxRejections bounds the rejection loop of a volume source
const maxRejections = 1000

// VolumeSource emits isotropically from points uniformly distributed in a
// region (the region's own volume, children excluded)
type VolumeSource struct {
	Kernel   *geometry.Kernel
	Region   geometry.RegionID
	Spectrum *material.Spectrum
	bounds   core.AABB
}

// NewVolumeSource checks that the region exists and is reachable by sampling
func NewVolumeSource(kernel *geometry.Kernel, region geometry.RegionID, spectrum *material.Spectrum) (*VolumeSource, error) {
	if region <= geometry.Exterior || int(region) >= kernel.NumRegions() {
		return nil, &geometry.BuildError{Entity: "source", ID: int(region), Err: geometry.ErrUnknownRegion}
	}

	s := &VolumeSource{
		Kernel:   kernel,
		Region:   region,
		Spectrum: spectrum,
		bounds:   kernel.Region(region).Bounds,
	}

	// The region must own some of its bounding box
	trial := core.NewStream(0, uint64(region))
	for i := 0; i < maxRejections; i++ {
		if kernel.Locate(s.point(trial)) == region {
			return s, nil
		}
	}
	return nil, &geometry.BuildError{Entity: "source", ID: int(region), Name: kernel.Region(region).Name,
		Err: fmt.Errorf("%w: region has no sampleable volume", geometry.ErrDegenerate)}
}

func (s *VolumeSource) point(sampler core.Sampler) core.Vec3 {
	size := s.bounds.Size()
	a := sampler.Get2D()
	b := sampler.Get1D()
	return s.bounds.Min.Add(core.NewVec3(a.X*size.X, a.Y*size.Y, b*size.Z))
}

// Emit rejection-samples a position. If every one of maxRejections
// candidates misses the region the emission carries a non-finite position,
// which the tracer discards and counts as an anomaly.
func (s *VolumeSource) Emit(sampler core.Sampler) Emission {
	position := core.NewVec3(math.NaN(), math.NaN(), math.NaN())
	for i := 0; i < maxRejections; i++ {
		if candidate := s.point(sampler); s.Kernel.Locate(candidate) == s.Region {
			position = candidate
			break
		}
	}
	return Emission{
		Position:   position,
		Direction:  core.SampleOnUnitSphere(sampler.Get2D()),
		Wavelength: s.Spectrum.Sample(sampler.Get1D()),
		Weight:     1,
	}
}

func (s *VolumeSource) Type() string {
	return "volume"
}
