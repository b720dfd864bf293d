package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Slab is the volume between two parallel planes: every point p with
// Near <= Normal·p <= Far. It is unbounded sideways, so a region built from a
// slab is clipped by the box of its parent.
type Slab struct {
	Normal core.Vec3
	Near   float64
	Far    float64
	faces  [2]*Plane
}

// NewSlab creates a slab of the given thickness starting at origin and
// extending along normal
func NewSlab(origin, normal core.Vec3, thickness float64) *Slab {
	n := normal.Normalize()
	near := n.Dot(origin)
	s := &Slab{
		Normal: n,
		Near:   near,
		Far:    near + thickness,
	}
	s.faces[0] = NewPlane(origin.Add(n.Multiply(thickness)), n) // far face
	s.faces[1] = NewPlane(origin, n.Negate())                   // near face
	return s
}

func (s *Slab) Faces() []Primitive {
	return []Primitive{s.faces[0], s.faces[1]}
}

// Contains reports whether p lies between the two faces, faces included
func (s *Slab) Contains(p core.Vec3) bool {
	return s.faces[0].SignedDistance(p) <= 0 && s.faces[1].SignedDistance(p) <= 0
}

// BoundingBox is finite only along an axis-aligned normal
func (s *Slab) BoundingBox() core.AABB {
	lo := core.NewVec3(-largeValue, -largeValue, -largeValue)
	hi := core.NewVec3(largeValue, largeValue, largeValue)

	switch getAxisAlignment(s.Normal) {
	case xAxisAligned:
		lo.X, hi.X = slabRange(s.Normal.X, s.Near, s.Far)
	case yAxisAligned:
		lo.Y, hi.Y = slabRange(s.Normal.Y, s.Near, s.Far)
	case zAxisAligned:
		lo.Z, hi.Z = slabRange(s.Normal.Z, s.Near, s.Far)
	}
	return core.NewAABB(lo, hi)
}

func slabRange(sign, near, far float64) (float64, float64) {
	if sign < 0 {
		return -far, -near
	}
	return near, far
}

func (s *Slab) Validate() error {
	if !(s.Far > s.Near) || math.IsInf(s.Far, 0) || s.Normal.LengthSquared() == 0 {
		return fmt.Errorf("%w: slab thickness %v", ErrDegenerate, s.Far-s.Near)
	}
	return nil
}
