package geometry

import (
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// largeValue bounds infinite primitives so that BVH arithmetic stays finite
const largeValue = 1e6

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point  core.Vec3 // A point on the plane
	Normal core.Vec3 // Outward normal (normalised on construction)
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3) *Plane {
	return &Plane{
		Point:  point,
		Normal: normal.Normalize(),
	}
}

// Hit tests if a ray intersects with the plane
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (float64, core.Vec3, bool) {
	denominator := ray.Direction.Dot(p.Normal)

	// Ray is parallel to the plane: grazing rays never hit it
	if math.Abs(denominator) < 1e-12 {
		return 0, core.Vec3{}, false
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t < tMin || t > tMax {
		return 0, core.Vec3{}, false
	}

	return t, p.Normal, true
}

// SignedDistance returns the distance from the plane along its normal
func (p *Plane) SignedDistance(point core.Vec3) float64 {
	return point.Subtract(p.Point).Dot(p.Normal)
}

type axisAlignment int

const (
	notAxisAligned axisAlignment = iota
	xAxisAligned
	yAxisAligned
	zAxisAligned
)

func getAxisAlignment(normal core.Vec3) axisAlignment {
	const tolerance = 1e-9
	switch {
	case math.Abs(math.Abs(normal.X)-1) < tolerance:
		return xAxisAligned
	case math.Abs(math.Abs(normal.Y)-1) < tolerance:
		return yAxisAligned
	case math.Abs(math.Abs(normal.Z)-1) < tolerance:
		return zAxisAligned
	default:
		return notAxisAligned
	}
}

// BoundingBox returns a bounding box for this plane
func (p *Plane) BoundingBox() core.AABB {
	const epsilon = 0.001 // Small thickness to avoid zero-width bounding box

	switch getAxisAlignment(p.Normal) {
	case xAxisAligned:
		x := p.Point.X
		return core.NewAABB(
			core.NewVec3(x-epsilon, -largeValue, -largeValue),
			core.NewVec3(x+epsilon, largeValue, largeValue),
		)
	case yAxisAligned:
		y := p.Point.Y
		return core.NewAABB(
			core.NewVec3(-largeValue, y-epsilon, -largeValue),
			core.NewVec3(largeValue, y+epsilon, largeValue),
		)
	case zAxisAligned:
		z := p.Point.Z
		return core.NewAABB(
			core.NewVec3(-largeValue, -largeValue, z-epsilon),
			core.NewVec3(largeValue, largeValue, z+epsilon),
		)
	default:
		// Not axis-aligned - use large bounding box (less optimal but correct)
		return core.NewAABB(
			core.NewVec3(-largeValue, -largeValue, -largeValue),
			core.NewVec3(largeValue, largeValue, largeValue),
		)
	}
}
