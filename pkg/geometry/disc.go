package geometry

import (
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Disc is a flat circular face. It is the end cap of cylinders and cones.
type Disc struct {
	Center core.Vec3 // Center of the disc
	Normal core.Vec3 // Unit normal, outward for the solid the disc closes
	Radius float64
	Right  core.Vec3 // In-plane basis perpendicular to Normal
	Up     core.Vec3
}

// NewDisc creates a new disc
func NewDisc(center, normal core.Vec3, radius float64) *Disc {
	n := normal.Normalize()
	right, up := core.OrthonormalBasis(n)
	return &Disc{
		Center: center,
		Normal: n,
		Radius: radius,
		Right:  right,
		Up:     up,
	}
}

// Hit intersects the disc's plane and keeps points within the radius
func (d *Disc) Hit(ray core.Ray, tMin, tMax float64) (float64, core.Vec3, bool) {
	denom := d.Normal.Dot(ray.Direction)
	if math.Abs(denom) < 1e-12 {
		return 0, core.Vec3{}, false
	}

	t := d.Normal.Dot(d.Center.Subtract(ray.Origin)) / denom
	if t < tMin || t > tMax {
		return 0, core.Vec3{}, false
	}

	if ray.At(t).Subtract(d.Center).LengthSquared() > d.Radius*d.Radius {
		return 0, core.Vec3{}, false
	}
	return t, d.Normal, true
}

// BoundingBox returns the exact axis-aligned bounds of the disc
func (d *Disc) BoundingBox() core.AABB {
	extent := core.NewVec3(
		d.Radius*math.Sqrt(math.Max(0, 1-d.Normal.X*d.Normal.X)),
		d.Radius*math.Sqrt(math.Max(0, 1-d.Normal.Y*d.Normal.Y)),
		d.Radius*math.Sqrt(math.Max(0, 1-d.Normal.Z*d.Normal.Z)),
	)
	return core.NewAABB(d.Center.Subtract(extent), d.Center.Add(extent))
}

// SampleUniform maps a 2D sample to a point distributed uniformly over the disc
func (d *Disc) SampleUniform(sample core.Vec2) core.Vec3 {
	r := math.Sqrt(sample.X) * d.Radius
	theta := 2.0 * math.Pi * sample.Y
	return d.Center.
		Add(d.Right.Multiply(r * math.Cos(theta))).
		Add(d.Up.Multiply(r * math.Sin(theta)))
}
