package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Cylinder is a closed right circular cylinder: a curved mantle between two
// disc caps
type Cylinder struct {
	BaseCenter core.Vec3
	TopCenter  core.Vec3
	Radius     float64

	axis   core.Vec3 // Unit vector from base to top
	height float64
	mantle *cylinderMantle
	base   *Disc
	top    *Disc
}

// NewCylinder creates a capped cylinder between two end centres
func NewCylinder(baseCenter, topCenter core.Vec3, radius float64) *Cylinder {
	axisVector := topCenter.Subtract(baseCenter)
	height := axisVector.Length()
	axis := axisVector.Normalize()

	c := &Cylinder{
		BaseCenter: baseCenter,
		TopCenter:  topCenter,
		Radius:     radius,
		axis:       axis,
		height:     height,
		base:       NewDisc(baseCenter, axis.Negate(), radius),
		top:        NewDisc(topCenter, axis, radius),
	}
	c.mantle = &cylinderMantle{c}
	return c
}

// Faces returns the mantle, then the base and top caps
func (c *Cylinder) Faces() []Primitive {
	return []Primitive{c.mantle, c.base, c.top}
}

// Contains reports whether p lies within the height span and the radius
func (c *Cylinder) Contains(p core.Vec3) bool {
	d := p.Subtract(c.BaseCenter)
	h := d.Dot(c.axis)
	if h < 0 || h > c.height {
		return false
	}
	radial := d.Subtract(c.axis.Multiply(h))
	return radial.LengthSquared() <= c.Radius*c.Radius
}

// BoundingBox covers both caps
func (c *Cylinder) BoundingBox() core.AABB {
	return c.base.BoundingBox().Union(c.top.BoundingBox())
}

func (c *Cylinder) Validate() error {
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) || !(c.height > 0) ||
		!c.BaseCenter.IsFinite() || !c.TopCenter.IsFinite() {
		return fmt.Errorf("%w: cylinder radius %v height %v", ErrDegenerate, c.Radius, c.height)
	}
	return nil
}

// cylinderMantle is the curved side of a cylinder
type cylinderMantle struct {
	c *Cylinder
}

func (m *cylinderMantle) Hit(ray core.Ray, tMin, tMax float64) (float64, core.Vec3, bool) {
	c := m.c
	delta := ray.Origin.Subtract(c.BaseCenter)
	dv := ray.Direction.Dot(c.axis)
	deltaV := delta.Dot(c.axis)

	// |(Δ + tD) - ((Δ + tD)·V)V|² = r²
	a := ray.Direction.LengthSquared() - dv*dv
	halfB := delta.Dot(ray.Direction) - deltaV*dv
	cc := delta.LengthSquared() - deltaV*deltaV - c.Radius*c.Radius

	// Parallel to the axis: the caps take the ray
	if math.Abs(a) < 1e-12 {
		return 0, core.Vec3{}, false
	}
	discriminant := halfB*halfB - a*cc
	if discriminant < 0 {
		return 0, core.Vec3{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	for _, t := range [2]float64{(-halfB - sqrtD) / a, (-halfB + sqrtD) / a} {
		if t < tMin || t > tMax {
			continue
		}
		point := ray.At(t)
		h := point.Subtract(c.BaseCenter).Dot(c.axis)
		if h < 0 || h > c.height {
			continue
		}
		axisPoint := c.BaseCenter.Add(c.axis.Multiply(h))
		return t, point.Subtract(axisPoint).Normalize(), true
	}
	return 0, core.Vec3{}, false
}

func (m *cylinderMantle) BoundingBox() core.AABB {
	return m.c.BoundingBox()
}
