package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Cone is a closed cone or frustum. The base disc is always present; the top
// disc exists only when TopRadius > 0.
type Cone struct {
	BaseCenter core.Vec3
	BaseRadius float64
	TopCenter  core.Vec3
	TopRadius  float64 // 0 for a pointed cone

	axis     core.Vec3 // Unit vector from base to top
	height   float64
	tanAngle float64   // radius lost per unit height
	apex     core.Vec3 // apex of the full cone, beyond the top for a frustum
	mantle   *coneMantle
	base     *Disc
	top      *Disc // nil for a pointed cone
}

// NewCone creates a closed cone or frustum. The base must be the wider end.
func NewCone(baseCenter core.Vec3, baseRadius float64, topCenter core.Vec3, topRadius float64) (*Cone, error) {
	if baseRadius <= 0 || math.IsInf(baseRadius, 0) {
		return nil, fmt.Errorf("%w: cone base radius %v", ErrDegenerate, baseRadius)
	}
	if topRadius < 0 || topRadius >= baseRadius {
		return nil, fmt.Errorf("%w: cone top radius %v must be in [0, %v)", ErrDegenerate, topRadius, baseRadius)
	}
	axisVector := topCenter.Subtract(baseCenter)
	height := axisVector.Length()
	if !(height > 0) || !baseCenter.IsFinite() || !topCenter.IsFinite() {
		return nil, fmt.Errorf("%w: cone height %v", ErrDegenerate, height)
	}

	axis := axisVector.Normalize()
	tanAngle := (baseRadius - topRadius) / height
	apex := baseCenter.Add(axis.Multiply(baseRadius / tanAngle))

	c := &Cone{
		BaseCenter: baseCenter,
		BaseRadius: baseRadius,
		TopCenter:  topCenter,
		TopRadius:  topRadius,
		axis:       axis,
		height:     height,
		tanAngle:   tanAngle,
		apex:       apex,
		base:       NewDisc(baseCenter, axis.Negate(), baseRadius),
	}
	if topRadius > 0 {
		c.top = NewDisc(topCenter, axis, topRadius)
	}
	c.mantle = &coneMantle{c}
	return c, nil
}

// Faces returns the mantle, the base and, for a frustum, the top
func (c *Cone) Faces() []Primitive {
	if c.top == nil {
		return []Primitive{c.mantle, c.base}
	}
	return []Primitive{c.mantle, c.base, c.top}
}

// radiusAt is the mantle radius at height h above the base
func (c *Cone) radiusAt(h float64) float64 {
	return c.BaseRadius - c.tanAngle*h
}

func (c *Cone) Contains(p core.Vec3) bool {
	d := p.Subtract(c.BaseCenter)
	h := d.Dot(c.axis)
	if h < 0 || h > c.height {
		return false
	}
	r := c.radiusAt(h)
	return d.Subtract(c.axis.Multiply(h)).LengthSquared() <= r*r
}

// BoundingBox covers the base disc and the top disc or apex
func (c *Cone) BoundingBox() core.AABB {
	box := c.base.BoundingBox()
	if c.top != nil {
		return box.Union(c.top.BoundingBox())
	}
	return box.Union(core.NewAABB(c.TopCenter, c.TopCenter))
}

func (c *Cone) Validate() error {
	if !(c.height > 0) || !(c.tanAngle > 0) || math.IsInf(c.tanAngle, 0) {
		return fmt.Errorf("%w: cone height %v slope %v", ErrDegenerate, c.height, c.tanAngle)
	}
	return nil
}

// coneMantle is the slanted side of a cone
type coneMantle struct {
	c *Cone
}

func (m *coneMantle) Hit(ray core.Ray, tMin, tMax float64) (float64, core.Vec3, bool) {
	c := m.c
	co := ray.Origin.Subtract(c.apex)
	dv := ray.Direction.Dot(c.axis)
	cov := co.Dot(c.axis)

	// Double cone about the apex: |P - A|² = (1 + tan²α)((P - A)·V)²
	k := 1 + c.tanAngle*c.tanAngle
	a := ray.Direction.LengthSquared() - k*dv*dv
	halfB := ray.Direction.Dot(co) - k*dv*cov
	cc := co.LengthSquared() - k*cov*cov

	if math.Abs(a) < 1e-12 {
		return 0, core.Vec3{}, false
	}
	discriminant := halfB*halfB - a*cc
	if discriminant < 0 {
		return 0, core.Vec3{}, false
	}
	sqrtD := math.Sqrt(discriminant)

	t0, t1 := (-halfB-sqrtD)/a, (-halfB+sqrtD)/a
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	for _, t := range [2]float64{t0, t1} {
		if t < tMin || t > tMax {
			continue
		}
		point := ray.At(t)
		h := point.Subtract(c.BaseCenter).Dot(c.axis)
		// Height bounds also reject the mirrored nappe beyond the apex
		if h < 0 || h > c.height {
			continue
		}
		radial := point.Subtract(c.BaseCenter.Add(c.axis.Multiply(h))).Normalize()
		return t, radial.Add(c.axis.Multiply(c.tanAngle)).Normalize(), true
	}
	return 0, core.Vec3{}, false
}

func (m *coneMantle) BoundingBox() core.AABB {
	return m.c.BoundingBox()
}
