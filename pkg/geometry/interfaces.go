package geometry

import (
	"github.com/df07/go-mcrt/pkg/core"
)

// Primitive is a single boundary face that rays can hit. The returned normal
// always follows the outward convention of the solid the face belongs to,
// whichever side the ray arrives from.
type Primitive interface {
	Hit(ray core.Ray, tMin, tMax float64) (t float64, normal core.Vec3, ok bool)
	BoundingBox() core.AABB
}

// Solid is a closed volume bounded by one or more primitives
type Solid interface {
	// Faces returns the boundary primitives in a fixed order
	Faces() []Primitive
	// Contains reports whether p lies inside the solid (boundary included)
	Contains(p core.Vec3) bool
	BoundingBox() core.AABB
	// Validate reports degenerate or open geometry
	Validate() error
}
