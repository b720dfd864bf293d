package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Box represents a rectangular box made up of 6 quads with optional rotation
type Box struct {
	Center    core.Vec3 // Center point of the box
	Size      core.Vec3 // Half-extents along each local axis
	Rotation  core.Vec3 // Rotation angles in radians (X, Y, Z)
	transform Transform // unit cube [-1,1]^3 → world
	faces     [6]*Quad  // The 6 quad faces, normals pointing outward
	bbox      core.AABB // Cached bounding box
}

// NewBox creates a new box with the given center, size and rotation.
// Size represents half-extents (so a size of (1,1,1) creates a 2x2x2 box)
// Rotation is in radians around X, Y, Z axes (applied in that order)
func NewBox(center, size, rotation core.Vec3) *Box {
	box := &Box{
		Center:   center,
		Size:     size,
		Rotation: rotation,
		transform: Scaling(size).
			Then(Rotation(rotation)).
			Then(Translation(center)),
	}

	box.generateFaces()
	return box
}

// NewAxisAlignedBox creates a new axis-aligned box (no rotation)
func NewAxisAlignedBox(center, size core.Vec3) *Box {
	return NewBox(center, size, core.Vec3{})
}

// NewBoxFromBounds creates the axis-aligned box covering an AABB
func NewBoxFromBounds(bounds core.AABB) *Box {
	return NewAxisAlignedBox(bounds.Center(), bounds.Size().Multiply(0.5))
}

// generateFaces creates the 6 quad faces of the box
func (b *Box) generateFaces() {
	// Define the 8 corners of a unit box centered at origin
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		corners[i] = b.transform.Point(corners[i])
	}

	// Each face is a corner plus two edges whose cross product points outward
	quad := func(c, u, v int) *Quad {
		return NewQuad(corners[c], corners[u].Subtract(corners[c]), corners[v].Subtract(corners[c]))
	}
	b.faces[0] = quad(4, 5, 7) // Front (Z+)
	b.faces[1] = quad(1, 0, 2) // Back (Z-)
	b.faces[2] = quad(5, 1, 6) // Right (X+)
	b.faces[3] = quad(0, 4, 3) // Left (X-)
	b.faces[4] = quad(3, 7, 2) // Top (Y+)
	b.faces[5] = quad(4, 0, 5) // Bottom (Y-)

	b.bbox = core.NewAABBFromPoints(corners[:]...)
}

// Faces returns the six boundary quads
func (b *Box) Faces() []Primitive {
	faces := make([]Primitive, len(b.faces))
	for i, face := range b.faces {
		faces[i] = face
	}
	return faces
}

// Contains pulls p back into the unit cube frame
func (b *Box) Contains(p core.Vec3) bool {
	const tolerance = 1e-12
	local := b.transform.InversePoint(p)
	return math.Abs(local.X) <= 1+tolerance &&
		math.Abs(local.Y) <= 1+tolerance &&
		math.Abs(local.Z) <= 1+tolerance
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}

func (b *Box) Validate() error {
	if !(b.Size.X > 0 && b.Size.Y > 0 && b.Size.Z > 0) || !b.Size.IsFinite() || !b.Center.IsFinite() {
		return fmt.Errorf("%w: box half-extents %v", ErrDegenerate, b.Size)
	}
	return nil
}
