package geometry

import (
	"github.com/df07/go-mcrt/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is an affine placement of a solid in world space. The inverse is
// kept alongside so that points can be pulled back into the local frame.
type Transform struct {
	matrix  mgl64.Mat4
	inverse mgl64.Mat4
}

// IdentityTransform leaves coordinates unchanged
func IdentityTransform() Transform {
	return Transform{matrix: mgl64.Ident4(), inverse: mgl64.Ident4()}
}

// Translation moves points by offset
func Translation(offset core.Vec3) Transform {
	return Transform{
		matrix:  mgl64.Translate3D(offset.X, offset.Y, offset.Z),
		inverse: mgl64.Translate3D(-offset.X, -offset.Y, -offset.Z),
	}
}

// Scaling scales points component-wise about the origin
func Scaling(factors core.Vec3) Transform {
	return Transform{
		matrix:  mgl64.Scale3D(factors.X, factors.Y, factors.Z),
		inverse: mgl64.Scale3D(1/factors.X, 1/factors.Y, 1/factors.Z),
	}
}

// Rotation rotates by angles in radians around X, Y, Z (applied in that order)
func Rotation(angles core.Vec3) Transform {
	m := mgl64.HomogRotate3DZ(angles.Z).
		Mul4(mgl64.HomogRotate3DY(angles.Y)).
		Mul4(mgl64.HomogRotate3DX(angles.X))
	return Transform{matrix: m, inverse: m.Transpose()}
}

// Then returns the transform that applies t first and next afterwards
func (t Transform) Then(next Transform) Transform {
	return Transform{
		matrix:  next.matrix.Mul4(t.matrix),
		inverse: t.inverse.Mul4(next.inverse),
	}
}

// Inverse returns the inverse transform
func (t Transform) Inverse() Transform {
	return Transform{matrix: t.inverse, inverse: t.matrix}
}

// Point maps a position
func (t Transform) Point(p core.Vec3) core.Vec3 {
	return fromMgl(mgl64.TransformCoordinate(toMgl(p), t.matrix))
}

// InversePoint maps a world position back into the local frame
func (t Transform) InversePoint(p core.Vec3) core.Vec3 {
	return fromMgl(mgl64.TransformCoordinate(toMgl(p), t.inverse))
}

// Vector maps a displacement (translation ignored)
func (t Transform) Vector(v core.Vec3) core.Vec3 {
	return fromMgl(mgl64.TransformNormal(toMgl(v), t.matrix))
}

// Normal maps a surface normal with the inverse transpose and renormalises it
func (t Transform) Normal(n core.Vec3) core.Vec3 {
	return fromMgl(mgl64.TransformNormal(toMgl(n), t.inverse.Transpose())).Normalize()
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
