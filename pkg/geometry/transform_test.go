package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, want, got core.Vec3) {
	t.Helper()
	assert.InDelta(t, 0, want.Subtract(got).Length(), 1e-12, "want %v, got %v", want, got)
}

func TestTransform_ComposeAndInvert(t *testing.T) {
	transform := Scaling(core.NewVec3(2, 3, 4)).
		Then(Rotation(core.NewVec3(0, 0, math.Pi/2))).
		Then(Translation(core.NewVec3(1, 0, 0)))

	// (1,0,0) → scale (2,0,0) → rotate about Z (0,2,0) → translate (1,2,0)
	p := transform.Point(core.NewVec3(1, 0, 0))
	assertVecNear(t, core.NewVec3(1, 2, 0), p)
	assertVecNear(t, core.NewVec3(1, 0, 0), transform.InversePoint(p))
	assertVecNear(t, core.NewVec3(1, 0, 0), transform.Inverse().Point(p))

	// Vectors ignore translation
	assertVecNear(t, core.NewVec3(0, 2, 0), transform.Vector(core.NewVec3(1, 0, 0)))
}

func TestTransform_NormalStaysPerpendicular(t *testing.T) {
	transform := Scaling(core.NewVec3(1, 5, 1)).Then(Rotation(core.NewVec3(0.3, 0.2, 0.1)))

	tangent := core.NewVec3(1, 1, 0)
	normal := core.NewVec3(1, -1, 0).Normalize()

	mappedTangent := transform.Vector(tangent)
	mappedNormal := transform.Normal(normal)
	assert.InDelta(t, 0, mappedTangent.Dot(mappedNormal), 1e-12)
	assert.InDelta(t, 1, mappedNormal.Length(), 1e-12)
}
