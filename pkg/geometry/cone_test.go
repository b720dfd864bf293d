package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCone(t *testing.T) {
	cone, err := NewCone(core.NewVec3(0, 0, 0), 1.0, core.NewVec3(0, 2, 0), 0)
	require.NoError(t, err)
	assert.Len(t, cone.Faces(), 2, "pointed cone has no top cap")
	assert.True(t, approxEqualVec(cone.apex, core.NewVec3(0, 2, 0), 1e-12))
	assert.InDelta(t, 0.5, cone.tanAngle, 1e-12)

	frustum, err := NewCone(core.NewVec3(0, 0, 0), 2.0, core.NewVec3(0, 1, 0), 1.0)
	require.NoError(t, err)
	assert.Len(t, frustum.Faces(), 3)
	assert.True(t, approxEqualVec(frustum.apex, core.NewVec3(0, 2, 0), 1e-12))
	assert.NoError(t, frustum.Validate())
}

func TestNewCone_Validation(t *testing.T) {
	tests := []struct {
		name       string
		baseRadius float64
		top        core.Vec3
		topRadius  float64
	}{
		{"zero base radius", 0, core.NewVec3(0, 1, 0), 0},
		{"negative top radius", 1, core.NewVec3(0, 1, 0), -0.5},
		{"top as wide as base", 1, core.NewVec3(0, 1, 0), 1},
		{"zero height", 1, core.Vec3{}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCone(core.Vec3{}, tt.baseRadius, tt.top, tt.topRadius)
			assert.True(t, errors.Is(err, ErrDegenerate), "got %v", err)
		})
	}
}

func TestCone_BoundingBox(t *testing.T) {
	cone, err := NewCone(core.NewVec3(0, 0, 0), 1.0, core.NewVec3(0, 0, 3), 0)
	require.NoError(t, err)
	box := cone.BoundingBox()
	assert.True(t, approxEqualVec(box.Min, core.NewVec3(-1, -1, 0), 1e-12), "min %v", box.Min)
	assert.True(t, approxEqualVec(box.Max, core.NewVec3(1, 1, 3), 1e-12), "max %v", box.Max)
}

func TestCone_Hit(t *testing.T) {
	// Frustum from radius 2 at y=0 to radius 1 at y=1, apex at y=2
	frustum, err := NewCone(core.NewVec3(0, 0, 0), 2.0, core.NewVec3(0, 1, 0), 1.0)
	require.NoError(t, err)
	slant := core.NewVec3(-1, -1, 0).Normalize()

	tests := []struct {
		name           string
		origin         core.Vec3
		direction      core.Vec3
		expectHit      bool
		expectedT      float64
		expectedNormal core.Vec3
	}{
		{"mantle from outside", core.NewVec3(-5, 0.5, 0), core.NewVec3(1, 0, 0), true, 3.5, core.NewVec3(-1, 1, 0).Normalize()},
		{"mantle from inside", core.NewVec3(0, 0.5, 0), core.NewVec3(1, 0, 0), true, 1.5, core.NewVec3(1, 1, 0).Normalize()},
		{"top cap", core.NewVec3(0.5, 3, 0), core.NewVec3(0, -1, 0), true, 2, core.NewVec3(0, 1, 0)},
		{"base cap", core.NewVec3(1.5, -1, 0), core.NewVec3(0, 1, 0), true, 1, core.NewVec3(0, -1, 0)},
		{"mirrored nappe above apex", core.NewVec3(-5, 3, 0), core.NewVec3(1, 0, 0), false, 0, core.Vec3{}},
		{"along the slant outside", core.NewVec3(-3, 1, 0), slant, false, 0, core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tHit, normal, ok := firstHit(frustum, core.NewRay(tt.origin, tt.direction))
			require.Equal(t, tt.expectHit, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.expectedT, tHit, 1e-9)
			assert.True(t, approxEqualVec(normal, tt.expectedNormal, 1e-9), "normal %v, want %v", normal, tt.expectedNormal)
		})
	}
}

func TestCone_Contains(t *testing.T) {
	cone, err := NewCone(core.NewVec3(0, 0, 0), 1.0, core.NewVec3(0, 0, 2), 0)
	require.NoError(t, err)
	assert.True(t, cone.Contains(core.NewVec3(0, 0, 1)))
	assert.True(t, cone.Contains(core.NewVec3(0.45, 0, 1)))
	assert.False(t, cone.Contains(core.NewVec3(0.55, 0, 1)))
	assert.False(t, cone.Contains(core.NewVec3(0, 0, 2.1)))
	assert.False(t, cone.Contains(core.NewVec3(0, 0, -0.1)))
}

// Solids with curved mantles take part in region nesting like any other
func TestKernel_CylinderAndConeRegions(t *testing.T) {
	b := NewBuilder(cube(4), "air")
	cuvette := b.AddRegion("cuvette", World, NewCylinder(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 2), 1.5), "water")
	cone, err := NewCone(core.NewVec3(0, 0, -1), 1.0, core.NewVec3(0, 0, 1), 0.2)
	require.NoError(t, err)
	tip := b.AddRegion("tip", cuvette, cone, "tissue")
	k, err := b.Build(DefaultBuildConfig())
	require.NoError(t, err)

	assert.Equal(t, tip, k.Locate(core.NewVec3(0, 0, 0)))
	assert.Equal(t, cuvette, k.Locate(core.NewVec3(1.2, 0, 0)))
	assert.Equal(t, World, k.Locate(core.NewVec3(0, 0, 3)))

	hit, ok := k.Intersect(core.NewRay(core.NewVec3(-3, 0, 0), core.NewVec3(1, 0, 0)), math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 1.5, hit.Distance, 1e-9)
	assert.Equal(t, cuvette, k.Surface(hit.Surface).Region)
}
