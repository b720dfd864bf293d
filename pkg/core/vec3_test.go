package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	assert.Equal(t, NewVec3(5, -3, 9), a.Add(b))
	assert.Equal(t, NewVec3(-3, 7, -3), a.Subtract(b))
	assert.Equal(t, NewVec3(2, 4, 6), a.Multiply(2))
	assert.InDelta(t, 4-10+18, a.Dot(b), 1e-12)
	assert.Equal(t, NewVec3(27, 6, -13), a.Cross(b))
	assert.Equal(t, NewVec3(1, -5, 3), a.Min(b))
	assert.Equal(t, NewVec3(4, 2, 6), a.Max(b))
}

func TestVec3_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		expected Vec3
	}{
		{"axis", NewVec3(0, 0, 5), NewVec3(0, 0, 1)},
		{"diagonal", NewVec3(3, 4, 0), NewVec3(0.6, 0.8, 0)},
		{"zero vector stays zero", NewVec3(0, 0, 0), NewVec3(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Normalize()
			if result.Subtract(tt.expected).Length() > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_IsFinite(t *testing.T) {
	assert.True(t, NewVec3(1, -2, 3).IsFinite())
	assert.False(t, NewVec3(math.NaN(), 0, 0).IsFinite())
	assert.False(t, NewVec3(0, math.Inf(1), 0).IsFinite())
	assert.False(t, NewVec3(0, 0, math.Inf(-1)).IsFinite())
}

func TestAABB_Slab(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tEnter, tExit, ok := box.Slab(NewRay(NewVec3(-3, 0, 0), NewVec3(1, 0, 0)), 0, math.Inf(1))
	assert.True(t, ok)
	assert.InDelta(t, 2.0, tEnter, 1e-12)
	assert.InDelta(t, 4.0, tExit, 1e-12)

	// Origin inside: interval starts at tMin
	tEnter, tExit, ok = box.Slab(NewRay(NewVec3(0, 0, 0), NewVec3(0, 1, 0)), 0, math.Inf(1))
	assert.True(t, ok)
	assert.Equal(t, 0.0, tEnter)
	assert.InDelta(t, 1.0, tExit, 1e-12)

	// Parallel ray outside the slab misses
	_, _, ok = box.Slab(NewRay(NewVec3(0, 2, 0), NewVec3(1, 0, 0)), 0, math.Inf(1))
	assert.False(t, ok)
}

func TestAABB_ContainmentAndOverlap(t *testing.T) {
	outer := NewAABB(NewVec3(0, 0, 0), NewVec3(10, 10, 10))
	inner := NewAABB(NewVec3(1, 1, 1), NewVec3(2, 2, 2))
	crossing := NewAABB(NewVec3(9, 9, 9), NewVec3(11, 11, 11))

	assert.True(t, outer.ContainsBox(inner, 0))
	assert.False(t, outer.ContainsBox(crossing, 0))
	assert.True(t, outer.Contains(NewVec3(10, 0, 5)))
	assert.False(t, outer.Contains(NewVec3(10.001, 0, 5)))

	overlap := outer.Intersection(crossing)
	assert.True(t, overlap.IsValid())
	assert.InDelta(t, 1.0, overlap.Volume(), 1e-12)

	disjoint := inner.Intersection(NewAABB(NewVec3(5, 5, 5), NewVec3(6, 6, 6)))
	assert.False(t, disjoint.IsValid())
	assert.Equal(t, 0.0, disjoint.Volume())

	u := EmptyAABB().Union(inner)
	assert.Equal(t, inner, u)
}
