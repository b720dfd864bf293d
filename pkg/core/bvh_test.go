package core

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBoxesAlongX(n int) []AABB {
	boxes := make([]AABB, n)
	for i := 0; i < n; i++ {
		boxes[i] = NewAABB(NewVec3(float64(i), 0, 0), NewVec3(float64(i)+1, 1, 1))
	}
	return boxes
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	bvh := NewBVH(unitBoxesAlongX(4), 4, 32)
	stats := bvh.Stats()
	assert.Equal(t, 1, stats.TotalNodes, "exactly maxLeaf items should build a single leaf")
	assert.Equal(t, 1, stats.LeafNodes)

	bvh = NewBVH(unitBoxesAlongX(5), 4, 32)
	stats = bvh.Stats()
	assert.Greater(t, stats.TotalNodes, 1, "maxLeaf+1 items should split")
	assert.GreaterOrEqual(t, stats.LeafNodes, 2)
}

func TestBVH_EmptyAndSingleItem(t *testing.T) {
	bvh := NewBVH(nil, 4, 32)
	visited := 0
	bvh.Traverse(NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0)), 0, 1000, func(int, float64) float64 {
		visited++
		return 1000
	})
	assert.Zero(t, visited)
	assert.Equal(t, BVHStats{}, bvh.Stats())

	bvh = NewBVH(unitBoxesAlongX(1), 4, 32)
	stats := bvh.Stats()
	assert.Equal(t, 1, stats.TotalNodes)
	assert.Equal(t, 1, stats.TotalItems)
}

func TestBVH_DepthLimitBoundsRecursion(t *testing.T) {
	bvh := NewBVH(unitBoxesAlongX(64), 1, 3)
	stats := bvh.Stats()
	assert.LessOrEqual(t, stats.MaxDepth, 3)
	assert.Equal(t, 64, stats.TotalItems)
	assert.GreaterOrEqual(t, stats.MaxLeaf, 8, "depth limit forces larger leaves")
}

func TestBVH_IdenticalBoundingBoxes(t *testing.T) {
	same := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	boxes := []AABB{same, same, same, same, same, same, same, same, same}

	bvh := NewBVH(boxes, 2, 32)
	stats := bvh.Stats()
	assert.Equal(t, len(boxes), stats.TotalItems, "every item lands in exactly one leaf")
	assert.LessOrEqual(t, stats.MaxLeaf, 2)
}

func TestBVH_TraverseMatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewPCG(1, 2))
	boxes := make([]AABB, 300)
	for i := range boxes {
		c := NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		h := NewVec3(random.Float64()*0.5+0.05, random.Float64()*0.5+0.05, random.Float64()*0.5+0.05)
		boxes[i] = NewAABB(c.Subtract(h), c.Add(h))
	}
	bvh := NewBVH(boxes, 4, 32)

	for trial := 0; trial < 200; trial++ {
		origin := NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		dir := SampleOnUnitSphere(NewVec2(random.Float64(), random.Float64()))
		ray := NewRay(origin, dir)

		// Closest box entry by brute force
		want, wantT := -1, 1e9
		for i, box := range boxes {
			if tEnter, _, ok := box.Slab(ray, 0, 1e9); ok && (tEnter < wantT || (tEnter == wantT && i < want)) {
				want, wantT = i, tEnter
			}
		}

		got, gotT := -1, 1e9
		bvh.Traverse(ray, 0, 1e9, func(item int, limit float64) float64 {
			if tEnter, _, ok := boxes[item].Slab(ray, 0, limit); ok && (tEnter < gotT || (tEnter == gotT && item < got)) {
				got, gotT = item, tEnter
				return tEnter
			}
			return limit
		})

		require.Equal(t, want, got, "trial %d", trial)
	}
}

func TestBVH_PointVisitsContainingItems(t *testing.T) {
	boxes := unitBoxesAlongX(16)
	bvh := NewBVH(boxes, 2, 32)

	var found []int
	bvh.Point(NewVec3(5.5, 0.5, 0.5), func(item int) bool {
		if boxes[item].Contains(NewVec3(5.5, 0.5, 0.5)) {
			found = append(found, item)
		}
		return true
	})
	assert.Equal(t, []int{5}, found)

	calls := 0
	bvh.Point(NewVec3(5, 0.5, 0.5), func(item int) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls, "returning false stops the walk")
}
