package core

import (
	"cmp"
	"slices"
)

// BVHNode is a node of the flattened hierarchy. Leaves carry item indices,
// internal nodes carry the indices of their two children.
type BVHNode struct {
	BoundingBox AABB
	Left        int   // child node index, -1 for leaves
	Right       int   // child node index, -1 for leaves
	Items       []int // item indices for leaf nodes (nil for internal nodes)
}

// IsLeaf reports whether the node stores items directly
func (n *BVHNode) IsLeaf() bool {
	return n.Left < 0
}

// BVH is a bounding volume hierarchy over items addressed by index. It never
// owns the items: callers keep their own arena and resolve hits through the
// visit callbacks.
type BVH struct {
	nodes    []BVHNode
	maxLeaf  int
	maxDepth int
}

// Default build limits
const (
	DefaultLeafSize  = 4
	DefaultMaxDepth  = 32
	minimumLeafItems = 1
)

// NewBVH builds a hierarchy over the given bounding boxes. A node becomes a
// leaf when it holds at most maxLeaf items or reaches maxDepth.
func NewBVH(boxes []AABB, maxLeaf, maxDepth int) *BVH {
	if maxLeaf < minimumLeafItems {
		maxLeaf = DefaultLeafSize
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	bvh := &BVH{maxLeaf: maxLeaf, maxDepth: maxDepth}
	if len(boxes) == 0 {
		return bvh
	}

	items := make([]int, len(boxes))
	for i := range items {
		items[i] = i
	}
	bvh.build(boxes, items, 0)
	return bvh
}

// build appends the subtree over items and returns its node index
func (bvh *BVH) build(boxes []AABB, items []int, depth int) int {
	boundingBox := EmptyAABB()
	for _, item := range items {
		boundingBox = boundingBox.Union(boxes[item])
	}

	index := len(bvh.nodes)
	bvh.nodes = append(bvh.nodes, BVHNode{BoundingBox: boundingBox, Left: -1, Right: -1})

	if len(items) <= bvh.maxLeaf || depth >= bvh.maxDepth {
		bvh.nodes[index].Items = slices.Clone(items)
		return index
	}

	// Median split along the longest axis of the centroid bounds
	centroids := EmptyAABB()
	for _, item := range items {
		c := boxes[item].Center()
		centroids = centroids.Union(NewAABB(c, c))
	}
	axis := centroids.LongestAxis()
	sortItemsByAxis(boxes, items, axis)

	mid := len(items) / 2
	left := bvh.build(boxes, items[:mid], depth+1)
	right := bvh.build(boxes, items[mid:], depth+1)

	bvh.nodes[index].Left = left
	bvh.nodes[index].Right = right
	return index
}

// sortItemsByAxis orders items by bounding box centre, falling back to the
// item index so the layout never depends on sort stability
func sortItemsByAxis(boxes []AABB, items []int, axis int) {
	slices.SortFunc(items, func(a, b int) int {
		ca := boxes[a].Center().Axis(axis)
		cb := boxes[b].Center().Axis(axis)
		if c := cmp.Compare(ca, cb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}

// Bounds returns the bounding box of every item
func (bvh *BVH) Bounds() AABB {
	if len(bvh.nodes) == 0 {
		return EmptyAABB()
	}
	return bvh.nodes[0].BoundingBox
}

// Traverse visits every item whose leaf box the ray crosses within
// [tMin, limit], nearer children first. visit returns the new limit, which
// lets the caller shrink the search as closer hits are found.
func (bvh *BVH) Traverse(ray Ray, tMin, tMax float64, visit func(item int, limit float64) float64) {
	if len(bvh.nodes) == 0 {
		return
	}

	limit := tMax
	stack := make([]int, 0, 2*bvh.maxDepth+2)
	stack = append(stack, 0)

	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.nodes[index]
		if !node.BoundingBox.Hit(ray, tMin, limit) {
			continue
		}

		if node.IsLeaf() {
			for _, item := range node.Items {
				limit = visit(item, limit)
			}
			continue
		}

		leftEnter, _, leftOK := bvh.nodes[node.Left].BoundingBox.Slab(ray, tMin, limit)
		rightEnter, _, rightOK := bvh.nodes[node.Right].BoundingBox.Slab(ray, tMin, limit)
		switch {
		case leftOK && rightOK:
			// Push the farther child first so the nearer one is popped next
			if leftEnter <= rightEnter {
				stack = append(stack, node.Right, node.Left)
			} else {
				stack = append(stack, node.Left, node.Right)
			}
		case leftOK:
			stack = append(stack, node.Left)
		case rightOK:
			stack = append(stack, node.Right)
		}
	}
}

// Point visits every item whose leaf box contains p. Returning false from
// visit stops the walk.
func (bvh *BVH) Point(p Vec3, visit func(item int) bool) {
	if len(bvh.nodes) == 0 {
		return
	}

	stack := []int{0}
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &bvh.nodes[index]
		if !node.BoundingBox.Contains(p) {
			continue
		}
		if node.IsLeaf() {
			for _, item := range node.Items {
				if !visit(item) {
					return
				}
			}
			continue
		}
		stack = append(stack, node.Right, node.Left)
	}
}

// BVHStats summarises the shape of a hierarchy
type BVHStats struct {
	TotalNodes int
	LeafNodes  int
	MaxDepth   int
	AvgDepth   float64
	MaxLeaf    int
	TotalItems int
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() BVHStats {
	stats := BVHStats{}
	if len(bvh.nodes) == 0 {
		return stats
	}

	bvh.collectStats(0, 0, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(index, depth int, stats *BVHStats) {
	node := &bvh.nodes[index]
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.LeafNodes++
		stats.TotalItems += len(node.Items)
		stats.AvgDepth += float64(depth) // Accumulate depth for average calculation
		if len(node.Items) > stats.MaxLeaf {
			stats.MaxLeaf = len(node.Items)
		}
		return
	}

	bvh.collectStats(node.Left, depth+1, stats)
	bvh.collectStats(node.Right, depth+1, stats)
}
