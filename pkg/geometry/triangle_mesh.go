package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// parityDirection is the fixed ray used for point containment, chosen off
// every axis and diagonal.
var parityDirection = core.NewVec3(0.5773502691896258, 0.6154797086703874, 0.5363321099009061).Normalize()

// Mesh is a closed triangle mesh. Triangles are indexed in construction order
// and accelerated by their own BVH for containment queries.
type Mesh struct {
	vertices  []core.Vec3
	indices   []int
	triangles []*Triangle
	bvh       *core.BVH
	bbox      core.AABB
	err       error
}

// NewMesh creates a mesh from vertices and face indices; each group of 3
// indices forms a triangle. The transform places local vertices in the world.
// A mesh whose signed volume is negative is re-wound so normals face out.
// Malformed input is reported by Validate.
func NewMesh(vertices []core.Vec3, indices []int, transform Transform) *Mesh {
	m := &Mesh{indices: indices, bbox: core.EmptyAABB()}

	if len(indices)%3 != 0 {
		m.err = fmt.Errorf("%w: face index count %d is not a multiple of 3", ErrDegenerate, len(indices))
		return m
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			m.err = fmt.Errorf("%w: face index %d out of range [0,%d)", ErrDegenerate, index, len(vertices))
			return m
		}
	}

	m.vertices = make([]core.Vec3, len(vertices))
	for i, v := range vertices {
		m.vertices[i] = transform.Point(v)
	}

	if m.signedVolume() < 0 {
		flipped := make([]int, len(indices))
		for i := 0; i < len(indices); i += 3 {
			flipped[i], flipped[i+1], flipped[i+2] = indices[i], indices[i+2], indices[i+1]
		}
		m.indices = flipped
	}

	numTriangles := len(m.indices) / 3
	m.triangles = make([]*Triangle, numTriangles)
	boxes := make([]core.AABB, numTriangles)
	for i := 0; i < numTriangles; i++ {
		m.triangles[i] = NewTriangle(
			m.vertices[m.indices[i*3]],
			m.vertices[m.indices[i*3+1]],
			m.vertices[m.indices[i*3+2]],
		)
		boxes[i] = m.triangles[i].BoundingBox()
		m.bbox = m.bbox.Union(boxes[i])
	}

	m.bvh = core.NewBVH(boxes, core.DefaultLeafSize, core.DefaultMaxDepth)
	return m
}

// signedVolume uses the divergence theorem over the indexed triangles
func (m *Mesh) signedVolume() float64 {
	volume := 0.0
	for i := 0; i+2 < len(m.indices); i += 3 {
		v0 := m.vertices[m.indices[i]]
		v1 := m.vertices[m.indices[i+1]]
		v2 := m.vertices[m.indices[i+2]]
		volume += v0.Dot(v1.Cross(v2))
	}
	return volume / 6
}

// Volume returns the enclosed volume
func (m *Mesh) Volume() float64 {
	return math.Abs(m.signedVolume())
}

// TriangleCount returns the number of triangles in this mesh
func (m *Mesh) TriangleCount() int {
	return len(m.triangles)
}

func (m *Mesh) Faces() []Primitive {
	faces := make([]Primitive, len(m.triangles))
	for i, t := range m.triangles {
		faces[i] = t
	}
	return faces
}

// Contains counts crossings along a fixed ray; an odd count means inside
func (m *Mesh) Contains(p core.Vec3) bool {
	if len(m.triangles) == 0 || !m.bbox.Contains(p) {
		return false
	}

	crossings := 0
	ray := core.NewRay(p, parityDirection)
	m.bvh.Traverse(ray, 0, math.Inf(1), func(item int, limit float64) float64 {
		if _, _, ok := m.triangles[item].Hit(ray, 0, limit); ok {
			crossings++
		}
		return limit
	})
	return crossings%2 == 1
}

// BoundingBox returns the axis-aligned bounding box for the entire mesh
func (m *Mesh) BoundingBox() core.AABB {
	return m.bbox
}

// Validate checks that the mesh is a closed, consistently wound manifold
// without zero-area triangles. Open edges are reported as gaps.
func (m *Mesh) Validate() error {
	if m.err != nil {
		return m.err
	}
	if len(m.triangles) == 0 {
		return fmt.Errorf("%w: mesh has no triangles", ErrDegenerate)
	}

	scale := m.bbox.Size().Length()
	for i, t := range m.triangles {
		if t.Area() <= 1e-12*scale*scale {
			return fmt.Errorf("%w: triangle %d has zero area", ErrDegenerate, i)
		}
	}

	type edge struct{ a, b int }
	undirected := make(map[edge]int)
	directed := make(map[edge]int)
	for i := 0; i < len(m.indices); i += 3 {
		for k := 0; k < 3; k++ {
			a, b := m.indices[i+k], m.indices[i+(k+1)%3]
			directed[edge{a, b}]++
			if a > b {
				a, b = b, a
			}
			undirected[edge{a, b}]++
		}
	}

	// Report the first offending edge in face order
	for i := 0; i < len(m.indices); i += 3 {
		for k := 0; k < 3; k++ {
			a, b := m.indices[i+k], m.indices[i+(k+1)%3]
			if directed[edge{a, b}] > 1 {
				return fmt.Errorf("%w: mesh edge (%d,%d) has inconsistent winding", ErrDegenerate, a, b)
			}
			if a > b {
				a, b = b, a
			}
			if count := undirected[edge{a, b}]; count != 2 {
				return fmt.Errorf("%w: mesh edge (%d,%d) is shared by %d triangles", ErrGap, a, b, count)
			}
		}
	}
	return nil
}
