package geometry

import (
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Hit is the nearest surface intersection along a ray
type Hit struct {
	Distance float64
	Surface  SurfaceID
	Normal   core.Vec3 // outward normal of the surface's region
	Point    core.Vec3
}

// Kernel answers point-location and nearest-intersection queries. It is
// immutable after Build and safe for concurrent use.
type Kernel struct {
	config   BuildConfig
	regions  []*Region
	surfaces []Surface
	bvh      *core.BVH
	periodic [3]bool
}

// Locate returns the innermost region containing p. Points outside the world
// box resolve to Exterior. On a shared boundary the lowest region id wins.
func (k *Kernel) Locate(p core.Vec3) RegionID {
	current := k.regions[World]
	if !current.Contains(p) {
		return Exterior
	}

	for {
		next := RegionID(math.MaxInt)
		current.children.Point(p, func(item int) bool {
			id := current.Children[item]
			if id < next && k.regions[id].Contains(p) {
				next = id
			}
			return true
		})
		if next == RegionID(math.MaxInt) {
			return current.ID
		}
		current = k.regions[next]
	}
}

// Intersect returns the nearest surface hit with distance in (Epsilon, tMax].
// Among hits within TieEpsilon of the nearest one the lowest surface id wins,
// whatever order the hierarchy visits them in.
func (k *Kernel) Intersect(ray core.Ray, tMax float64) (Hit, bool) {
	nearest := math.Inf(1)
	tie := k.config.TieEpsilon
	var buf [8]Hit
	candidates := buf[:0]

	k.bvh.Traverse(ray, k.config.Epsilon, tMax, func(item int, limit float64) float64 {
		s := &k.surfaces[item]
		t, normal, ok := s.Primitive.Hit(ray, k.config.Epsilon, limit)
		if !ok || t > nearest+tie {
			return limit
		}

		point := ray.At(t)
		if s.clip != nil && !s.clip.Contains(point) {
			return limit
		}

		candidates = append(candidates, Hit{Distance: t, Surface: s.ID, Normal: normal, Point: point})
		nearest = math.Min(nearest, t)
		return math.Min(limit, nearest+tie)
	})

	best := resolveTie(candidates, nearest+tie)
	return best, best.Surface != NoSurface
}

// resolveTie picks the lowest surface id among candidates no farther than
// cutoff
func resolveTie(candidates []Hit, cutoff float64) Hit {
	best := Hit{Distance: math.Inf(1), Surface: NoSurface}
	for _, c := range candidates {
		if c.Distance <= cutoff && (best.Surface == NoSurface || c.Surface < best.Surface) {
			best = c
		}
	}
	return best
}

// Periodic reports whether the world faces normal to axis are periodic
func (k *Kernel) Periodic(axis int) bool {
	return k.periodic[axis]
}

// Wrap maps p back into the world box along every periodic axis
func (k *Kernel) Wrap(p core.Vec3) core.Vec3 {
	bounds := k.regions[World].Bounds
	coords := [3]float64{p.X, p.Y, p.Z}
	for axis := range coords {
		if !k.periodic[axis] {
			continue
		}
		lo, hi := bounds.Min.Axis(axis), bounds.Max.Axis(axis)
		switch {
		case coords[axis] > hi:
			coords[axis] -= hi - lo
		case coords[axis] < lo:
			coords[axis] += hi - lo
		}
	}
	return core.NewVec3(coords[0], coords[1], coords[2])
}

// Region returns the region with the given id
func (k *Kernel) Region(id RegionID) *Region {
	return k.regions[id]
}

// Surface returns the surface with the given id
func (k *Kernel) Surface(id SurfaceID) *Surface {
	return &k.surfaces[id]
}

// NumRegions counts regions including Exterior
func (k *Kernel) NumRegions() int {
	return len(k.regions)
}

// NumSurfaces counts faces in the arena
func (k *Kernel) NumSurfaces() int {
	return len(k.surfaces)
}

// Bounds returns the world box
func (k *Kernel) Bounds() core.AABB {
	return k.regions[World].Bounds
}

// Config returns the configuration the kernel was built with
func (k *Kernel) Config() BuildConfig {
	return k.config
}

// Stats describes the surface hierarchy
func (k *Kernel) Stats() core.BVHStats {
	return k.bvh.Stats()
}
