package geometry

import (
	"github.com/df07/go-mcrt/pkg/core"
)

// RegionID addresses a region in the kernel's region table
type RegionID int

const (
	// Exterior is the vacuum outside the world box
	Exterior RegionID = 0
	// World is the root region bounding the whole scene
	World RegionID = 1
)

// SurfaceID addresses a face in the surface arena. Lower ids win ties.
type SurfaceID int

// NoSurface marks the absence of a surface
const NoSurface SurfaceID = -1

// BoundaryKind selects how packets interact with a surface
type BoundaryKind int

const (
	// Interface reflects or refracts by Fresnel between the two refractive indices
	Interface BoundaryKind = iota
	// Mirror reflects, absorbing a fraction of the weight
	Mirror
	// Absorber removes every packet that reaches it
	Absorber
	// Detector collects every packet that reaches it into a per-surface
	// spectrum
	Detector
	// Periodic moves a packet leaving the world through a face to the
	// opposite face. Only world faces can be periodic; see Builder.SetPeriodic.
	Periodic
)

func (k BoundaryKind) String() string {
	switch k {
	case Interface:
		return "interface"
	case Mirror:
		return "mirror"
	case Absorber:
		return "absorber"
	case Detector:
		return "detector"
	case Periodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// Boundary describes the optical behaviour of a surface
type Boundary struct {
	Kind       BoundaryKind
	Absorption float64 // fraction of weight a mirror absorbs
	Diffuse    bool    // mirror reflects with a cosine lobe instead of specularly
}

// Surface is one face of the arena. Region is the region whose solid the
// face bounds; the normal points away from it.
type Surface struct {
	ID        SurfaceID
	Primitive Primitive
	Region    RegionID
	Boundary  Boundary
	clip      container // hits outside clip are ignored (unbounded solids only)
}

// Region is a solid nested in a parent. Its volume is its solid minus the
// solids of its children.
type Region struct {
	ID       RegionID
	Name     string
	Material string
	Parent   RegionID
	Solid    Solid
	Children []RegionID
	Surfaces []SurfaceID
	Depth    int
	Bounds   core.AABB // bounding box, clipped to the parent for unbounded solids

	clip     container
	boundary Boundary
	children *core.BVH // over Children bounds
}

// Contains reports whether p lies in the region's solid (children included)
func (r *Region) Contains(p core.Vec3) bool {
	if !r.Bounds.Contains(p) || !r.Solid.Contains(p) {
		return false
	}
	return r.clip == nil || r.clip.Contains(p)
}

type container interface {
	Contains(p core.Vec3) bool
}

// unbounded is implemented by solids that extend to infinity and must be
// clipped by their parent
type unbounded interface {
	Unbounded() bool
}

func isUnbounded(s Solid) bool {
	u, ok := s.(unbounded)
	return ok && u.Unbounded()
}

// Unbounded reports that a slab extends sideways without limit
func (s *Slab) Unbounded() bool {
	return true
}
