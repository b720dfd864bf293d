package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// BuildConfig controls kernel construction
type BuildConfig struct {
	MaxLeafSize       int     // surfaces per BVH leaf
	MaxDepth          int     // BVH depth limit
	ValidationSamples int     // lattice points per axis for containment and overlap checks
	Epsilon           float64 // minimum hit distance, guards against self-intersection
	TieEpsilon        float64 // hits closer than this are treated as equidistant
}

// DefaultBuildConfig returns sensible defaults
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		MaxLeafSize:       4,
		MaxDepth:          32,
		ValidationSamples: 12,
		Epsilon:           1e-9,
		TieEpsilon:        1e-9,
	}
}

// Validate checks the configuration
func (c BuildConfig) Validate() error {
	switch {
	case c.MaxLeafSize < 1:
		return fmt.Errorf("max leaf size must be at least 1, got %d", c.MaxLeafSize)
	case c.MaxDepth < 1:
		return fmt.Errorf("max depth must be at least 1, got %d", c.MaxDepth)
	case c.ValidationSamples < 1:
		return fmt.Errorf("validation samples must be at least 1, got %d", c.ValidationSamples)
	case !(c.Epsilon > 0):
		return fmt.Errorf("epsilon must be positive, got %v", c.Epsilon)
	case c.TieEpsilon < 0:
		return fmt.Errorf("tie epsilon must be non-negative, got %v", c.TieEpsilon)
	}
	return nil
}

// Builder collects regions and produces an immutable Kernel. Region ids are
// assigned in insertion order starting after World.
type Builder struct {
	regions  []*Region
	periodic [3]bool
	errs     []error
}

// NewBuilder starts a scene whose world region is the given box
func NewBuilder(world core.AABB, material string) *Builder {
	b := &Builder{}
	b.regions = append(b.regions,
		&Region{ID: Exterior, Name: "exterior", Parent: Exterior, Bounds: core.EmptyAABB()},
		&Region{ID: World, Name: "world", Material: material, Parent: Exterior, Solid: NewBoxFromBounds(world)},
	)
	return b
}

// AddRegion nests solid inside parent and returns the new region's id.
// Errors are deferred until Build.
func (b *Builder) AddRegion(name string, parent RegionID, solid Solid, material string) RegionID {
	id := RegionID(len(b.regions))
	b.regions = append(b.regions, &Region{
		ID:       id,
		Name:     name,
		Material: material,
		Parent:   parent,
		Solid:    solid,
	})

	if parent <= Exterior || int(parent) >= int(id) {
		b.errs = append(b.errs, &BuildError{Entity: "region", ID: int(id), Name: name,
			Err: fmt.Errorf("%w: parent %d", ErrUnknownRegion, parent)})
	}
	if solid == nil {
		b.errs = append(b.errs, &BuildError{Entity: "region", ID: int(id), Name: name,
			Err: fmt.Errorf("%w: nil solid", ErrDegenerate)})
	}
	return id
}

// SetBoundary sets the optical behaviour of every face of a region's solid
func (b *Builder) SetBoundary(id RegionID, boundary Boundary) {
	if id <= Exterior || int(id) >= len(b.regions) {
		b.errs = append(b.errs, &BuildError{Entity: "region", ID: int(id), Err: ErrUnknownRegion})
		return
	}
	if boundary.Kind == Periodic {
		b.errs = append(b.errs, &BuildError{Entity: "region", ID: int(id), Name: b.regions[id].Name,
			Err: fmt.Errorf("%w: periodic boundaries belong to world box faces", ErrDegenerate)})
		return
	}
	if boundary.Absorption < 0 || boundary.Absorption > 1 {
		b.errs = append(b.errs, &BuildError{Entity: "region", ID: int(id), Name: b.regions[id].Name,
			Err: fmt.Errorf("%w: mirror absorption %v outside [0,1]", ErrDegenerate, boundary.Absorption)})
		return
	}
	b.regions[id].boundary = boundary
}

// SetPeriodic makes the pair of world faces normal to each axis (0 = x,
// 1 = y, 2 = z) periodic. A layer that spans the world box along those axes
// then behaves as laterally infinite.
func (b *Builder) SetPeriodic(axes ...int) {
	for _, axis := range axes {
		if axis < 0 || axis > 2 {
			b.errs = append(b.errs, &BuildError{Entity: "world", ID: int(World), Name: "world",
				Err: fmt.Errorf("%w: periodic axis %d", ErrDegenerate, axis)})
			continue
		}
		b.periodic[axis] = true
	}
}

// Build validates the scene and returns the kernel. No partial kernel is
// returned on error.
func (b *Builder) Build(config BuildConfig) (*Kernel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	k := &Kernel{config: config, regions: b.regions, periodic: b.periodic}

	// Solids first: every later check relies on Contains and BoundingBox
	for _, r := range k.regions[World:] {
		if err := r.Solid.Validate(); err != nil {
			return nil, regionError(r, err)
		}
	}

	for _, r := range k.regions[World:] {
		if err := k.attach(r); err != nil {
			return nil, err
		}
	}

	for _, r := range k.regions[World:] {
		if err := k.checkSiblings(r); err != nil {
			return nil, err
		}
		boxes := make([]core.AABB, len(r.Children))
		for i, child := range r.Children {
			boxes[i] = k.regions[child].Bounds
		}
		r.children = core.NewBVH(boxes, config.MaxLeafSize, config.MaxDepth)
	}

	k.buildSurfaces()
	return k, nil
}

// attach links r into its parent and checks that it lies inside it
func (k *Kernel) attach(r *Region) error {
	bounds := r.Solid.BoundingBox()
	if r.ID == World {
		if !bounds.IsFinite() || bounds.Volume() <= 0 {
			return regionError(r, fmt.Errorf("%w: world box %v", ErrDegenerate, bounds))
		}
		r.Bounds = bounds
		return nil
	}

	parent := k.regions[r.Parent]
	r.Depth = parent.Depth + 1
	parent.Children = append(parent.Children, r.ID)

	if isUnbounded(r.Solid) {
		r.clip = parent
		r.Bounds = bounds.Intersection(parent.Bounds)
		if r.Bounds.Volume() <= 0 {
			return regionError(r, fmt.Errorf("%w: does not intersect its parent", ErrNotContained))
		}
		return nil
	}

	r.Bounds = bounds
	if !parent.Bounds.ContainsBox(bounds, k.config.Epsilon) {
		return regionError(r, fmt.Errorf("%w: bounds %v exceed parent %d bounds %v",
			ErrNotContained, bounds, parent.ID, parent.Bounds))
	}

	var escaped core.Vec3
	found := false
	k.lattice(bounds, func(p core.Vec3) bool {
		if r.Solid.Contains(p) && !parent.Contains(p) {
			escaped, found = p, true
			return false
		}
		return true
	})
	if found {
		return regionError(r, fmt.Errorf("%w: point %v lies outside parent %d", ErrNotContained, escaped, parent.ID))
	}
	return nil
}

// checkSiblings samples the overlap of every pair of children of r
func (k *Kernel) checkSiblings(r *Region) error {
	for i, a := range r.Children {
		for _, b := range r.Children[i+1:] {
			ra, rb := k.regions[a], k.regions[b]
			overlap := ra.Bounds.Intersection(rb.Bounds)
			if !overlap.IsValid() || minExtent(overlap) <= k.config.Epsilon {
				continue // disjoint or only touching
			}

			var shared core.Vec3
			found := false
			k.lattice(overlap, func(p core.Vec3) bool {
				if ra.Contains(p) && rb.Contains(p) {
					shared, found = p, true
					return false
				}
				return true
			})
			if found {
				return regionError(rb, fmt.Errorf("%w: shares point %v with region %d (%s)",
					ErrOverlap, shared, ra.ID, ra.Name))
			}
		}
	}
	return nil
}

// lattice visits cell centres of a regular grid over bounds until visit
// returns false
func (k *Kernel) lattice(bounds core.AABB, visit func(p core.Vec3) bool) {
	n := k.config.ValidationSamples
	size := bounds.Size()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for l := 0; l < n; l++ {
				p := core.NewVec3(
					bounds.Min.X+size.X*(float64(i)+0.5)/float64(n),
					bounds.Min.Y+size.Y*(float64(j)+0.5)/float64(n),
					bounds.Min.Z+size.Z*(float64(l)+0.5)/float64(n),
				)
				if !visit(p) {
					return
				}
			}
		}
	}
}

func dominantAxis(v core.Vec3) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(v.Axis(i)) > math.Abs(v.Axis(axis)) {
			axis = i
		}
	}
	return axis
}

func minExtent(box core.AABB) float64 {
	size := box.Size()
	return math.Min(size.X, math.Min(size.Y, size.Z))
}

// buildSurfaces fills the arena in region order and builds the surface BVH
func (k *Kernel) buildSurfaces() {
	for _, r := range k.regions[World:] {
		for _, face := range r.Solid.Faces() {
			id := SurfaceID(len(k.surfaces))
			boundary := r.boundary
			if q, ok := face.(*Quad); ok && r.ID == World && k.periodic[dominantAxis(q.Normal)] {
				boundary = Boundary{Kind: Periodic}
			}
			k.surfaces = append(k.surfaces, Surface{
				ID:        id,
				Primitive: face,
				Region:    r.ID,
				Boundary:  boundary,
				clip:      r.clip,
			})
			r.Surfaces = append(r.Surfaces, id)
		}
	}

	boxes := make([]core.AABB, len(k.surfaces))
	for i, s := range k.surfaces {
		box := s.Primitive.BoundingBox()
		if s.clip != nil {
			box = box.Intersection(k.regions[s.Region].Bounds).Expand(k.config.Epsilon)
		}
		boxes[i] = box
	}
	k.bvh = core.NewBVH(boxes, k.config.MaxLeafSize, k.config.MaxDepth)
}
