package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Grid is a uniform Cartesian grid of tally cells over a box. Cells are
// numbered x fastest, then y, then z.
type Grid struct {
	Bounds     core.AABB
	Nx, Ny, Nz int
	cell       core.Vec3
}

// NewGrid divides bounds into nx × ny × nz cells
func NewGrid(bounds core.AABB, nx, ny, nz int) (*Grid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("%w: grid resolution %dx%dx%d", ErrDegenerate, nx, ny, nz)
	}
	if !bounds.IsFinite() || bounds.Volume() <= 0 {
		return nil, fmt.Errorf("%w: grid bounds %v", ErrDegenerate, bounds)
	}

	size := bounds.Size()
	return &Grid{
		Bounds: bounds,
		Nx:     nx,
		Ny:     ny,
		Nz:     nz,
		cell:   core.NewVec3(size.X/float64(nx), size.Y/float64(ny), size.Z/float64(nz)),
	}, nil
}

// Len returns the number of cells
func (g *Grid) Len() int {
	return g.Nx * g.Ny * g.Nz
}

// CellVolume returns the volume of one cell
func (g *Grid) CellVolume() float64 {
	return g.cell.X * g.cell.Y * g.cell.Z
}

// CellSize returns the cell extents
func (g *Grid) CellSize() core.Vec3 {
	return g.cell
}

func (g *Grid) flatten(ix, iy, iz int) int {
	return ix + g.Nx*(iy+g.Ny*iz)
}

// Coordinates splits a cell index into its x, y, z components
func (g *Grid) Coordinates(index int) (int, int, int) {
	return index % g.Nx, (index / g.Nx) % g.Ny, index / (g.Nx * g.Ny)
}

// CellCenter returns the centre of a cell
func (g *Grid) CellCenter(index int) core.Vec3 {
	ix, iy, iz := g.Coordinates(index)
	return core.NewVec3(
		g.Bounds.Min.X+(float64(ix)+0.5)*g.cell.X,
		g.Bounds.Min.Y+(float64(iy)+0.5)*g.cell.Y,
		g.Bounds.Min.Z+(float64(iz)+0.5)*g.cell.Z,
	)
}

// Index returns the cell containing p. Points on the upper faces belong to
// the last cell.
func (g *Grid) Index(p core.Vec3) (int, bool) {
	if !g.Bounds.Contains(p) {
		return 0, false
	}
	ix := clampCell(int((p.X-g.Bounds.Min.X)/g.cell.X), g.Nx)
	iy := clampCell(int((p.Y-g.Bounds.Min.Y)/g.cell.Y), g.Ny)
	iz := clampCell(int((p.Z-g.Bounds.Min.Z)/g.cell.Z), g.Nz)
	return g.flatten(ix, iy, iz), true
}

func clampCell(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Walk traverses the cells pierced by the segment ray.At(0)..ray.At(length)
// with a 3D-DDA and reports the length travelled inside each one. The ray
// direction must be a unit vector.
func (g *Grid) Walk(ray core.Ray, length float64, visit func(cell int, segment float64)) {
	t, tEnd, ok := g.Bounds.Slab(ray, 0, length)
	if !ok || tEnd <= t {
		return
	}

	start := ray.At(0.5 * (t + math.Min(tEnd, t+1e-9*(1+length))))
	var index [3]int
	var step [3]int
	var tNext, tDelta [3]float64
	dims := [3]int{g.Nx, g.Ny, g.Nz}

	for axis := 0; axis < 3; axis++ {
		lo := g.Bounds.Min.Axis(axis)
		size := g.cell.Axis(axis)
		index[axis] = clampCell(int((start.Axis(axis)-lo)/size), dims[axis])

		dir := ray.Direction.Axis(axis)
		origin := ray.Origin.Axis(axis)
		switch {
		case dir > 0:
			step[axis] = 1
			tNext[axis] = (lo + float64(index[axis]+1)*size - origin) / dir
			tDelta[axis] = size / dir
		case dir < 0:
			step[axis] = -1
			tNext[axis] = (lo + float64(index[axis])*size - origin) / dir
			tDelta[axis] = -size / dir
		default:
			tNext[axis] = math.Inf(1)
			tDelta[axis] = math.Inf(1)
		}
	}

	for t < tEnd {
		axis := 0
		if tNext[1] < tNext[axis] {
			axis = 1
		}
		if tNext[2] < tNext[axis] {
			axis = 2
		}

		exit := math.Min(tNext[axis], tEnd)
		if exit > t {
			visit(g.flatten(index[0], index[1], index[2]), exit-t)
			t = exit
		}
		if t >= tEnd {
			return
		}

		index[axis] += step[axis]
		if index[axis] < 0 || index[axis] >= dims[axis] {
			return
		}
		tNext[axis] += tDelta[axis]
	}
}
