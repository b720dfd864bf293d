package material

import (
	"fmt"

	"github.com/df07/go-mcrt/pkg/geometry"
)

// Table maps every region of a kernel to its material. It is built once
// before transport starts and only read afterwards.
type Table struct {
	materials []*Material // indexed by region id; nil for the exterior
}

// NewTable resolves each region's material name. Unknown names and invalid
// materials are construction errors naming the offending entity.
func NewTable(kernel *geometry.Kernel, materials map[string]*Material) (*Table, error) {
	t := &Table{materials: make([]*Material, kernel.NumRegions())}

	for id := geometry.World; int(id) < kernel.NumRegions(); id++ {
		region := kernel.Region(id)
		m, ok := materials[region.Material]
		if !ok || m == nil {
			return nil, &geometry.BuildError{
				Entity: "region",
				ID:     int(id),
				Name:   region.Name,
				Err:    fmt.Errorf("%w: %q", geometry.ErrUnresolvedMaterial, region.Material),
			}
		}
		if err := m.Validate(); err != nil {
			return nil, &geometry.BuildError{
				Entity: "material",
				ID:     int(id),
				Name:   region.Material,
				Err:    fmt.Errorf("%w: %v", geometry.ErrDegenerate, err),
			}
		}
		t.materials[id] = m
	}
	return t, nil
}

// Material returns the material of a region, nil for the exterior
func (t *Table) Material(id geometry.RegionID) *Material {
	return t.materials[id]
}

// Optics returns the properties of a region at wavelength
func (t *Table) Optics(id geometry.RegionID, wavelength float64) Optics {
	if id == geometry.Exterior {
		return Vacuum
	}
	return t.materials[id].Properties(wavelength)
}

// Len returns the number of regions covered, exterior included
func (t *Table) Len() int {
	return len(t.materials)
}
