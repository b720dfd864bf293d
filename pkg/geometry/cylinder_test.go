package geometry

import (
	"errors"
	"testing"

	"github.com/df07/go-mcrt/pkg/core"
)

// firstHit returns the nearest hit over a solid's faces
func firstHit(s Solid, ray core.Ray) (float64, core.Vec3, bool) {
	best, bestNormal, found := 1e9, core.Vec3{}, false
	for _, f := range s.Faces() {
		if tHit, n, ok := f.Hit(ray, 1e-9, best); ok {
			best, bestNormal, found = tHit, n, true
		}
	}
	return best, bestNormal, found
}

func TestNewCylinder(t *testing.T) {
	cyl := NewCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 2, 0), 1.0)

	if !approxEqualVec(cyl.axis, core.NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("Expected axis (0,1,0), got %v", cyl.axis)
	}
	if !approxEqual(cyl.height, 2, 1e-12) {
		t.Errorf("Expected height 2, got %f", cyl.height)
	}
	if len(cyl.Faces()) != 3 {
		t.Errorf("Expected 3 faces, got %d", len(cyl.Faces()))
	}
	if err := cyl.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCylinder_BoundingBox(t *testing.T) {
	tests := []struct {
		name    string
		base    core.Vec3
		top     core.Vec3
		radius  float64
		wantMin core.Vec3
		wantMax core.Vec3
	}{
		{"axis-aligned Y", core.NewVec3(0, 0, 0), core.NewVec3(0, 2, 0), 1.0, core.NewVec3(-1, 0, -1), core.NewVec3(1, 2, 1)},
		{"axis-aligned Z", core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 3), 0.5, core.NewVec3(-0.5, -0.5, 0), core.NewVec3(0.5, 0.5, 3)},
		{"offset X", core.NewVec3(1, 1, 1), core.NewVec3(4, 1, 1), 1.0, core.NewVec3(1, 0, 0), core.NewVec3(4, 2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := NewCylinder(tt.base, tt.top, tt.radius).BoundingBox()
			if !approxEqualVec(box.Min, tt.wantMin, 1e-12) || !approxEqualVec(box.Max, tt.wantMax, 1e-12) {
				t.Errorf("Expected [%v, %v], got [%v, %v]", tt.wantMin, tt.wantMax, box.Min, box.Max)
			}
		})
	}
}

func TestCylinder_Hit(t *testing.T) {
	cyl := NewCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 2, 0), 1.0)

	tests := []struct {
		name           string
		origin         core.Vec3
		direction      core.Vec3
		expectHit      bool
		expectedT      float64
		expectedNormal core.Vec3
	}{
		{"mantle from outside", core.NewVec3(-3, 1, 0), core.NewVec3(1, 0, 0), true, 2, core.NewVec3(-1, 0, 0)},
		{"mantle from inside", core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 1), true, 1, core.NewVec3(0, 0, 1)},
		{"top cap", core.NewVec3(0.5, 5, 0), core.NewVec3(0, -1, 0), true, 3, core.NewVec3(0, 1, 0)},
		{"bottom cap", core.NewVec3(0, -1, 0.5), core.NewVec3(0, 1, 0), true, 1, core.NewVec3(0, -1, 0)},
		{"bottom cap from inside", core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0), true, 1, core.NewVec3(0, -1, 0)},
		{"above height", core.NewVec3(-3, 3, 0), core.NewVec3(1, 0, 0), false, 0, core.Vec3{}},
		{"outside radius along axis", core.NewVec3(1.5, 5, 0), core.NewVec3(0, -1, 0), false, 0, core.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tHit, normal, ok := firstHit(cyl, core.NewRay(tt.origin, tt.direction))
			if ok != tt.expectHit {
				t.Fatalf("Expected hit=%v, got %v", tt.expectHit, ok)
			}
			if !ok {
				return
			}
			if !approxEqual(tHit, tt.expectedT, 1e-9) {
				t.Errorf("Expected t=%f, got %f", tt.expectedT, tHit)
			}
			if !approxEqualVec(normal, tt.expectedNormal, 1e-9) {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, normal)
			}
		})
	}
}

func TestCylinder_Contains(t *testing.T) {
	cyl := NewCylinder(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 2), 1.0)
	inside := []core.Vec3{core.NewVec3(0, 0, 1), core.NewVec3(0.7, 0.7, 0.1), core.NewVec3(1, 0, 2)}
	outside := []core.Vec3{core.NewVec3(0, 0, -0.01), core.NewVec3(0, 0, 2.01), core.NewVec3(0.8, 0.8, 1)}
	for _, p := range inside {
		if !cyl.Contains(p) {
			t.Errorf("Expected %v inside", p)
		}
	}
	for _, p := range outside {
		if cyl.Contains(p) {
			t.Errorf("Expected %v outside", p)
		}
	}
}

func TestCylinder_Validate(t *testing.T) {
	for _, cyl := range []*Cylinder{
		NewCylinder(core.Vec3{}, core.NewVec3(0, 1, 0), 0),
		NewCylinder(core.Vec3{}, core.Vec3{}, 1),
	} {
		if err := cyl.Validate(); !errors.Is(err, ErrDegenerate) {
			t.Errorf("Expected ErrDegenerate, got %v", err)
		}
	}
}
