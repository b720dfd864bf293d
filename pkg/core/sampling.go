package core

import (
	"math"
)

// Sampler provides random sampling for the transport algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// OpenSample maps a sample in [0, 1) to (0, 1] so that its logarithm is finite
func OpenSample(u float64) float64 {
	return 1.0 - u
}

// SampleFreePath draws an optical depth from Exponential(1) by inverse CDF
func SampleFreePath(u float64) float64 {
	return -math.Log(OpenSample(u))
}

// OrthonormalBasis builds two unit vectors perpendicular to w (which must be unit length)
func OrthonormalBasis(w Vec3) (Vec3, Vec3) {
	// Find a vector that is not parallel to w
	var nt Vec3
	if math.Abs(w.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}

	u := nt.Cross(w).Normalize()
	v := w.Cross(u)
	return u, v
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	return NewVec3(x, y, z)
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	tangent, bitangent := OrthonormalBasis(normal)
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(zCoord))
}

// SampleHenyeyGreenstein returns the cosine of the deflection angle drawn from
// the Henyey-Greenstein phase function with asymmetry g, by inverse CDF
func SampleHenyeyGreenstein(g, u float64) float64 {
	if math.Abs(g) < 1e-6 {
		return 2.0*u - 1.0
	}

	g2 := g * g
	frac := (1.0 - g2) / (1.0 - g + 2.0*g*u)
	cosTheta := (1.0 + g2 - frac*frac) / (2.0 * g)
	return math.Max(-1, math.Min(1, cosTheta))
}

// HenyeyGreensteinPDF evaluates the phase function per unit solid angle
func HenyeyGreensteinPDF(g, cosTheta float64) float64 {
	g2 := g * g
	denom := 1.0 + g2 - 2.0*g*cosTheta
	return (1.0 - g2) / (4.0 * math.Pi * denom * math.Sqrt(denom))
}

// Deflect rotates the unit direction dir by the polar angle whose cosine is
// cosTheta and the azimuth phi
func Deflect(dir Vec3, cosTheta, phi float64) Vec3 {
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	u, v := OrthonormalBasis(dir)

	return u.Multiply(sinTheta * math.Cos(phi)).
		Add(v.Multiply(sinTheta * math.Sin(phi))).
		Add(dir.Multiply(cosTheta))
}

// SampleCone samples a direction uniformly within a cone
func SampleCone(direction Vec3, cosTotalWidth float64, sample Vec2) Vec3 {
	cosTheta := 1.0 - sample.X*(1.0-cosTotalWidth)
	return Deflect(direction, cosTheta, 2.0*math.Pi*sample.Y)
}

// SamplePointInUnitDisk generates a random point in a unit disk using concentric mapping
// This avoids rejection sampling by mapping a square uniformly to a disk
func SamplePointInUnitDisk(sample Vec2) Vec2 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	uOffset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec2(0, 0)
	}

	var theta, r float64
	if math.Abs(uOffset.X) > math.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math.Pi/2 - math.Pi/4*(uOffset.X/uOffset.Y)
	}

	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}
