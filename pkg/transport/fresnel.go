package transport

import (
	"math"

	"github.com/df07/go-mcrt/pkg/core"
)

// Fresnel is the outcome of a packet meeting an interface between media of
// refractive index n1 (incident side) and n2
type Fresnel struct {
	Reflectance   float64   // probability of reflection, 1 under total internal reflection
	Reflected     core.Vec3 // specular reflection direction
	Transmitted   core.Vec3 // refracted direction, zero under total internal reflection
	TotalInternal bool
}

// NewFresnel evaluates the unpolarised Fresnel equations. The normal may
// face either way; it is oriented against the incident direction.
func NewFresnel(incident, normal core.Vec3, n1, n2 float64) Fresnel {
	if normal.Dot(incident) > 0 {
		normal = normal.Negate()
	}
	cosI := math.Min(-incident.Dot(normal), 1.0)
	f := Fresnel{Reflected: reflectVector(incident, normal)}

	eta := n1 / n2
	sin2T := eta * eta * (1 - cosI*cosI)
	if sin2T >= 1 {
		f.Reflectance = 1
		f.TotalInternal = true
		return f
	}

	cosT := math.Sqrt(1 - sin2T)
	f.Reflectance = Reflectance(cosI, cosT, n1, n2)
	f.Transmitted = refractVector(incident, normal, eta)
	return f
}

// Reflectance is the unpolarised Fresnel reflectance, the mean of the s and
// p polarised reflectances
func Reflectance(cosI, cosT, n1, n2 float64) float64 {
	rs := (n1*cosI - n2*cosT) / (n1*cosI + n2*cosT)
	rp := (n2*cosI - n1*cosT) / (n2*cosI + n1*cosT)
	return 0.5 * (rs*rs + rp*rp)
}

// reflectVector calculates the reflection of a vector v off a surface with normal n
func reflectVector(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// refractVector calculates the refraction of a vector using Snell's law. n
// must face against uv.
func refractVector(uv, n core.Vec3, etaiOverEtat float64) core.Vec3 {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	rOutPerp := uv.Add(n.Multiply(cosTheta)).Multiply(etaiOverEtat)
	rOutParallel := n.Multiply(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}
