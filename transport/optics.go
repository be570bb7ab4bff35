package transport

import (
	"math"
	"math/rand"

	"github.com/sarchlab/phoswich/tracking"
)

// fresnel plays the unpolarized Fresnel coefficients at a dielectric
// boundary. dir and normal are unit vectors with dir.Dot(normal) > 0; n1 is
// the index on the incident side, n2 on the far side.
func fresnel(
	rng *rand.Rand,
	dir, normal tracking.Vector3,
	n1, n2 float64,
) (tracking.BoundaryStatus, tracking.Vector3) {
	cosI := dir.Dot(normal)
	eta := n1 / n2
	sin2T := eta * eta * (1 - cosI*cosI)

	if sin2T > 1 {
		return tracking.BoundaryTotalInternalReflection, reflect(dir, normal)
	}

	cosT := math.Sqrt(1 - sin2T)
	rs := (n1*cosI - n2*cosT) / (n1*cosI + n2*cosT)
	rp := (n1*cosT - n2*cosI) / (n1*cosT + n2*cosI)
	reflectance := (rs*rs + rp*rp) / 2

	if rng.Float64() < reflectance {
		return tracking.BoundaryFresnelReflection, reflect(dir, normal)
	}

	refracted := dir.Scale(eta).Sub(normal.Scale(eta*cosI - cosT))
	return tracking.BoundaryFresnelRefraction, refracted.Normalize()
}

// reflect mirrors dir on the face with the given normal.
func reflect(dir, normal tracking.Vector3) tracking.Vector3 {
	return dir.Sub(normal.Scale(2 * dir.Dot(normal)))
}

// lambertianDirection samples a cosine-weighted direction back into the
// incident volume. normal points along the incident direction of travel.
func lambertianDirection(rng *rand.Rand, normal tracking.Vector3) tracking.Vector3 {
	inward := normal.Scale(-1)
	u, v := perpendicularBasis(inward)

	sin2T := rng.Float64()
	sinT := math.Sqrt(sin2T)
	cosT := math.Sqrt(1 - sin2T)
	phi := 2 * math.Pi * rng.Float64()

	d := inward.Scale(cosT)
	d = d.Add(u.Scale(sinT * math.Cos(phi)))
	d = d.Add(v.Scale(sinT * math.Sin(phi)))
	return d.Normalize()
}

// isotropicDirection samples a direction uniformly over the sphere.
func isotropicDirection(rng *rand.Rand) tracking.Vector3 {
	cosT := 2*rng.Float64() - 1
	sinT := math.Sqrt(1 - cosT*cosT)
	phi := 2 * math.Pi * rng.Float64()

	return tracking.Vector3{
		X: sinT * math.Cos(phi),
		Y: sinT * math.Sin(phi),
		Z: cosT,
	}
}

// perpendicularBasis returns two unit vectors that complete w to an
// orthogonal frame.
func perpendicularBasis(w tracking.Vector3) (tracking.Vector3, tracking.Vector3) {
	a := tracking.Vector3{X: 1}
	if math.Abs(w.X) > 0.9 {
		a = tracking.Vector3{Y: 1}
	}

	u := w.Cross(a).Normalize()
	v := w.Cross(u)
	return u, v
}
