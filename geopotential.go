package traj

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geopotential computes the non-spherical part of the gravity of a body.
// The position is expressed in the body fixed frame, and so is the returned acceleration.
type Geopotential interface {
	Acceleration(r r3.Vec, body *CelestialBody) r3.Vec
}

// ZonalHarmonics is an axisymmetric geopotential truncated at J4.
type ZonalHarmonics struct {
	J2, J3, J4 float64
}

// J returns the perturbing J_n factor for the provided n.
func (z *ZonalHarmonics) J(n uint8) float64 {
	switch n {
	case 2:
		return z.J2
	case 3:
		return z.J3
	case 4:
		return z.J4
	default:
		return 0.0
	}
}

// Acceleration implements the Geopotential interface.
func (z *ZonalHarmonics) Acceleration(r r3.Vec, body *CelestialBody) r3.Vec {
	var pert r3.Vec
	rN := r3.Norm(r)
	if rN == 0 {
		return pert
	}
	x, y, zr := r.X, r.Y, r.Z
	μ := body.GM
	R := body.Radius
	z2 := zr * zr
	r5 := math.Pow(rN, 5)
	r7 := r5 * rN * rN
	if z.J2 != 0 {
		accJ2 := 1.5 * z.J2 * R * R * μ
		pert.X += accJ2 * (5*x*z2/r7 - x/r5)
		pert.Y += accJ2 * (5*y*z2/r7 - y/r5)
		pert.Z += accJ2 * (5*zr*z2/r7 - 3*zr/r5)
	}
	if z.J3 != 0 {
		r9 := r7 * rN * rN
		accJ3 := z.J3 * math.Pow(R, 3) * μ
		pert.X += 2.5 * accJ3 * (7*x*zr*z2/r9 - 3*x*zr/r7)
		pert.Y += 2.5 * accJ3 * (7*y*zr*z2/r9 - 3*y*zr/r7)
		pert.Z += 0.5 * accJ3 * (35*z2*z2/r9 - 30*z2/r7 + 3/r5)
	}
	if z.J4 != 0 {
		accJ4 := z.J4 * math.Pow(R, 4) * μ / r7
		ρ2 := z2 / (rN * rN)
		xy := 15. / 8 * accJ4 * (1 - 14*ρ2 + 21*ρ2*ρ2)
		pert.X += xy * x
		pert.Y += xy * y
		pert.Z += 5. / 8 * accJ4 * zr * (15 - 70*ρ2 + 63*ρ2*ρ2)
	}
	return pert
}
