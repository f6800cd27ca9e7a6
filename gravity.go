package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GravitationalAcceleration is the gravity of one body: its point mass term, plus its
// geopotential when it has one and a body fixed frame to evaluate it in.
type GravitationalAcceleration struct {
	Body *CelestialBody
	// PointMassOnly ignores the geopotential of the body.
	PointMassOnly bool
}

// NewGravity returns the full gravity field of the body.
func NewGravity(body *CelestialBody) *GravitationalAcceleration {
	return &GravitationalAcceleration{Body: body}
}

// Name implements the Force interface.
func (g *GravitationalAcceleration) Name() string {
	if g.usesGeopotential() {
		return fmt.Sprintf("%s gravity with geopotential", g.Body)
	}
	return fmt.Sprintf("%s gravity", g.Body)
}

func (g *GravitationalAcceleration) usesGeopotential() bool {
	return !g.PointMassOnly && g.Body.Geopotential != nil && !g.Body.FixedFrame.IsZero()
}

// CacheRequests implements the EphemerisDependent interface.
func (g *GravitationalAcceleration) CacheRequests() []CacheRequest {
	return []CacheRequest{{Body: g.Body, Aberration: AberrationNone}}
}

// Acceleration implements the Force interface.
func (g *GravitationalAcceleration) Acceleration(env *Environment, sv *StateVector) (r3.Vec, error) {
	center, err := env.BodyPosition(g.Body, AberrationNone, sv.epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	r := r3.Sub(sv.position, center)
	rN := r3.Norm(r)
	if rN == 0 {
		return r3.Vec{}, fmt.Errorf("%w: spacecraft at the center of %s", ErrInvalidOrbit, g.Body)
	}
	acc := r3.Scale(-g.Body.GM/(rN*rN*rN), r)
	if !g.usesGeopotential() {
		return acc, nil
	}
	o, err := env.Orientation(g.Body.FixedFrame, sv.epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	pert := g.Body.Geopotential.Acceleration(o.Rotate(r), g.Body)
	return r3.Add(acc, o.Inverse().Rotate(pert)), nil
}

// ThirdBodyPerturbation is the differential gravity of a perturbing body on a spacecraft orbiting
// a central body. It uses Battin's f(q) formulation, which avoids subtracting the two nearly equal
// inverse square terms when the perturber is far away.
type ThirdBodyPerturbation struct {
	Perturber, Central *CelestialBody
}

// Name implements the Force interface.
func (tb *ThirdBodyPerturbation) Name() string {
	return fmt.Sprintf("%s third body on %s", tb.Perturber, tb.Central)
}

// CacheRequests implements the EphemerisDependent interface.
func (tb *ThirdBodyPerturbation) CacheRequests() []CacheRequest {
	return []CacheRequest{
		{Body: tb.Perturber, Aberration: AberrationNone},
		{Body: tb.Central, Aberration: AberrationNone},
	}
}

// Acceleration implements the Force interface.
func (tb *ThirdBodyPerturbation) Acceleration(env *Environment, sv *StateVector) (r3.Vec, error) {
	if tb.Perturber.Equals(tb.Central) {
		return r3.Vec{}, nil
	}
	c, err := env.BodyPosition(tb.Central, AberrationNone, sv.epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	p, err := env.BodyPosition(tb.Perturber, AberrationNone, sv.epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	return battin(tb.Perturber.GM, r3.Sub(sv.position, c), r3.Sub(p, c)), nil
}

// battin returns the third body acceleration for a spacecraft at r and a perturber at s, both
// relative to the central body.
func battin(μ float64, r, s r3.Vec) r3.Vec {
	d := r3.Sub(r, s)
	dN := r3.Norm(d)
	q := r3.Dot(r, r3.Sub(r, r3.Scale(2, s))) / r3.Dot(s, s)
	fq := q * (3 + 3*q + q*q) / (1 + math.Pow(1+q, 1.5))
	return r3.Scale(-μ/(dN*dN*dN), r3.Add(r, r3.Scale(fq, s)))
}
