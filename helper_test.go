package traj

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// vectorsEqual returns whether both vectors are equal within ε on each component.
func vectorsEqual(a, b r3.Vec, ε float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, ε) && scalar.EqualWithinAbs(a.Y, b.Y, ε) && scalar.EqualWithinAbs(a.Z, b.Z, ε)
}

// circularState returns a circular equatorial orbit of radius r around the body, starting on X.
func circularState(r float64, body *CelestialBody, epoch Epoch) *StateVector {
	sv, err := NewStateVector(r3.Vec{X: r}, r3.Vec{Y: math.Sqrt(body.GM / r)}, epoch, body, ICRF)
	if err != nil {
		panic(err)
	}
	return sv
}

// pointMassEarth is an Earth without geopotential nor rotation.
var pointMassEarth = &CelestialBody{Name: "Earth", NaifID: 399, GM: 3.986e14, Radius: 6378e3}
