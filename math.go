package traj

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	deg2rad = math.Pi / 180
	twoπ    = 2 * math.Pi
	// angleε is the threshold under which angles and eccentricities are treated as exactly zero.
	angleε = 1e-11
)

// unit returns the unit vector of a given vector, or the zero vector.
func unit(a r3.Vec) r3.Vec {
	n := r3.Norm(a)
	if scalar.EqualWithinAbs(n, 0, 1e-12) {
		return r3.Vec{}
	}
	return r3.Scale(1/n, a)
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if scalar.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// clampCos prevents acos from returning NaN when round off pushes a cosine past ±1.
func clampCos(c float64) float64 {
	if math.Abs(c) > 1 && scalar.EqualWithinAbs(math.Abs(c), 1, 1e-12) {
		return sign(c)
	}
	return math.Max(-1, math.Min(1, c))
}

// wrap2π returns the angle in [0, 2π).
func wrap2π(θ float64) float64 {
	θ = math.Mod(θ, twoπ)
	if θ < 0 {
		θ += twoπ
	}
	return θ
}

// wrapπ returns the angle in (-π, π].
func wrapπ(θ float64) float64 {
	θ = wrap2π(θ)
	if θ > math.Pi {
		θ -= twoπ
	}
	return θ
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return wrap2π(a * deg2rad)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	return wrap2π(a) / deg2rad
}

// Rad2deg180 converts radians to degrees in (-180, 180].
func Rad2deg180(a float64) float64 {
	return wrapπ(a) / deg2rad
}

// finite returns whether all components of the vector are finite.
func finite(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
