package traj

import "math"

// Orbit shape tolerance bands. The conversions branch on these, so they must not change.
const (
	circularε  = 1e-3
	parabolicε = 1e-6
)

// OrbitalState is the motion state of an object around an observer at an epoch.
// The set of implementations is closed: StateVector, KeplerianElements,
// EquinoctialElements and TLE.
type OrbitalState interface {
	Observer() *CelestialBody
	Epoch() Epoch
	Frame() Frame
	ToStateVector() (*StateVector, error)
	ToKeplerianElements() (*KeplerianElements, error)
	ToEquinoctial() (*EquinoctialElements, error)
	// AtEpoch returns the two body analytic state at the requested epoch.
	AtEpoch(Epoch) (OrbitalState, error)
	IsCircular() bool
	IsElliptical() bool
	IsParabolic() bool
	IsHyperbolic() bool
	orbitalState()
}

// Shape is the conic section an orbit describes.
type Shape uint8

const (
	// Elliptical includes circular orbits.
	Elliptical Shape = iota + 1
	Parabolic
	Hyperbolic
)

func (s Shape) String() string {
	switch s {
	case Elliptical:
		return "elliptical"
	case Parabolic:
		return "parabolic"
	case Hyperbolic:
		return "hyperbolic"
	}
	return "unknown"
}

func isCircular(e float64) bool {
	return e < circularε
}

func isElliptical(e float64) bool {
	return e >= 0 && e <= 1-parabolicε
}

func isParabolic(e float64) bool {
	return math.Abs(e-1) < parabolicε
}

func isHyperbolic(e float64) bool {
	return e > 1
}

// shapeOf classifies an eccentricity. The parabolic band takes precedence over the hyperbolic one.
func shapeOf(e float64) Shape {
	switch {
	case isParabolic(e):
		return Parabolic
	case isElliptical(e):
		return Elliptical
	case isHyperbolic(e):
		return Hyperbolic
	}
	return 0
}
