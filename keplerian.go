package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// KeplerianElements are the classical orbital elements (a, e, i, Ω, ω, M).
// The semi-major axis is positive for elliptic and hyperbolic orbits, and parabolic orbits have
// a = +Inf with an explicit perigee radius. The mean anomaly of an elliptic orbit is within
// [0, 2π]; open orbits are not periodic and their mean anomaly is signed, negative before
// periapsis. Angles are in radians. Instances are immutable.
type KeplerianElements struct {
	a, e, i, Ω, ω, M float64
	rp               float64
	epoch            Epoch
	observer         *CelestialBody
	frame            Frame
	memo             elementsMemo
}

type elementsMemo struct {
	ν  *float64
	sv *StateVector
	eq *EquinoctialElements
}

// NewKeplerianElements returns validated elliptic or hyperbolic elements.
func NewKeplerianElements(a, e, i, Ω, ω, M float64, epoch Epoch, observer *CelestialBody, frame Frame) (*KeplerianElements, error) {
	if isParabolic(e) {
		return nil, invalidOrbit("eccentricity", e, "is parabolic, use NewParabolicElements")
	}
	k := &KeplerianElements{a: a, e: e, i: i, Ω: Ω, ω: ω, M: M, epoch: epoch, observer: observer, frame: frame}
	if err := k.validate(); err != nil {
		return nil, err
	}
	k.rp = a * math.Abs(1-e)
	return k, nil
}

// NewParabolicElements returns validated parabolic elements from the perigee radius.
// The mean anomaly is Barker's D + D³/3, which is not bounded.
func NewParabolicElements(rp, i, Ω, ω, M float64, epoch Epoch, observer *CelestialBody, frame Frame) (*KeplerianElements, error) {
	if !(rp > 0) || math.IsInf(rp, 0) {
		return nil, invalidOrbit("perigee radius", rp, "must be positive and finite")
	}
	k := &KeplerianElements{a: math.Inf(1), e: 1, i: i, Ω: Ω, ω: ω, M: M, rp: rp, epoch: epoch, observer: observer, frame: frame}
	if err := k.validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KeplerianElements) validate() error {
	if k.observer == nil {
		return invalidOrbit("observer", 0, "is required")
	}
	if k.frame.IsZero() {
		return invalidOrbit("frame", 0, "is required")
	}
	if math.IsNaN(k.e) || k.e < 0 || math.IsInf(k.e, 0) {
		return invalidOrbit("eccentricity", k.e, "must be positive and finite")
	}
	if shapeOf(k.e) != Parabolic && (!(k.a > 0) || math.IsInf(k.a, 0)) {
		return invalidOrbit("semi-major axis", k.a, "must be positive and finite")
	}
	if math.IsNaN(k.i) || k.i < -math.Pi || k.i > math.Pi {
		return invalidOrbit("inclination", k.i, "must be within [-π, π]")
	}
	if math.IsNaN(k.Ω) || k.Ω < 0 || k.Ω > twoπ {
		return invalidOrbit("right ascension of the ascending node", k.Ω, "must be within [0, 2π]")
	}
	if math.IsNaN(k.ω) || k.ω < 0 || k.ω > twoπ {
		return invalidOrbit("argument of periapsis", k.ω, "must be within [0, 2π]")
	}
	if math.IsNaN(k.M) || math.IsInf(k.M, 0) {
		return invalidOrbit("mean anomaly", k.M, "must be finite")
	}
	if shapeOf(k.e) == Elliptical && (k.M < 0 || k.M > twoπ) {
		return invalidOrbit("mean anomaly", k.M, "must be within [0, 2π]")
	}
	if shapeOf(k.e) == Hyperbolic {
		// sinh overflows in the hyperbolic solver past this.
		if math.Abs(k.M) > 1e6 {
			return invalidOrbit("mean anomaly", k.M, "is too far from periapsis")
		}
	}
	return nil
}

func (k *KeplerianElements) orbitalState() {}

// Observer implements the OrbitalState interface.
func (k *KeplerianElements) Observer() *CelestialBody { return k.observer }

// Epoch implements the OrbitalState interface.
func (k *KeplerianElements) Epoch() Epoch { return k.epoch }

// Frame implements the OrbitalState interface.
func (k *KeplerianElements) Frame() Frame { return k.frame }

// SemiMajorAxis returns a in meters.
func (k *KeplerianElements) SemiMajorAxis() float64 { return k.a }

// Eccentricity returns e.
func (k *KeplerianElements) Eccentricity() float64 { return k.e }

// Inclination returns i in radians.
func (k *KeplerianElements) Inclination() float64 { return k.i }

// RAAN returns the right ascension of the ascending node Ω.
func (k *KeplerianElements) RAAN() float64 { return k.Ω }

// ArgumentOfPeriapsis returns ω.
func (k *KeplerianElements) ArgumentOfPeriapsis() float64 { return k.ω }

// MeanAnomaly returns M.
func (k *KeplerianElements) MeanAnomaly() float64 { return k.M }

// IsCircular implements the OrbitalState interface.
func (k *KeplerianElements) IsCircular() bool { return isCircular(k.e) }

// IsElliptical implements the OrbitalState interface.
func (k *KeplerianElements) IsElliptical() bool { return isElliptical(k.e) }

// IsParabolic implements the OrbitalState interface.
func (k *KeplerianElements) IsParabolic() bool { return isParabolic(k.e) }

// IsHyperbolic implements the OrbitalState interface.
func (k *KeplerianElements) IsHyperbolic() bool { return isHyperbolic(k.e) }

// Shape returns the conic section of this orbit.
func (k *KeplerianElements) Shape() Shape { return shapeOf(k.e) }

// SemiLatusRectum returns p in meters.
func (k *KeplerianElements) SemiLatusRectum() float64 {
	if k.Shape() == Parabolic {
		return 2 * k.rp
	}
	return k.a * math.Abs(1-k.e*k.e)
}

// PerigeeRadius returns the periapsis radius in meters.
func (k *KeplerianElements) PerigeeRadius() float64 { return k.rp }

// ApogeeRadius returns the apoapsis radius in meters, +Inf for open orbits.
func (k *KeplerianElements) ApogeeRadius() float64 {
	if k.Shape() != Elliptical {
		return math.Inf(1)
	}
	return k.a * (1 + k.e)
}

// MeanMotion returns n in rad/s. For parabolas this is the Barker rate sqrt(μ/(2 rp³)).
func (k *KeplerianElements) MeanMotion() float64 {
	if k.Shape() == Parabolic {
		return math.Sqrt(k.observer.GM / (2 * k.rp * k.rp * k.rp))
	}
	a := math.Abs(k.a)
	return math.Sqrt(k.observer.GM / (a * a * a))
}

// Period returns the orbital period in seconds, +Inf for open orbits.
func (k *KeplerianElements) Period() float64 {
	if k.Shape() != Elliptical {
		return math.Inf(1)
	}
	return twoπ / k.MeanMotion()
}

// TrueAnomaly returns ν, solving Kepler's equation for the shape of this orbit.
func (k *KeplerianElements) TrueAnomaly() (float64, error) {
	if k.memo.ν == nil {
		ν, err := trueAnomalyFromMean(k.M, k.e, DefaultMaxIterations)
		if err != nil {
			return math.NaN(), err
		}
		k.memo.ν = &ν
	}
	return *k.memo.ν, nil
}

// EccentricAnomaly returns E for elliptic orbits, H for hyperbolic ones and D = tan(ν/2) for parabolas.
func (k *KeplerianElements) EccentricAnomaly() (float64, error) {
	switch k.Shape() {
	case Parabolic:
		return SolveBarker(k.M, DefaultMaxIterations)
	case Hyperbolic:
		return SolveKeplerHyperbolic(k.M, k.e, DefaultMaxIterations)
	default:
		return SolveKeplerElliptic(k.M, k.e, DefaultMaxIterations)
	}
}

// PerigeeVector returns the periapsis position. A circular orbit has no periapsis direction, and
// the vector is a·X̂.
func (k *KeplerianElements) PerigeeVector() r3.Vec {
	if k.e == 0 {
		return r3.Vec{X: k.a}
	}
	return r3.Scale(k.rp, Perifocal2Inertial(k.Ω, k.i, k.ω, r3.Vec{X: 1}))
}

// ApogeeVector returns the apoapsis position of closed orbits.
func (k *KeplerianElements) ApogeeVector() (r3.Vec, error) {
	if k.Shape() != Elliptical {
		return r3.Vec{}, invalidOrbit("eccentricity", k.e, "open orbits have no apogee")
	}
	if k.e == 0 {
		return r3.Vec{X: -k.a}, nil
	}
	return r3.Scale(-k.ApogeeRadius(), Perifocal2Inertial(k.Ω, k.i, k.ω, r3.Vec{X: 1})), nil
}

// PerigeeVelocity returns the speed at periapsis in m/s.
func (k *KeplerianElements) PerigeeVelocity() float64 {
	return math.Sqrt(k.observer.GM * (1 + k.e) / k.rp)
}

// ApogeeVelocity returns the speed at apoapsis of closed orbits in m/s.
func (k *KeplerianElements) ApogeeVelocity() (float64, error) {
	if k.Shape() != Elliptical {
		return math.NaN(), invalidOrbit("eccentricity", k.e, "open orbits have no apogee")
	}
	return math.Sqrt(k.observer.GM/k.SemiLatusRectum()) * (1 - k.e), nil
}

// AscendingNodeVector returns the unit vector towards the ascending node, or X̂ for equatorial orbits.
func (k *KeplerianElements) AscendingNodeVector() r3.Vec {
	if k.i == 0 || math.Abs(math.Sin(k.i)) < angleε {
		return r3.Vec{X: 1}
	}
	sΩ, cΩ := math.Sincos(k.Ω)
	if k.i < 0 {
		return r3.Vec{X: -cΩ, Y: -sΩ}
	}
	return r3.Vec{X: cΩ, Y: sΩ}
}

// ToStateVector implements the OrbitalState interface.
func (k *KeplerianElements) ToStateVector() (*StateVector, error) {
	if k.memo.sv == nil {
		ν, err := k.TrueAnomaly()
		if err != nil {
			return nil, err
		}
		μ := k.observer.GM
		p := k.SemiLatusRectum()
		sν, cν := math.Sincos(ν)
		r := p / (1 + k.e*cν)
		vScale := math.Sqrt(μ / p)
		R := Perifocal2Inertial(k.Ω, k.i, k.ω, r3.Vec{X: r * cν, Y: r * sν})
		V := Perifocal2Inertial(k.Ω, k.i, k.ω, r3.Vec{X: -vScale * sν, Y: vScale * (k.e + cν)})
		sv, err := NewStateVector(R, V, k.epoch, k.observer, k.frame)
		if err != nil {
			return nil, err
		}
		k.memo.sv = sv
	}
	return k.memo.sv.clone(), nil
}

// ToKeplerianElements implements the OrbitalState interface.
func (k *KeplerianElements) ToKeplerianElements() (*KeplerianElements, error) {
	return k, nil
}

// ToEquinoctial implements the OrbitalState interface.
func (k *KeplerianElements) ToEquinoctial() (*EquinoctialElements, error) {
	if k.memo.eq == nil {
		eq, err := equinoctialFromKeplerian(k)
		if err != nil {
			return nil, err
		}
		k.memo.eq = eq
	}
	return k.memo.eq, nil
}

// AtEpoch advances the mean anomaly along the unperturbed two body orbit.
// Only fields are read, so elements shared between goroutines may be advanced concurrently.
func (k *KeplerianElements) AtEpoch(epoch Epoch) (OrbitalState, error) {
	M := k.M + k.MeanMotion()*epoch.Sub(k.epoch)
	if k.Shape() == Elliptical {
		M = wrap2π(M)
	}
	if k.Shape() == Parabolic {
		return NewParabolicElements(k.rp, k.i, k.Ω, k.ω, M, epoch, k.observer, k.frame)
	}
	return NewKeplerianElements(k.a, k.e, k.i, k.Ω, k.ω, M, epoch, k.observer, k.frame)
}

// Equals returns whether two element sets match, naming the element which differs.
func (k *KeplerianElements) Equals(o *KeplerianElements, distanceε, eccentricityε, angularε float64) (bool, error) {
	if !k.observer.Equals(o.observer) {
		return false, fmt.Errorf("observer differs: %s != %s", k.observer, o.observer)
	}
	if k.Shape() == Parabolic && o.Shape() == Parabolic {
		if !scalar.EqualWithinAbs(k.rp, o.rp, distanceε) {
			return false, fmt.Errorf("perigee radius: %f != %f", k.rp, o.rp)
		}
	} else if !scalar.EqualWithinAbs(k.a, o.a, distanceε) {
		return false, fmt.Errorf("semi major axis: %f != %f", k.a, o.a)
	}
	if !scalar.EqualWithinAbs(k.e, o.e, eccentricityε) {
		return false, fmt.Errorf("eccentricity: %f != %f", k.e, o.e)
	}
	if !anglesEqual(k.i, o.i, angularε) {
		return false, fmt.Errorf("inclination: %f != %f", k.i, o.i)
	}
	if !anglesEqual(k.Ω, o.Ω, angularε) {
		return false, fmt.Errorf("RAAN: %f != %f", k.Ω, o.Ω)
	}
	if !anglesEqual(k.ω, o.ω, angularε) {
		return false, fmt.Errorf("argument of periapsis: %f != %f", k.ω, o.ω)
	}
	if !anglesEqual(k.M, o.M, angularε) {
		return false, fmt.Errorf("mean anomaly: %f != %f", k.M, o.M)
	}
	return true, nil
}

// String implements the stringer interface.
func (k *KeplerianElements) String() string {
	return fmt.Sprintf("a=%.3f km e=%.6f i=%.3f Ω=%.3f ω=%.3f M=%.3f @ %s wrt %s", k.a/1e3, k.e, Rad2deg180(k.i), Rad2deg(k.Ω), Rad2deg(k.ω), Rad2deg(k.M), k.epoch, k.observer)
}

// anglesEqual compares two angles modulo 2π.
func anglesEqual(a, b, ε float64) bool {
	return math.Abs(wrapπ(a-b)) < ε
}
