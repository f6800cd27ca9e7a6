package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// StateVector is a Cartesian position and velocity of an object relative to an observer.
// Position and velocity are the only mutable fields: they are changed by the propagator through
// Trajectory, which clears every memoized derived quantity.
// A StateVector is not safe for concurrent use.
type StateVector struct {
	position, velocity r3.Vec
	epoch              Epoch
	observer           *CelestialBody
	frame              Frame
	memo               stateMemo
}

type stateMemo struct {
	h, e *r3.Vec
	kep  *KeplerianElements
	eq   *EquinoctialElements
}

// NewStateVector returns a validated state vector. Position is in meters and velocity in m/s.
func NewStateVector(r, v r3.Vec, epoch Epoch, observer *CelestialBody, frame Frame) (*StateVector, error) {
	if observer == nil {
		return nil, invalidOrbit("observer", 0, "is required")
	}
	if !finite(r) {
		return nil, invalidOrbit("position", r3.Norm(r), "must be finite")
	}
	if !finite(v) {
		return nil, invalidOrbit("velocity", r3.Norm(v), "must be finite")
	}
	if frame.IsZero() {
		return nil, invalidOrbit("frame", 0, "is required")
	}
	return &StateVector{position: r, velocity: v, epoch: epoch, observer: observer, frame: frame}, nil
}

func (sv *StateVector) orbitalState() {}

// Observer implements the OrbitalState interface.
func (sv *StateVector) Observer() *CelestialBody { return sv.observer }

// Epoch implements the OrbitalState interface.
func (sv *StateVector) Epoch() Epoch { return sv.epoch }

// Frame implements the OrbitalState interface.
func (sv *StateVector) Frame() Frame { return sv.frame }

// Position returns the position in meters.
func (sv *StateVector) Position() r3.Vec { return sv.position }

// Velocity returns the velocity in m/s.
func (sv *StateVector) Velocity() r3.Vec { return sv.velocity }

// set mutates the state in place and invalidates the memoized quantities.
func (sv *StateVector) set(r, v r3.Vec) {
	sv.position = r
	sv.velocity = v
	sv.memo = stateMemo{}
}

// reset is set for the scratch states of the integrator, which also move in time.
func (sv *StateVector) reset(epoch Epoch, r, v r3.Vec) {
	sv.epoch = epoch
	sv.set(r, v)
}

// clone returns a copy without the memoized values.
func (sv *StateVector) clone() *StateVector {
	return &StateVector{position: sv.position, velocity: sv.velocity, epoch: sv.epoch, observer: sv.observer, frame: sv.frame}
}

// ToStateVector implements the OrbitalState interface and returns a copy.
func (sv *StateVector) ToStateVector() (*StateVector, error) {
	return sv.clone(), nil
}

// ToKeplerianElements implements the OrbitalState interface.
func (sv *StateVector) ToKeplerianElements() (*KeplerianElements, error) {
	if sv.memo.kep == nil {
		kep, err := keplerianFromState(sv)
		if err != nil {
			return nil, err
		}
		kep.memo.sv = sv.clone()
		sv.memo.kep = kep
	}
	return sv.memo.kep, nil
}

// ToEquinoctial implements the OrbitalState interface.
func (sv *StateVector) ToEquinoctial() (*EquinoctialElements, error) {
	if sv.memo.eq == nil {
		kep, err := sv.ToKeplerianElements()
		if err != nil {
			return nil, err
		}
		eq, err := kep.ToEquinoctial()
		if err != nil {
			return nil, err
		}
		sv.memo.eq = eq
	}
	return sv.memo.eq, nil
}

// AtEpoch implements the OrbitalState interface.
func (sv *StateVector) AtEpoch(epoch Epoch) (OrbitalState, error) {
	if epoch == sv.epoch {
		return sv.clone(), nil
	}
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return nil, err
	}
	advanced, err := kep.AtEpoch(epoch)
	if err != nil {
		return nil, err
	}
	return advanced.ToStateVector()
}

// IsCircular implements the OrbitalState interface.
func (sv *StateVector) IsCircular() bool { return isCircular(sv.Eccentricity()) }

// IsElliptical implements the OrbitalState interface.
func (sv *StateVector) IsElliptical() bool { return isElliptical(sv.Eccentricity()) }

// IsParabolic implements the OrbitalState interface.
func (sv *StateVector) IsParabolic() bool { return isParabolic(sv.Eccentricity()) }

// IsHyperbolic implements the OrbitalState interface.
func (sv *StateVector) IsHyperbolic() bool { return isHyperbolic(sv.Eccentricity()) }

// SpecificEnergy returns ξ in m²/s².
func (sv *StateVector) SpecificEnergy() float64 {
	v := r3.Norm(sv.velocity)
	return v*v/2 - sv.observer.GM/r3.Norm(sv.position)
}

// AngularMomentum returns the specific angular momentum vector h = r × v.
func (sv *StateVector) AngularMomentum() r3.Vec {
	if sv.memo.h == nil {
		h := r3.Cross(sv.position, sv.velocity)
		sv.memo.h = &h
	}
	return *sv.memo.h
}

// EccentricityVector returns the vector pointing to periapsis with the eccentricity as norm.
func (sv *StateVector) EccentricityVector() r3.Vec {
	if sv.memo.e == nil {
		μ := sv.observer.GM
		r, v := sv.position, sv.velocity
		rN, vN := r3.Norm(r), r3.Norm(v)
		e := r3.Scale(1/μ, r3.Sub(r3.Scale(vN*vN-μ/rN, r), r3.Scale(r3.Dot(r, v), v)))
		sv.memo.e = &e
	}
	return *sv.memo.e
}

// Eccentricity returns the norm of the eccentricity vector.
func (sv *StateVector) Eccentricity() float64 {
	return r3.Norm(sv.EccentricityVector())
}

// SemiMajorAxis returns a in meters, |μ/2ξ| for both closed and open orbits and +Inf for parabolas.
func (sv *StateVector) SemiMajorAxis() float64 {
	if isParabolic(sv.Eccentricity()) {
		return math.Inf(1)
	}
	return math.Abs(sv.observer.GM / (2 * sv.SpecificEnergy()))
}

// Inclination returns i in [0, π].
func (sv *StateVector) Inclination() float64 {
	h := sv.AngularMomentum()
	return math.Acos(clampCos(h.Z / r3.Norm(h)))
}

// Period returns the orbital period in seconds, +Inf for open orbits.
func (sv *StateVector) Period() float64 {
	if !isElliptical(sv.Eccentricity()) {
		return math.Inf(1)
	}
	a := sv.SemiMajorAxis()
	return twoπ * math.Sqrt(a*a*a/sv.observer.GM)
}

// MeanMotion returns the mean motion in rad/s.
func (sv *StateVector) MeanMotion() float64 {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return math.NaN()
	}
	return kep.MeanMotion()
}

// elementOf returns a value of the osculating elements, or NaN when there are none.
func (sv *StateVector) elementOf(f func(*KeplerianElements) float64) float64 {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return math.NaN()
	}
	return f(kep)
}

// AscendingNode returns Ω, zero for equatorial orbits.
func (sv *StateVector) AscendingNode() float64 {
	return sv.elementOf((*KeplerianElements).RAAN)
}

// ArgumentOfPeriapsis returns ω, zero for circular orbits.
func (sv *StateVector) ArgumentOfPeriapsis() float64 {
	return sv.elementOf((*KeplerianElements).ArgumentOfPeriapsis)
}

// MeanAnomaly returns M.
func (sv *StateVector) MeanAnomaly() float64 {
	return sv.elementOf((*KeplerianElements).MeanAnomaly)
}

// TrueAnomaly returns ν. For circular orbits this is the argument of latitude, or the true
// longitude when also equatorial.
func (sv *StateVector) TrueAnomaly() (float64, error) {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return math.NaN(), err
	}
	return kep.TrueAnomaly()
}

// EccentricAnomaly returns E, H or D depending on the shape of the orbit.
func (sv *StateVector) EccentricAnomaly() (float64, error) {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return math.NaN(), err
	}
	return kep.EccentricAnomaly()
}

// PerigeeVector returns the periapsis position.
func (sv *StateVector) PerigeeVector() (r3.Vec, error) {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return r3.Vec{}, err
	}
	return kep.PerigeeVector(), nil
}

// ApogeeVector returns the apoapsis position of closed orbits.
func (sv *StateVector) ApogeeVector() (r3.Vec, error) {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return r3.Vec{}, err
	}
	return kep.ApogeeVector()
}

// PerigeeVelocity returns the speed at periapsis in m/s.
func (sv *StateVector) PerigeeVelocity() float64 {
	return sv.elementOf((*KeplerianElements).PerigeeVelocity)
}

// ApogeeVelocity returns the speed at apoapsis of closed orbits in m/s.
func (sv *StateVector) ApogeeVelocity() (float64, error) {
	kep, err := sv.ToKeplerianElements()
	if err != nil {
		return math.NaN(), err
	}
	return kep.ApogeeVelocity()
}

// AscendingNodeVector returns the unit vector towards the ascending node, X̂ for equatorial orbits.
func (sv *StateVector) AscendingNodeVector() r3.Vec {
	h := sv.AngularMomentum()
	n := r3.Vec{X: -h.Y, Y: h.X}
	if nN := r3.Norm(n); nN/r3.Norm(h) >= angleε {
		return r3.Scale(1/nN, n)
	}
	return r3.Vec{X: 1}
}

// Add returns the state offset by the provided position and velocity, at the same epoch and
// relative to the same observer.
func (sv *StateVector) Add(r, v r3.Vec) *StateVector {
	return &StateVector{position: r3.Add(sv.position, r), velocity: r3.Add(sv.velocity, v), epoch: sv.epoch, observer: sv.observer, frame: sv.frame}
}

// Sub returns the difference of position and velocity between two states.
func (sv *StateVector) Sub(o *StateVector) (r, v r3.Vec) {
	return r3.Sub(sv.position, o.position), r3.Sub(sv.velocity, o.velocity)
}

// RelativeTo returns this state as seen from another observer, using the ephemeris service to place
// the new observer with respect to the current one.
func (sv *StateVector) RelativeTo(observer *CelestialBody, svc EphemerisService) (*StateVector, error) {
	if sv.observer.Equals(observer) {
		return sv.clone(), nil
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: %s relative to %s", ErrNoEphemeris, observer, sv.observer)
	}
	o, err := svc.Ephemeris(sv.epoch, observer, sv.observer, sv.frame, AberrationNone)
	if err != nil {
		return nil, err
	}
	return &StateVector{position: r3.Sub(sv.position, o.position), velocity: r3.Sub(sv.velocity, o.velocity), epoch: sv.epoch, observer: observer, frame: sv.frame}, nil
}

// RNorm returns the norm of the position.
func (sv *StateVector) RNorm() float64 {
	return r3.Norm(sv.position)
}

// VNorm returns the norm of the velocity.
func (sv *StateVector) VNorm() float64 {
	return r3.Norm(sv.velocity)
}

// Equals returns whether two states match within the provided position and velocity tolerances.
// The error states which component is off.
func (sv *StateVector) Equals(o *StateVector, posε, velε float64) (bool, error) {
	if !sv.observer.Equals(o.observer) {
		return false, fmt.Errorf("observer differs: %s != %s", sv.observer, o.observer)
	}
	if sv.frame != o.frame {
		return false, fmt.Errorf("frame differs: %s != %s", sv.frame, o.frame)
	}
	if d := r3.Norm(r3.Sub(sv.position, o.position)); d > posε {
		return false, fmt.Errorf("position differs by %g m", d)
	}
	if d := r3.Norm(r3.Sub(sv.velocity, o.velocity)); d > velε {
		return false, fmt.Errorf("velocity differs by %g m/s", d)
	}
	return true, nil
}

// String implements the stringer interface.
func (sv *StateVector) String() string {
	return fmt.Sprintf("r=(%.3f, %.3f, %.3f) m v=(%.6f, %.6f, %.6f) m/s @ %s wrt %s in %s",
		sv.position.X, sv.position.Y, sv.position.Z, sv.velocity.X, sv.velocity.Y, sv.velocity.Z,
		sv.epoch, sv.observer, sv.frame)
}

// keplerianFromState converts a Cartesian state into classical elements.
// Vallado, 4th ed., algorithm 9, with explicit circular and equatorial branches.
func keplerianFromState(sv *StateVector) (*KeplerianElements, error) {
	μ := sv.observer.GM
	r, v := sv.position, sv.velocity
	rN := r3.Norm(r)
	if rN == 0 {
		return nil, invalidOrbit("position", 0, "is at the center of the observer")
	}
	h := sv.AngularMomentum()
	hN := r3.Norm(h)
	if hN == 0 {
		return nil, invalidOrbit("angular momentum", 0, "rectilinear trajectories have no elements")
	}
	n := r3.Vec{X: -h.Y, Y: h.X}
	nN := r3.Norm(n)
	eVec := sv.EccentricityVector()
	e := r3.Norm(eVec)
	i := math.Acos(clampCos(h.Z / hN))
	p := hN * hN / μ

	equatorial := nN/hN < angleε
	retrograde := i > math.Pi/2
	circular := e < angleε

	var Ω, ω, ν float64
	if !equatorial {
		Ω = math.Acos(clampCos(n.X / nN))
		if n.Y < 0 {
			Ω = twoπ - Ω
		}
	}

	switch {
	case !circular && !equatorial:
		ω = math.Acos(clampCos(r3.Dot(n, eVec) / (nN * e)))
		if eVec.Z < 0 {
			ω = twoπ - ω
		}
	case !circular && equatorial:
		// Longitude of periapsis, measured in the reversed sense for retrograde orbits.
		ω = math.Atan2(eVec.Y, eVec.X)
		if retrograde {
			ω = -ω
		}
		ω = wrap2π(ω)
	}

	switch {
	case !circular:
		ν = math.Acos(clampCos(r3.Dot(eVec, r) / (e * rN)))
		if r3.Dot(r, v) < 0 {
			ν = twoπ - ν
		}
	case !equatorial:
		// Argument of latitude.
		ν = math.Acos(clampCos(r3.Dot(n, r) / (nN * rN)))
		if r.Z < 0 {
			ν = twoπ - ν
		}
	default:
		// True longitude.
		ν = math.Atan2(r.Y, r.X)
		if retrograde {
			ν = -ν
		}
		ν = wrap2π(ν)
	}
	if circular {
		e = 0
	}

	var kep *KeplerianElements
	var err error
	switch shapeOf(e) {
	case Parabolic:
		ν = wrapπ(ν)
		kep, err = NewParabolicElements(p/2, i, Ω, ω, meanFromTrue(ν, 1), sv.epoch, sv.observer, sv.frame)
	case Hyperbolic:
		ν = wrapπ(ν)
		fallthrough
	default:
		kep, err = NewKeplerianElements(sv.SemiMajorAxis(), e, i, Ω, ω, meanFromTrue(ν, e), sv.epoch, sv.observer, sv.frame)
	}
	if err != nil {
		return nil, err
	}
	kep.memo.ν = &ν
	return kep, nil
}
