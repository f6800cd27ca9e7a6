package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EquinoctialElements are the modified equinoctial elements (p, f, g, h, k, L0) with the
// Broucke-Cefola retrograde factor I: I = +1 for i ≤ 90° and -1 otherwise, so that neither
// e = 0, i = 0 nor i = 180° is singular. L0 is the true longitude at epoch.
//
//	f = e cos(ω + IΩ), g = e sin(ω + IΩ)
//	h = tan(i/2)^I cos Ω, k = tan(i/2)^I sin Ω
//	L0 = Ω·I + ω + ν
type EquinoctialElements struct {
	p, f, g, h, k, L0 float64
	retrograde        bool
	epoch             Epoch
	observer          *CelestialBody
	frame             Frame
	memo              struct {
		sv  *StateVector
		kep *KeplerianElements
	}
}

// NewEquinoctialElements returns validated equinoctial elements.
func NewEquinoctialElements(p, f, g, h, k, L0 float64, retrograde bool, epoch Epoch, observer *CelestialBody, frame Frame) (*EquinoctialElements, error) {
	if observer == nil {
		return nil, invalidOrbit("observer", 0, "is required")
	}
	if frame.IsZero() {
		return nil, invalidOrbit("frame", 0, "is required")
	}
	if !(p > 0) || math.IsInf(p, 0) {
		return nil, invalidOrbit("semi-latus rectum", p, "must be positive and finite")
	}
	for _, el := range []struct {
		name string
		val  float64
	}{{"f", f}, {"g", g}, {"h", h}, {"k", k}, {"true longitude", L0}} {
		if math.IsNaN(el.val) || math.IsInf(el.val, 0) {
			return nil, invalidOrbit(el.name, el.val, "must be finite")
		}
	}
	return &EquinoctialElements{p: p, f: f, g: g, h: h, k: k, L0: wrap2π(L0), retrograde: retrograde, epoch: epoch, observer: observer, frame: frame}, nil
}

func (eq *EquinoctialElements) orbitalState() {}

// Observer implements the OrbitalState interface.
func (eq *EquinoctialElements) Observer() *CelestialBody { return eq.observer }

// Epoch implements the OrbitalState interface.
func (eq *EquinoctialElements) Epoch() Epoch { return eq.epoch }

// Frame implements the OrbitalState interface.
func (eq *EquinoctialElements) Frame() Frame { return eq.frame }

// Elements returns (p, f, g, h, k, L0).
func (eq *EquinoctialElements) Elements() (p, f, g, h, k, L0 float64) {
	return eq.p, eq.f, eq.g, eq.h, eq.k, eq.L0
}

// Retrograde returns whether the retrograde factor is -1.
func (eq *EquinoctialElements) Retrograde() bool { return eq.retrograde }

func (eq *EquinoctialElements) factor() float64 {
	if eq.retrograde {
		return -1
	}
	return 1
}

// Eccentricity returns e = sqrt(f² + g²).
func (eq *EquinoctialElements) Eccentricity() float64 { return math.Hypot(eq.f, eq.g) }

// IsCircular implements the OrbitalState interface.
func (eq *EquinoctialElements) IsCircular() bool { return isCircular(eq.Eccentricity()) }

// IsElliptical implements the OrbitalState interface.
func (eq *EquinoctialElements) IsElliptical() bool { return isElliptical(eq.Eccentricity()) }

// IsParabolic implements the OrbitalState interface.
func (eq *EquinoctialElements) IsParabolic() bool { return isParabolic(eq.Eccentricity()) }

// IsHyperbolic implements the OrbitalState interface.
func (eq *EquinoctialElements) IsHyperbolic() bool { return isHyperbolic(eq.Eccentricity()) }

// angles returns the inclination and RAAN encoded by h and k.
func (eq *EquinoctialElements) angles() (i, Ω float64) {
	s := math.Hypot(eq.h, eq.k)
	i = 2 * math.Atan(s)
	if eq.retrograde {
		i = math.Pi - i
	}
	if s == 0 {
		return i, 0
	}
	return i, wrap2π(math.Atan2(eq.k, eq.h))
}

// ToStateVector implements the OrbitalState interface. The equinoctial basis (f̂, ĝ) is the
// orbital plane frame of the 3-1-3 sequence (Ω, i, -IΩ).
func (eq *EquinoctialElements) ToStateVector() (*StateVector, error) {
	if eq.memo.sv == nil {
		i, Ω := eq.angles()
		I := eq.factor()
		sL, cL := math.Sincos(eq.L0)
		w := 1 + eq.f*cL + eq.g*sL
		if w <= 0 {
			return nil, invalidOrbit("true longitude", eq.L0, "is beyond the asymptote")
		}
		r := eq.p / w
		vScale := math.Sqrt(eq.observer.GM / eq.p)
		R := Perifocal2Inertial(Ω, i, -I*Ω, r3.Vec{X: r * cL, Y: r * sL})
		V := Perifocal2Inertial(Ω, i, -I*Ω, r3.Vec{X: -vScale * (eq.g + sL), Y: vScale * (eq.f + cL)})
		sv, err := NewStateVector(R, V, eq.epoch, eq.observer, eq.frame)
		if err != nil {
			return nil, err
		}
		eq.memo.sv = sv
	}
	return eq.memo.sv.clone(), nil
}

// ToKeplerianElements implements the OrbitalState interface.
func (eq *EquinoctialElements) ToKeplerianElements() (*KeplerianElements, error) {
	if eq.memo.kep != nil {
		return eq.memo.kep, nil
	}
	i, Ω := eq.angles()
	I := eq.factor()
	e := eq.Eccentricity()
	var ω, ν float64
	if e < angleε {
		// No periapsis: the true longitude becomes the argument of latitude.
		e = 0
		ν = wrap2π(eq.L0 - I*Ω)
	} else {
		ϖ := math.Atan2(eq.g, eq.f)
		ω = wrap2π(ϖ - I*Ω)
		ν = wrap2π(eq.L0 - ϖ)
	}
	var kep *KeplerianElements
	var err error
	switch shapeOf(e) {
	case Parabolic:
		ν = wrapπ(ν)
		kep, err = NewParabolicElements(eq.p/2, i, Ω, ω, meanFromTrue(ν, 1), eq.epoch, eq.observer, eq.frame)
	case Hyperbolic:
		ν = wrapπ(ν)
		kep, err = NewKeplerianElements(eq.p/(e*e-1), e, i, Ω, ω, meanFromTrue(ν, e), eq.epoch, eq.observer, eq.frame)
	default:
		kep, err = NewKeplerianElements(eq.p/(1-e*e), e, i, Ω, ω, meanFromTrue(ν, e), eq.epoch, eq.observer, eq.frame)
	}
	if err != nil {
		return nil, err
	}
	kep.memo.ν = &ν
	eq.memo.kep = kep
	return kep, nil
}

// ToEquinoctial implements the OrbitalState interface.
func (eq *EquinoctialElements) ToEquinoctial() (*EquinoctialElements, error) {
	return eq, nil
}

// AtEpoch implements the OrbitalState interface.
func (eq *EquinoctialElements) AtEpoch(epoch Epoch) (OrbitalState, error) {
	kep, err := eq.ToKeplerianElements()
	if err != nil {
		return nil, err
	}
	advanced, err := kep.AtEpoch(epoch)
	if err != nil {
		return nil, err
	}
	return advanced.ToEquinoctial()
}

// String implements the stringer interface.
func (eq *EquinoctialElements) String() string {
	return fmt.Sprintf("p=%.3f km f=%.6f g=%.6f h=%.6f k=%.6f L=%.3f I=%+.0f @ %s wrt %s", eq.p/1e3, eq.f, eq.g, eq.h, eq.k, Rad2deg(eq.L0), eq.factor(), eq.epoch, eq.observer)
}

// equinoctialFromKeplerian relies on the explicit singular branches of the classical elements:
// circular orbits carry ω = 0 and equatorial orbits carry Ω = 0.
func equinoctialFromKeplerian(kep *KeplerianElements) (*EquinoctialElements, error) {
	ν, err := kep.TrueAnomaly()
	if err != nil {
		return nil, err
	}
	i, Ω, ω := kep.i, kep.Ω, kep.ω
	if i < 0 {
		// A negative inclination is the same plane seen from the other node.
		i = -i
		Ω = wrap2π(Ω + math.Pi)
		ω = wrap2π(ω + math.Pi)
	}
	retrograde := i > math.Pi/2
	I := 1.0
	tanHalf := math.Tan(i / 2)
	if retrograde {
		I = -1
		tanHalf = 1 / tanHalf
	}
	ϖ := ω + I*Ω
	sΩ, cΩ := math.Sincos(Ω)
	sϖ, cϖ := math.Sincos(ϖ)
	return NewEquinoctialElements(kep.SemiLatusRectum(), kep.e*cϖ, kep.e*sϖ, tanHalf*cΩ, tanHalf*sΩ,
		ϖ+ν, retrograde, kep.epoch, kep.observer, kep.frame)
}
