package traj

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/sidereal"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ObliquityJ2000 is the IAU 1976 obliquity of the ecliptic at J2000, in radians.
const ObliquityJ2000 = 84381.448 / 3600 * deg2rad

// Frame identifies a reference frame.
type Frame struct {
	Name     string
	Inertial bool
}

func (f Frame) String() string {
	return f.Name
}

// IsZero returns whether this frame is unset.
func (f Frame) IsZero() bool {
	return f.Name == ""
}

var (
	// ICRF is the International Celestial Reference Frame (J2000 mean equator and equinox).
	ICRF = Frame{Name: "ICRF", Inertial: true}
	// EclipticJ2000 is the J2000 mean ecliptic and equinox.
	EclipticJ2000 = Frame{Name: "ECLIPJ2000", Inertial: true}
	// TEME is the true equator mean equinox frame of SGP4, treated as ICRF.
	TEME = Frame{Name: "TEME", Inertial: true}
	// IAUEarth is the rotating Earth body-fixed frame.
	IAUEarth = Frame{Name: "IAU_EARTH", Inertial: false}
)

// FrameFromString returns the frame from its name.
func FrameFromString(name string) (Frame, error) {
	for _, f := range []Frame{ICRF, EclipticJ2000, TEME, IAUEarth} {
		if f.Name == name {
			return f, nil
		}
	}
	if name == "J2000" {
		return ICRF, nil
	}
	return Frame{}, fmt.Errorf("%w: %q", ErrUnknownFrame, name)
}

// Aberration is the correction applied to an ephemeris lookup.
type Aberration uint8

const (
	// AberrationNone returns geometric states.
	AberrationNone Aberration = iota
	// LT corrects for one way light time (reception).
	LT
	// LTS corrects for light time and stellar aberration.
	LTS
	// CN is converged Newtonian light time.
	CN
	// CNS is converged Newtonian light time with stellar aberration.
	CNS
	// XLT is the transmission case of LT.
	XLT
	// XLTS is the transmission case of LTS.
	XLTS
	// XCN is the transmission case of CN.
	XCN
	// XCNS is the transmission case of CNS.
	XCNS
)

var aberrationNames = [...]string{"NONE", "LT", "LT+S", "CN", "CN+S", "XLT", "XLT+S", "XCN", "XCN+S"}

func (a Aberration) String() string {
	if int(a) < len(aberrationNames) {
		return aberrationNames[a]
	}
	return fmt.Sprintf("Aberration(%d)", a)
}

func (a Aberration) transmission() bool {
	return a >= XLT
}

func (a Aberration) stellar() bool {
	switch a {
	case LTS, CNS, XLTS, XCNS:
		return true
	}
	return false
}

// lightTimeIterations returns how many light time iterations the correction needs.
func (a Aberration) lightTimeIterations() int {
	switch a {
	case AberrationNone:
		return 0
	case CN, CNS, XCN, XCNS:
		return 3
	}
	return 1
}

// Orientation is a rotation from Frame into another frame at an epoch, with the angular velocity of the
// destination frame with respect to Frame, expressed in the destination frame.
type Orientation struct {
	Epoch           Epoch
	Frame           Frame
	Rotation        quat.Number
	AngularVelocity r3.Vec
}

// identityOrientation returns the orientation which does nothing.
func identityOrientation(epoch Epoch, frame Frame) Orientation {
	return Orientation{Epoch: epoch, Frame: frame, Rotation: quat.Number{Real: 1}}
}

// axisAngle returns the unit quaternion rotating vectors by θ about the axis.
func axisAngle(axis r3.Vec, θ float64) quat.Number {
	s, c := math.Sincos(θ / 2)
	u := unit(axis)
	return quat.Number{Real: c, Imag: s * u.X, Jmag: s * u.Y, Kmag: s * u.Z}
}

// Rotate rotates the vector.
func (o Orientation) Rotate(v r3.Vec) r3.Vec {
	q := o.Rotation
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// TransformState rotates a position and velocity, removing the transport term of rotating frames.
func (o Orientation) TransformState(r, v r3.Vec) (r3.Vec, r3.Vec) {
	r1 := o.Rotate(r)
	v1 := r3.Sub(o.Rotate(v), r3.Cross(o.AngularVelocity, r1))
	return r1, v1
}

// Inverse returns the reverse transformation.
func (o Orientation) Inverse() Orientation {
	inv := Orientation{Epoch: o.Epoch, Rotation: quat.Conj(o.Rotation)}
	inv.AngularVelocity = r3.Scale(-1, inv.Rotate(o.AngularVelocity))
	return inv
}

// Compose returns the transformation applying o first and then next.
func (o Orientation) Compose(next Orientation) Orientation {
	return Orientation{
		Epoch:           o.Epoch,
		Frame:           o.Frame,
		Rotation:        quat.Mul(next.Rotation, o.Rotation),
		AngularVelocity: r3.Add(next.Rotate(o.AngularVelocity), next.AngularVelocity),
	}
}

// StandardFrames transforms between the built in frames without any kernel.
// Precession and nutation are ignored, and the Earth rotates at a constant rate.
type StandardFrames struct{}

// TransformFrame returns the orientation of `to` with respect to `from`.
func (StandardFrames) TransformFrame(from, to Frame, epoch Epoch) (Orientation, error) {
	fromICRF, err := icrfTo(from, epoch)
	if err != nil {
		return Orientation{}, err
	}
	toICRF, err := icrfTo(to, epoch)
	if err != nil {
		return Orientation{}, err
	}
	o := fromICRF.Inverse().Compose(toICRF)
	o.Frame = from
	return o, nil
}

// icrfTo returns the orientation of the frame with respect to ICRF.
func icrfTo(f Frame, epoch Epoch) (Orientation, error) {
	o := identityOrientation(epoch, ICRF)
	switch f {
	case ICRF, TEME:
	case EclipticJ2000:
		o.Rotation = axisAngle(r3.Vec{X: 1}, -ObliquityJ2000)
	case IAUEarth:
		o.Rotation = axisAngle(r3.Vec{Z: 1}, -GreenwichMeanSiderealAngle(epoch))
		o.AngularVelocity = r3.Vec{Z: EarthRotationRate}
	default:
		return Orientation{}, fmt.Errorf("%w: %s", ErrUnknownFrame, f)
	}
	return o, nil
}

// GreenwichMeanSiderealAngle returns the Greenwich mean sidereal time in radians.
func GreenwichMeanSiderealAngle(epoch Epoch) float64 {
	jdUT := epoch.Add(-TDBMinusUTC).JDE()
	// sidereal.Mean returns seconds of sidereal time.
	return wrap2π(float64(sidereal.Mean(jdUT)) * twoπ / SecondsPerDay)
}
