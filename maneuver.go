package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ImpulsiveManeuver is a velocity change expressed in the VNC frame of the spacecraft (velocity,
// orbit normal, co-normal), applied at the first state at or after Epoch.
type ImpulsiveManeuver struct {
	Spacecraft *Spacecraft
	Epoch      Epoch
	DeltaV     r3.Vec // m/s in VNC
	Engine     Engine
	done       bool
	fuel       float64
}

// NewImpulsiveManeuver returns a maneuver burning the fuel of sc.
func NewImpulsiveManeuver(sc *Spacecraft, epoch Epoch, Δv r3.Vec, engine Engine) (*ImpulsiveManeuver, error) {
	if sc == nil {
		return nil, fmt.Errorf("%w: maneuver without a spacecraft", ErrInvalidConfig)
	}
	if !finite(Δv) {
		return nil, fmt.Errorf("%w: non finite Δv", ErrInvalidConfig)
	}
	if !(engine.Isp > 0) {
		return nil, fmt.Errorf("%w: engine %q has no isp", ErrInvalidConfig, engine.Name)
	}
	return &ImpulsiveManeuver{Spacecraft: sc, Epoch: epoch, DeltaV: Δv, Engine: engine}, nil
}

// Done returns whether the maneuver was executed.
func (m *ImpulsiveManeuver) Done() bool { return m.done }

// BurnDuration returns how long the engine fired for this maneuver, zero until it is executed.
func (m *ImpulsiveManeuver) BurnDuration() float64 {
	return m.Engine.BurnDuration(m.fuel)
}

func (m *ImpulsiveManeuver) rearm() {
	m.done = false
	m.fuel = 0
}

// CanExecute implements the Maneuver interface.
func (m *ImpulsiveManeuver) CanExecute(sv *StateVector) bool {
	return !m.done && !sv.epoch.Before(m.Epoch)
}

// TryExecute implements the Maneuver interface. It fails with ErrInsufficientFuel, without
// changing the spacecraft, when the fuel left does not allow for the burn.
func (m *ImpulsiveManeuver) TryExecute(sv *StateVector) (*StateVector, Orientation, error) {
	Δv := m.Inertial(sv)
	fuel := m.Engine.FuelFor(r3.Norm(Δv), m.Spacecraft.Mass())
	if fuel > m.Spacecraft.FuelMass {
		return nil, Orientation{}, fmt.Errorf("%w: need %.3f kg, have %.3f kg", ErrInsufficientFuel, fuel, m.Spacecraft.FuelMass)
	}
	next, err := NewStateVector(sv.position, r3.Add(sv.velocity, Δv), sv.epoch, sv.observer, sv.frame)
	if err != nil {
		return nil, Orientation{}, err
	}
	m.Spacecraft.FuelMass -= fuel
	m.done = true
	m.fuel = fuel
	o := identityOrientation(sv.epoch, sv.frame)
	o.Rotation = alignX(Δv)
	return next, o, nil
}

// Inertial returns the Δv in the frame of the state.
func (m *ImpulsiveManeuver) Inertial(sv *StateVector) r3.Vec {
	V := unit(sv.velocity)
	N := unit(r3.Cross(sv.position, sv.velocity))
	C := r3.Cross(V, N)
	return r3.Add(r3.Add(r3.Scale(m.DeltaV.X, V), r3.Scale(m.DeltaV.Y, N)), r3.Scale(m.DeltaV.Z, C))
}

func (m *ImpulsiveManeuver) String() string {
	return fmt.Sprintf("Δv=%+v m/s (VNC) @%s with %s", m.DeltaV, m.Epoch, m.Engine)
}

// alignX returns the smallest rotation bringing the X axis onto the direction of d.
func alignX(d r3.Vec) quat.Number {
	x := r3.Vec{X: 1}
	u := unit(d)
	if r3.Norm(u) == 0 {
		return quat.Number{Real: 1}
	}
	axis := r3.Cross(x, u)
	θ := math.Acos(clampCos(r3.Dot(x, u)))
	if r3.Norm(axis) < angleε {
		if θ < math.Pi/2 {
			return quat.Number{Real: 1}
		}
		axis = r3.Vec{Z: 1}
	}
	return axisAngle(axis, θ)
}
