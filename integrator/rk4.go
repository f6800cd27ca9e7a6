package integrator

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// RK4 is the classical fourth order Runge-Kutta scheme on the first order system (r, v).
type RK4 struct {
	dyn Dynamics
	h   float64
}

// NewRK4 returns an RK4 stepper of step h seconds.
func NewRK4(dyn Dynamics, h float64) (*RK4, error) {
	if dyn == nil {
		return nil, errors.New("dynamics may not be nil")
	}
	if err := checkStep(h); err != nil {
		return nil, err
	}
	return &RK4{dyn: dyn, h: h}, nil
}

// StepSize implements the Stepper interface.
func (rk *RK4) StepSize() float64 { return rk.h }

// Reset implements the Stepper interface. RK4 carries no state between steps, so this only checks
// that the dynamics can be evaluated.
func (rk *RK4) Reset(t float64, r, v r3.Vec) error {
	_, err := rk.dyn.Acceleration(t, r, v)
	return err
}

// Step implements the Stepper interface.
func (rk *RK4) Step(t float64, r, v r3.Vec) (r1, v1 r3.Vec, err error) {
	const (
		half     = 1 / 2.0
		oneSixth = 1 / 6.0
		oneThird = 1 / 3.0
	)
	h := rk.h
	halfStep := h * half

	// k_r are velocities and k_v accelerations.
	k1r := v
	k1v, err := rk.dyn.Acceleration(t, r, v)
	if err != nil {
		return r, v, err
	}
	k2r := r3.Add(v, r3.Scale(halfStep, k1v))
	k2v, err := rk.dyn.Acceleration(t+halfStep, r3.Add(r, r3.Scale(halfStep, k1r)), k2r)
	if err != nil {
		return r, v, err
	}
	k3r := r3.Add(v, r3.Scale(halfStep, k2v))
	k3v, err := rk.dyn.Acceleration(t+halfStep, r3.Add(r, r3.Scale(halfStep, k2r)), k3r)
	if err != nil {
		return r, v, err
	}
	k4r := r3.Add(v, r3.Scale(h, k3v))
	k4v, err := rk.dyn.Acceleration(t+h, r3.Add(r, r3.Scale(h, k3r)), k4r)
	if err != nil {
		return r, v, err
	}
	r1 = r3.Add(r, r3.Scale(h, r3.Add(r3.Scale(oneSixth, r3.Add(k1r, k4r)), r3.Scale(oneThird, r3.Add(k2r, k3r)))))
	v1 = r3.Add(v, r3.Scale(h, r3.Add(r3.Scale(oneSixth, r3.Add(k1v, k4v)), r3.Scale(oneThird, r3.Add(k2v, k3v)))))
	return r1, v1, nil
}
