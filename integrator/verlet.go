package integrator

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// VelocityVerlet is the kick-drift-kick symplectic scheme. The acceleration at the end of a step
// is carried over to the start of the next one, so each step costs one evaluation.
type VelocityVerlet struct {
	dyn   Dynamics
	h     float64
	a     r3.Vec
	ready bool
}

// NewVelocityVerlet returns a Velocity-Verlet stepper of step h seconds.
func NewVelocityVerlet(dyn Dynamics, h float64) (*VelocityVerlet, error) {
	if dyn == nil {
		return nil, errors.New("dynamics may not be nil")
	}
	if err := checkStep(h); err != nil {
		return nil, err
	}
	return &VelocityVerlet{dyn: dyn, h: h}, nil
}

// StepSize implements the Stepper interface.
func (vv *VelocityVerlet) StepSize() float64 { return vv.h }

// Reset implements the Stepper interface by computing a_0.
func (vv *VelocityVerlet) Reset(t float64, r, v r3.Vec) error {
	a, err := vv.dyn.Acceleration(t, r, v)
	if err != nil {
		vv.ready = false
		return err
	}
	vv.a, vv.ready = a, true
	return nil
}

// Step implements the Stepper interface. The stepper is left untouched when the dynamics fail.
func (vv *VelocityVerlet) Step(t float64, r, v r3.Vec) (r1, v1 r3.Vec, err error) {
	if !vv.ready {
		return r, v, ErrNotReset
	}
	half := vv.h / 2
	vHalf := r3.Add(v, r3.Scale(half, vv.a))
	r1 = r3.Add(r, r3.Scale(vv.h, vHalf))
	a1, err := vv.dyn.Acceleration(t+vv.h, r1, vHalf)
	if err != nil {
		return r, v, err
	}
	v1 = r3.Add(vHalf, r3.Scale(half, a1))
	vv.a = a1
	return r1, v1, nil
}
