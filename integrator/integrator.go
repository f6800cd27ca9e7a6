// Package integrator advances second order systems, such as a spacecraft under forces, with
// fixed step schemes.
package integrator

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidStep is returned when the step size is not a positive finite number.
	ErrInvalidStep = errors.New("step size must be positive")
	// ErrNotReset is returned when stepping before the first Reset.
	ErrNotReset = errors.New("stepper used before Reset")
	// ErrUnknownStepper is returned by New for names it does not know.
	ErrUnknownStepper = errors.New("unknown stepper")
)

// Dynamics returns the acceleration at time t of a body at position r with velocity v.
type Dynamics interface {
	Acceleration(t float64, r, v r3.Vec) (r3.Vec, error)
}

// DynamicsFunc adapts a function to Dynamics.
type DynamicsFunc func(t float64, r, v r3.Vec) (r3.Vec, error)

// Acceleration implements the Dynamics interface.
func (f DynamicsFunc) Acceleration(t float64, r, v r3.Vec) (r3.Vec, error) { return f(t, r, v) }

// Stepper advances a state by one fixed step.
// Reset must be called with the initial state, and again whenever the state is changed outside
// of the stepper (e.g. by an impulsive maneuver).
type Stepper interface {
	Reset(t float64, r, v r3.Vec) error
	Step(t float64, r, v r3.Vec) (r1, v1 r3.Vec, err error)
	StepSize() float64
}

// New returns the stepper of that name: "verlet" (the default when empty) or "rk4".
func New(name string, dyn Dynamics, step float64) (Stepper, error) {
	switch strings.ToLower(name) {
	case "", "verlet", "velocity-verlet":
		return NewVelocityVerlet(dyn, step)
	case "rk4":
		return NewRK4(dyn, step)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStepper, name)
}

// Known returns whether New knows the name.
func Known(name string) bool {
	switch strings.ToLower(name) {
	case "", "verlet", "velocity-verlet", "rk4":
		return true
	}
	return false
}

func checkStep(step float64) error {
	if !(step > 0) || step*0 != 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidStep, step)
	}
	return nil
}
