package traj

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrbit is wrapped by every orbit construction failure.
	ErrInvalidOrbit = errors.New("traj: invalid orbit")
	// ErrNotConverged is wrapped by every iterative solver failure.
	ErrNotConverged = errors.New("traj: did not converge")
	// ErrEphemerisOutOfRange is returned when an ephemeris cache is queried outside of its padded grid.
	ErrEphemerisOutOfRange = errors.New("traj: ephemeris query out of cached range")
	// ErrNotCached is returned when an ephemeris cache has no series for a body and aberration pair.
	ErrNotCached = errors.New("traj: ephemeris not cached")
	// ErrNonInertialFrame is returned when a propagation is requested in a rotating frame.
	ErrNonInertialFrame = errors.New("traj: frame is not inertial")
	// ErrUnknownBody is returned by ephemeris services for bodies they cannot locate.
	ErrUnknownBody = errors.New("traj: unknown celestial body")
	// ErrUnknownFrame is returned when no transformation is known between two frames.
	ErrUnknownFrame = errors.New("traj: unknown frame")
	// ErrNoEphemeris is returned when a computation needs an ephemeris service and none was provided.
	ErrNoEphemeris = errors.New("traj: no ephemeris service")
	// ErrInsufficientFuel is returned by maneuvers which need more fuel than the spacecraft carries.
	ErrInsufficientFuel = errors.New("traj: insufficient fuel")
	// ErrMissingDensityContext is returned by density models missing a required input.
	ErrMissingDensityContext = errors.New("traj: missing density context")
	// ErrInvalidTLE is wrapped by every two-line element parsing failure.
	ErrInvalidTLE = errors.New("traj: invalid TLE")
	// ErrInvalidConfig is wrapped by propagator and configuration validation failures.
	ErrInvalidConfig = errors.New("traj: invalid configuration")
)

// InvalidOrbitError names the orbital element which failed validation.
type InvalidOrbitError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidOrbitError) Error() string {
	return fmt.Sprintf("traj: invalid orbit: %s=%g %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidOrbit.
func (e *InvalidOrbitError) Unwrap() error { return ErrInvalidOrbit }

func invalidOrbit(field string, value float64, reason string) error {
	return &InvalidOrbitError{Field: field, Value: value, Reason: reason}
}

// ConvergenceError is returned by capped iterative solvers, with the last iterate.
type ConvergenceError struct {
	Solver     string
	Iterations int
	Last       float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("traj: %s did not converge after %d iterations (last iterate %g)", e.Solver, e.Iterations, e.Last)
}

// Unwrap returns ErrNotConverged.
func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

// OutOfRangeError is returned by the ephemeris cache for queries outside of its grid.
type OutOfRangeError struct {
	Body       string
	Epoch      Epoch
	Start, End Epoch
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("traj: %s queried at %s outside of cached range [%s, %s]", e.Body, e.Epoch, e.Start, e.End)
}

// Unwrap returns ErrEphemerisOutOfRange.
func (e *OutOfRangeError) Unwrap() error { return ErrEphemerisOutOfRange }

// PropagationError aborts a propagation. Step is the index of the state which could not be advanced.
type PropagationError struct {
	Step  int
	Epoch Epoch
	Err   error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("traj: propagation aborted at step %d (%s): %s", e.Step, e.Epoch, e.Err)
}

func (e *PropagationError) Unwrap() error { return e.Err }
