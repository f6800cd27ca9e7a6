package traj

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ChristopherRabotin/traj/integrator"
	"github.com/ChristopherRabotin/traj/internal/metrics"
)

// StepIntegrator advances the states of a Trajectory under a force.
type StepIntegrator struct {
	force   Force
	env     *Environment
	stepper integrator.Stepper
	scratch StateVector
}

// NewStepIntegrator returns an integrator using the named stepper (see integrator.New).
func NewStepIntegrator(force Force, env *Environment, stepper string, step float64) (*StepIntegrator, error) {
	si := &StepIntegrator{
		force:   force,
		env:     env,
		scratch: StateVector{observer: env.Observer, frame: env.Frame},
	}
	s, err := integrator.New(stepper, si, step)
	if err != nil {
		return nil, err
	}
	si.stepper = s
	return si, nil
}

// Acceleration implements the integrator.Dynamics interface.
func (si *StepIntegrator) Acceleration(t float64, r, v r3.Vec) (r3.Vec, error) {
	si.scratch.reset(Epoch(t), r, v)
	return si.force.Acceleration(si.env, &si.scratch)
}

// Reset must be called with the first state, and after any change of the state which did not come
// from the integrator.
func (si *StepIntegrator) Reset(sv *StateVector) error {
	return si.stepper.Reset(float64(sv.epoch), sv.position, sv.velocity)
}

// Integrate computes slot idx+1 from slot idx.
func (si *StepIntegrator) Integrate(traj *Trajectory, idx int) error {
	sv := traj.At(idx)
	r, v, err := si.stepper.Step(float64(sv.epoch), sv.position, sv.velocity)
	if err != nil {
		return err
	}
	metrics.IntegrationSteps.Inc()
	return traj.advance(idx+1, r, v)
}
