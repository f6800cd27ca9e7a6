package traj

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Trajectory is the pre-allocated, contiguous storage of the states of one propagation, one slot
// per step of a fixed grid. Slots are finalized in order.
type Trajectory struct {
	states []StateVector
	filled int
}

// newTrajectory allocates n slots of the grid starting at the first state, which fills slot zero.
func newTrajectory(first *StateVector, n int, step float64) *Trajectory {
	t := &Trajectory{states: make([]StateVector, n)}
	for i := range t.states {
		t.states[i] = StateVector{
			epoch:    first.epoch.Add(float64(i) * step),
			observer: first.observer,
			frame:    first.frame,
		}
	}
	t.states[0].set(first.position, first.velocity)
	t.filled = 1
	return t
}

// Len returns the number of finalized slots.
func (t *Trajectory) Len() int { return t.filled }

// Cap returns the number of slots.
func (t *Trajectory) Cap() int { return len(t.states) }

// At returns the finalized state of the slot.
func (t *Trajectory) At(idx int) *StateVector {
	if idx < 0 || idx >= t.filled {
		return nil
	}
	return &t.states[idx]
}

// advance writes the position and velocity of a slot: either the last finalized one, changed in
// place, or the next one.
func (t *Trajectory) advance(idx int, r, v r3.Vec) error {
	if idx < t.filled-1 || idx > t.filled || idx >= len(t.states) {
		return fmt.Errorf("cannot write slot %d of %d with %d finalized", idx, len(t.states), t.filled)
	}
	if !finite(r) || !finite(v) {
		return invalidOrbit("state", r3.Norm(r), fmt.Sprintf("non finite at slot %d", idx))
	}
	t.states[idx].set(r, v)
	if idx == t.filled {
		t.filled++
	}
	return nil
}

// States returns the finalized states.
func (t *Trajectory) States() []*StateVector {
	states := make([]*StateVector, t.filled)
	for i := range states {
		states[i] = &t.states[i]
	}
	return states
}
