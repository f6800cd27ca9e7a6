package traj

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestTrajectoryAdvance(t *testing.T) {
	first := circularState(7e6, pointMassEarth, 100)
	traj := newTrajectory(first, 4, 10)
	if traj.Len() != 1 || traj.Cap() != 4 {
		t.Fatalf("len=%d cap=%d", traj.Len(), traj.Cap())
	}
	if traj.At(1) != nil || traj.At(-1) != nil {
		t.Fatal("unfinalized slots are not readable")
	}
	if sv := traj.At(0); sv.Position() != first.Position() || sv.Epoch() != 100 {
		t.Fatalf("first slot %s", sv)
	}
	r, v := r3.Vec{X: 1e7}, r3.Vec{Y: 6e3}
	// The last finalized slot may be rewritten, and the next one written.
	if err := traj.advance(0, r, v); err != nil {
		t.Fatal(err)
	}
	if traj.At(0).Position() != r || traj.Len() != 1 {
		t.Fatal("in place update failed")
	}
	if err := traj.advance(1, r, v); err != nil {
		t.Fatal(err)
	}
	if traj.Len() != 2 || traj.At(1).Epoch() != 110 || traj.At(1).Observer() != pointMassEarth {
		t.Fatalf("second slot %s", traj.At(1))
	}
	for _, idx := range []int{0, 3, -1} {
		if err := traj.advance(idx, r, v); err == nil {
			t.Fatalf("slot %d must not be writable", idx)
		}
	}
	if err := traj.advance(2, r3.Vec{X: math.NaN()}, v); !errors.Is(err, ErrInvalidOrbit) {
		t.Fatalf("expected ErrInvalidOrbit, got %v", err)
	}
	if traj.Len() != 2 {
		t.Fatal("a failed write finalized a slot")
	}
	for i := 2; i < 4; i++ {
		if err := traj.advance(i, r, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := traj.advance(4, r, v); err == nil {
		t.Fatal("wrote past the last slot")
	}
	states := traj.States()
	if len(states) != 4 || states[3].Epoch() != 130 {
		t.Fatalf("%d states", len(states))
	}
}
