package traj

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// circularPosition is where a circular equatorial orbit starting on X is after t seconds.
func circularPosition(R float64, body *CelestialBody, t float64) r3.Vec {
	s, c := math.Sincos(math.Sqrt(body.GM/(R*R*R)) * t)
	return r3.Vec{X: R * c, Y: R * s}
}

func twoBodyOptions(stepper string) PropagatorOptions {
	opts := DefaultPropagatorOptions()
	opts.Integrator = stepper
	opts.Forces = []Force{NewGravity(pointMassEarth)}
	return opts
}

func TestPropagatorTwoBody(t *testing.T) {
	for _, tt := range []struct {
		stepper string
		end     Epoch
		states  int
		maxErr  float64
	}{
		{"rk4", 3000, 301, 1},
		{"verlet", 5580, 559, 2.7e3},
	} {
		sc, _ := NewSpacecraft("leo", 500, 0, circularState(6.8e6, pointMassEarth, 0))
		prop, err := NewPropagator(sc, Window{Start: 0, End: tt.end}, twoBodyOptions(tt.stepper))
		if err != nil {
			t.Fatal(err)
		}
		if prop.Steps() != tt.states {
			t.Fatalf("%s: %d steps", tt.stepper, prop.Steps())
		}
		states, err := prop.Propagate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(states) != tt.states {
			t.Fatalf("%s: %d states", tt.stepper, len(states))
		}
		for i, sv := range states {
			if sv.Epoch() != Epoch(10*i) || sv.Observer() != pointMassEarth || sv.Frame() != ICRF {
				t.Fatalf("%s: state #%d is %s", tt.stepper, i, sv)
			}
		}
		last := states[len(states)-1]
		exp := circularPosition(6.8e6, pointMassEarth, float64(tt.end))
		if δ := r3.Norm(r3.Sub(last.Position(), exp)); δ > tt.maxErr {
			t.Fatalf("%s: %f m away from the analytic solution", tt.stepper, δ)
		}
		// The spacecraft is the default sink.
		if len(sc.States) != len(states) || sc.States[0] != states[0] {
			t.Fatalf("%s: spacecraft stored %d states", tt.stepper, len(sc.States))
		}
	}
}

type recordingSink struct {
	states []*StateVector
}

func (r *recordingSink) AddStateVectorsRelativeToFrame(states []*StateVector) error {
	r.states = states
	return nil
}

func TestPropagatorSink(t *testing.T) {
	sc, _ := NewSpacecraft("sink", 500, 0, circularState(6.8e6, pointMassEarth, 0))
	opts := twoBodyOptions("rk4")
	sink := &recordingSink{}
	opts.Sink = sink
	prop, err := NewPropagator(sc, Window{Start: 0, End: 95}, opts)
	if err != nil {
		t.Fatal(err)
	}
	states, err := prop.Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// 95 s at 10 s stops at 90 s.
	if len(states) != 10 || len(sink.states) != 10 || len(sc.States) != 0 {
		t.Fatalf("%d states, %d in the sink, %d in the spacecraft", len(states), len(sink.states), len(sc.States))
	}
}

func TestPropagatorUnexecutedManeuver(t *testing.T) {
	window := Window{Start: 0, End: 600}
	plain, _ := NewSpacecraft("plain", 500, 100, circularState(6.8e6, pointMassEarth, 0))
	want, err := mustPropagator(t, plain, window).Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	planned, _ := NewSpacecraft("planned", 500, 100, circularState(6.8e6, pointMassEarth, 0))
	m, _ := NewImpulsiveManeuver(planned, 1e6, r3.Vec{X: 10}, chemical(t))
	planned.Maneuvers = []Maneuver{m}
	got, err := mustPropagator(t, planned, window).Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("%d states instead of %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Position() != want[i].Position() || got[i].Velocity() != want[i].Velocity() {
			t.Fatalf("state #%d differs", i)
		}
	}
	if m.Done() || planned.FuelMass != 100 || len(planned.Orientations) != 0 {
		t.Fatal("a maneuver after the window was executed")
	}
}

func mustPropagator(t *testing.T, sc *Spacecraft, window Window) *Propagator {
	t.Helper()
	prop, err := NewPropagator(sc, window, twoBodyOptions("rk4"))
	if err != nil {
		t.Fatal(err)
	}
	return prop
}

func TestPropagatorHohmann(t *testing.T) {
	initial := circularState(6.8e6, pointMassEarth, 0)
	sc, _ := NewSpacecraft("hohmann", 500, 500, initial)
	dep, arr, err := NewHohmannTransfer(sc, initial, 7.8e6, chemical(t))
	if err != nil {
		t.Fatal(err)
	}
	sc.Maneuvers = []Maneuver{dep, arr}
	states, err := mustPropagator(t, sc, Window{Start: 0, End: 6000}).Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !dep.Done() || !arr.Done() || len(sc.Orientations) != 2 {
		t.Fatal("both burns must be executed")
	}
	// The arrival burn is applied on the first step at or after the apoapsis.
	if sc.Orientations[0].Epoch != 0 || sc.Orientations[1].Epoch != 3110 {
		t.Fatalf("burns at %s and %s", sc.Orientations[0].Epoch, sc.Orientations[1].Epoch)
	}
	if !scalar.EqualWithinAbs(sc.FuelMass, 341.695, 0.01) {
		t.Fatalf("fuel left %f kg", sc.FuelMass)
	}
	last := states[len(states)-1]
	if !scalar.EqualWithinAbs(last.SemiMajorAxis(), 7.8e6, 100) || last.Eccentricity() > 1e-3 {
		t.Fatalf("final orbit a=%f e=%f", last.SemiMajorAxis(), last.Eccentricity())
	}
	// The transfer orbit reaches the target radius.
	mid := states[310]
	if !scalar.EqualWithinAbs(mid.RNorm(), 7.8e6, 1e3) {
		t.Fatalf("apoapsis at %f m", mid.RNorm())
	}
}

func TestPropagatorInsufficientFuel(t *testing.T) {
	sc, _ := NewSpacecraft("dry", 500, 1, circularState(6.8e6, pointMassEarth, 0))
	m, _ := NewImpulsiveManeuver(sc, 100, r3.Vec{X: 100}, chemical(t))
	sc.Maneuvers = []Maneuver{m}
	states, err := mustPropagator(t, sc, Window{Start: 0, End: 300}).Propagate(context.Background())
	if !errors.Is(err, ErrInsufficientFuel) {
		t.Fatalf("expected ErrInsufficientFuel, got %v", err)
	}
	var perr *PropagationError
	if !errors.As(err, &perr) || perr.Step != 10 || perr.Epoch != 100 {
		t.Fatalf("unexpected error %v", err)
	}
	if len(states) != 11 || states[10].Epoch() != 100 {
		t.Fatalf("%d states returned", len(states))
	}
	if sc.FuelMass != 1 || len(sc.States) != 0 {
		t.Fatal("failed propagation changed the spacecraft")
	}
}

func TestPropagatorRepeatable(t *testing.T) {
	sc, _ := NewSpacecraft("twice", 500, 100, circularState(6.8e6, pointMassEarth, 0))
	m, _ := NewImpulsiveManeuver(sc, 120, r3.Vec{X: 10}, chemical(t))
	sc.Maneuvers = []Maneuver{m}
	prop := mustPropagator(t, sc, Window{Start: 0, End: 600})
	first, err := prop.Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	fuel := sc.FuelMass
	if !m.Done() || fuel >= 100 {
		t.Fatal("the maneuver was not executed")
	}
	second, err := prop.Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != len(first) {
		t.Fatalf("%d states instead of %d", len(second), len(first))
	}
	for i := range first {
		if first[i].Position() != second[i].Position() || first[i].Velocity() != second[i].Velocity() {
			t.Fatalf("state #%d differs between both runs", i)
		}
	}
	if sc.FuelMass != fuel {
		t.Fatalf("fuel %f kg after the second run, %f kg after the first", sc.FuelMass, fuel)
	}
	if len(sc.States) != len(first) || len(sc.Orientations) != 1 {
		t.Fatalf("%d stored states and %d orientations", len(sc.States), len(sc.Orientations))
	}
}

// speedLimit is a null force which fails above a speed.
type speedLimit float64

func (l speedLimit) Name() string { return "speed limit" }

func (l speedLimit) Acceleration(env *Environment, sv *StateVector) (r3.Vec, error) {
	if sv.VNorm() > float64(l) {
		return r3.Vec{}, errors.New("too fast")
	}
	return r3.Vec{}, nil
}

func TestPropagatorManeuverRollback(t *testing.T) {
	sc, _ := NewSpacecraft("rollback", 500, 100, circularState(6.8e6, pointMassEarth, 0))
	m, _ := NewImpulsiveManeuver(sc, 100, r3.Vec{X: 100}, chemical(t))
	sc.Maneuvers = []Maneuver{m}
	opts := twoBodyOptions("verlet")
	opts.Forces = append(opts.Forces, speedLimit(7700))
	prop, err := NewPropagator(sc, Window{Start: 0, End: 300}, opts)
	if err != nil {
		t.Fatal(err)
	}
	states, err := prop.Propagate(context.Background())
	var perr *PropagationError
	if !errors.As(err, &perr) || perr.Step != 10 {
		t.Fatalf("unexpected error %v", err)
	}
	if len(states) != 11 || states[10].VNorm() > 7700 {
		t.Fatalf("%d states, last at %f m/s", len(states), states[len(states)-1].VNorm())
	}
	if m.Done() || sc.FuelMass != 100 || len(sc.Orientations) != 0 || sc.StandbyManeuver() != Maneuver(m) {
		t.Fatal("the failed maneuver changed the spacecraft")
	}
}

func TestPropagatorCancelled(t *testing.T) {
	sc, _ := NewSpacecraft("cancel", 500, 0, circularState(6.8e6, pointMassEarth, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	states, err := mustPropagator(t, sc, Window{Start: 0, End: 300}).Propagate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var perr *PropagationError
	if !errors.As(err, &perr) || perr.Step != 0 {
		t.Fatalf("unexpected error %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("%d states returned", len(states))
	}
}

func TestPropagatorValidation(t *testing.T) {
	fixed, _ := NewStateVector(r3.Vec{X: 7e6}, r3.Vec{Y: 7e3}, 0, Earth, IAUEarth)
	sc, _ := NewSpacecraft("fixed", 500, 0, fixed)
	if _, err := NewPropagator(sc, Window{Start: 0, End: 100}, DefaultPropagatorOptions()); !errors.Is(err, ErrNonInertialFrame) {
		t.Fatalf("expected ErrNonInertialFrame, got %v", err)
	}
	sc, _ = NewSpacecraft("leo", 500, 0, circularState(6.8e6, pointMassEarth, 0))
	for name, tt := range map[string]struct {
		window Window
		step   float64
	}{
		"zero step":     {Window{Start: 0, End: 100}, 0},
		"infinite step": {Window{Start: 0, End: 100}, math.Inf(1)},
		"empty window":  {Window{Start: 100, End: 100}, 10},
		"reversed":      {Window{Start: 100, End: 0}, 10},
	} {
		opts := twoBodyOptions("rk4")
		opts.Step = tt.step
		if _, err := NewPropagator(sc, tt.window, opts); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
	if _, err := NewPropagator(nil, Window{Start: 0, End: 100}, DefaultPropagatorOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	opts := twoBodyOptions("rk4")
	opts.Reference = Barycentric
	if _, err := NewPropagator(sc, Window{Start: 0, End: 100}, opts); !errors.Is(err, ErrNoEphemeris) {
		t.Fatalf("expected ErrNoEphemeris, got %v", err)
	}
	opts = twoBodyOptions("rk4")
	opts.Forces = append(opts.Forces, &ThirdBodyPerturbation{Perturber: Sun, Central: pointMassEarth})
	if _, err := NewPropagator(sc, Window{Start: 0, End: 100}, opts); !errors.Is(err, ErrNoEphemeris) {
		t.Fatalf("expected ErrNoEphemeris, got %v", err)
	}
	if _, err := NewPropagator(sc, Window{Start: 0, End: 100}, twoBodyOptions("euler")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPropagatorReferences(t *testing.T) {
	eph := NewKeplerEphemeris()
	earthOrbit, err := NewKeplerianElements(AU, 0.0167, 0, 0, 0, 0, 0, Sun, ICRF)
	if err != nil {
		t.Fatal(err)
	}
	if err := eph.Add(Earth, earthOrbit); err != nil {
		t.Fatal(err)
	}
	window := Window{Start: 0, End: 3600}

	bary := DefaultPropagatorOptions()
	bary.Reference = Barycentric
	bary.Integrator = "rk4"
	bary.Service = eph
	bary.Forces = []Force{NewGravity(Sun), NewGravity(pointMassEarth)}
	scB, _ := NewSpacecraft("bary", 500, 0, circularState(6.8e6, pointMassEarth, 0))
	propB, err := NewPropagator(scB, window, bary)
	if err != nil {
		t.Fatal(err)
	}
	statesB, err := propB.Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	central := DefaultPropagatorOptions()
	central.Integrator = "rk4"
	central.Service = eph
	central.Forces = []Force{NewGravity(pointMassEarth), &ThirdBodyPerturbation{Perturber: Sun, Central: pointMassEarth}}
	scC, _ := NewSpacecraft("central", 500, 0, circularState(6.8e6, pointMassEarth, 0))
	propC, err := NewPropagator(scC, window, central)
	if err != nil {
		t.Fatal(err)
	}
	statesC, err := propC.Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(statesB) != len(statesC) {
		t.Fatalf("%d barycentric states, %d central ones", len(statesB), len(statesC))
	}
	// Both are returned relative to the Earth.
	first := statesB[0]
	if first.Observer() != pointMassEarth || !vectorsEqual(first.Position(), r3.Vec{X: 6.8e6}, 1e-3) {
		t.Fatalf("first barycentric state %s", first)
	}
	lastB, lastC := statesB[len(statesB)-1], statesC[len(statesC)-1]
	if δ := r3.Norm(r3.Sub(lastB.Position(), lastC.Position())); δ > 10 {
		t.Fatalf("references differ by %f m", δ)
	}
	if δ := r3.Norm(r3.Sub(lastB.Velocity(), lastC.Velocity())); δ > 1e-2 {
		t.Fatalf("references differ by %f m/s", δ)
	}
}

func TestPropagatorDrag(t *testing.T) {
	initial := circularState(Earth.Radius+300e3, Earth, 0)
	sc, _ := NewSpacecraft("draggy", 100, 0, initial)
	sc.SectionalArea = 10
	opts := DefaultPropagatorOptions()
	opts.Integrator = "rk4"
	opts.Forces = []Force{
		&GravitationalAcceleration{Body: Earth, PointMassOnly: true},
		&AtmosphericDrag{Spacecraft: sc, Body: Earth, Density: ExponentialAtmosphere{}},
	}
	prop, err := NewPropagator(sc, Window{Start: 0, End: 5400}, opts)
	if err != nil {
		t.Fatal(err)
	}
	states, err := prop.Propagate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Drag only takes energy away.
	if e0, e1 := states[0].SpecificEnergy(), states[len(states)-1].SpecificEnergy(); !(e1 < e0) {
		t.Fatalf("energy went from %f to %f", e0, e1)
	}
}
