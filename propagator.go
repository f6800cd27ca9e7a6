package traj

import (
	"context"
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ChristopherRabotin/traj/integrator"
	"github.com/ChristopherRabotin/traj/internal/metrics"
)

const (
	// DefaultStepSize is the default integration step in seconds.
	DefaultStepSize = 10.0
	// progressReports is the number of progress log lines of a propagation.
	progressReports = 10
)

// Reference is the body the equations of motion are integrated relative to.
type Reference uint8

const (
	// CentralBody integrates relative to PropagatorOptions.Center.
	CentralBody Reference = iota
	// Barycentric integrates relative to the solar system barycenter.
	Barycentric
)

func (r Reference) String() string {
	if r == Barycentric {
		return "barycentric"
	}
	return "central body"
}

// Window is the time span of a propagation.
type Window struct {
	Start, End Epoch
}

// Duration returns the length of the window in seconds.
func (w Window) Duration() float64 { return w.End.Sub(w.Start) }

// PropagatorOptions configures a Propagator.
type PropagatorOptions struct {
	Reference Reference
	// Center defaults to the observer of the initial state.
	Center *CelestialBody
	// Step is the fixed integration step in seconds.
	Step float64
	// Integrator is the name of the stepper, see integrator.New.
	Integrator string
	Forces     []Force
	// Service may only be nil when nothing needs an ephemeris.
	Service EphemerisService
	Cache   EphemerisCacheOptions
	// Sink defaults to the spacecraft.
	Sink   ResultSink
	Logger kitlog.Logger
}

// DefaultPropagatorOptions returns central body Velocity-Verlet options without any force.
func DefaultPropagatorOptions() PropagatorOptions {
	return PropagatorOptions{
		Reference:  CentralBody,
		Step:       DefaultStepSize,
		Integrator: "verlet",
		Cache:      DefaultEphemerisCacheOptions(),
	}
}

// Propagator numerically propagates a spacecraft over a window, executing its maneuvers.
// Each call to Propagate owns its cache, integrator and states, so different propagators may run
// concurrently provided they do not share a spacecraft. Every call starts from the spacecraft as it
// was when the propagator was created: fuel, pending maneuvers and stored states are restored.
type Propagator struct {
	sc       *Spacecraft
	window   Window
	opts     PropagatorOptions
	forces   ForceSum
	observer *CelestialBody
	frame    Frame
	working  *CelestialBody
	logger   kitlog.Logger
	initial  checkpoint
}

// NewPropagator validates the configuration before any computation.
func NewPropagator(sc *Spacecraft, window Window, opts PropagatorOptions) (*Propagator, error) {
	if sc == nil || sc.Initial == nil {
		return nil, fmt.Errorf("%w: a spacecraft with an initial state is required", ErrInvalidConfig)
	}
	frame := sc.Initial.Frame()
	if !frame.Inertial {
		return nil, fmt.Errorf("%w: %s", ErrNonInertialFrame, frame)
	}
	if !(opts.Step > 0) || math.IsInf(opts.Step, 0) {
		return nil, fmt.Errorf("%w: step of %g s", ErrInvalidConfig, opts.Step)
	}
	if !integrator.Known(opts.Integrator) {
		return nil, fmt.Errorf("%w: unknown integrator %q", ErrInvalidConfig, opts.Integrator)
	}
	if !window.End.After(window.Start) {
		return nil, fmt.Errorf("%w: window ends at %s, before its start at %s", ErrInvalidConfig, window.End, window.Start)
	}
	p := &Propagator{
		sc:       sc,
		window:   window,
		opts:     opts,
		forces:   ForceSum(opts.Forces),
		observer: sc.Initial.Observer(),
		frame:    frame,
		logger:   opts.Logger,
		initial:  sc.snapshot(),
	}
	switch opts.Reference {
	case CentralBody:
		p.working = opts.Center
		if p.working == nil {
			p.working = p.observer
		}
	case Barycentric:
		p.working = SSB
	default:
		return nil, fmt.Errorf("%w: reference %d", ErrInvalidConfig, opts.Reference)
	}
	if p.logger == nil {
		p.logger = sc.Logger()
	}
	p.logger = kitlog.With(p.logger, "subsys", "prop")
	if !p.working.Equals(p.observer) && opts.Service == nil {
		return nil, fmt.Errorf("%w: %s is not %s", ErrNoEphemeris, p.working, p.observer)
	}
	if err := p.forces.validate(p.environment(nil)); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Propagator) environment(cache *EphemerisCache) *Environment {
	return &Environment{Service: p.opts.Service, Cache: cache, Observer: p.working, Frame: p.frame}
}

// Steps returns the number of states a successful propagation returns.
func (p *Propagator) Steps() int {
	return int(math.Floor(p.window.Duration()/p.opts.Step+1e-9)) + 1
}

// Propagate runs the propagation and hands the states, relative to the observer and in the frame of
// the initial state, to the result sink. On failure, the states finalized before the failing step
// are returned with a *PropagationError. Cancelling the context stops the propagation between steps.
func (p *Propagator) Propagate(ctx context.Context) (states []*StateVector, err error) {
	began := time.Now()
	defer func() {
		metrics.PropagationsTotal.WithLabelValues(metrics.Result(err)).Inc()
		metrics.PropagationDuration.Observe(time.Since(began).Seconds())
	}()

	// Initializing
	p.sc.restore(p.initial)
	env, traj, si, err := p.initialize(ctx)
	if err != nil {
		return nil, &PropagationError{Step: 0, Epoch: p.window.Start, Err: err}
	}
	level.Info(p.logger).Log("status", "started", "reference", p.opts.Reference, "center", p.working, "steps", traj.Cap(), "step(s)", p.opts.Step)

	// Stepping
	n := traj.Cap()
	report := n / progressReports
	collided := false
	for i := 0; i < n-1; i++ {
		if err := ctx.Err(); err != nil {
			return p.abort(env, traj, i, err)
		}
		if err := p.maneuver(env, traj, si, i); err != nil {
			return p.abort(env, traj, i, err)
		}
		if err := si.Integrate(traj, i); err != nil {
			return p.abort(env, traj, i, err)
		}
		sv := traj.At(i + 1)
		// Collisions are only reported: the dynamics do not model surfaces.
		if !collided && sv.RNorm() < p.working.Radius {
			collided = true
			level.Warn(p.logger).Log("collided", p.working, "epoch", sv.epoch, "r", sv.RNorm(), "radius", p.working.Radius)
		} else if collided && sv.RNorm() > p.working.Radius*1.1 {
			collided = false
			level.Warn(p.logger).Log("revived", p.working, "epoch", sv.epoch)
		}
		if report > 0 && (i+1)%report == 0 {
			level.Debug(p.logger).Log("step", i+1, "of", n-1, "epoch", sv.epoch, "fuel(kg)", p.sc.FuelMass)
		}
	}

	// Finalizing
	states, err = p.finalize(env, traj)
	if err != nil {
		return nil, &PropagationError{Step: n - 1, Epoch: p.window.End, Err: err}
	}
	sink := p.opts.Sink
	if sink == nil {
		sink = p.sc
	}
	if err := sink.AddStateVectorsRelativeToFrame(states); err != nil {
		return states, &PropagationError{Step: n - 1, Epoch: states[len(states)-1].epoch, Err: err}
	}
	level.Info(p.logger).Log("status", "finished", "duration", time.Since(began), "fuel(kg)", p.sc.FuelMass, "final", states[len(states)-1])
	return states, nil
}

// initialize resolves the initial state in the working reference, allocates the states, builds the
// ephemeris cache and computes the first acceleration.
func (p *Propagator) initialize(ctx context.Context) (*Environment, *Trajectory, *StepIntegrator, error) {
	st, err := p.sc.Initial.AtEpoch(p.window.Start)
	if err != nil {
		return nil, nil, nil, err
	}
	sv0, err := st.ToStateVector()
	if err != nil {
		return nil, nil, nil, err
	}
	if sv0.frame != p.frame {
		return nil, nil, nil, fmt.Errorf("%w: initial state moved from %s to %s", ErrInvalidConfig, p.frame, sv0.frame)
	}
	requests := p.forces.CacheRequests()
	if !p.working.Equals(p.observer) {
		requests = append(requests, CacheRequest{Body: p.observer, Aberration: AberrationNone})
	}
	var cache *EphemerisCache
	if len(requests) > 0 && p.opts.Service != nil {
		opts := p.opts.Cache
		if opts.Step == 0 {
			opts = DefaultEphemerisCacheOptions()
		}
		if cache, err = BuildEphemerisCache(ctx, p.opts.Service, requests, p.working, p.frame, p.window.Start, p.window.End, opts); err != nil {
			return nil, nil, nil, err
		}
	}
	env := p.environment(cache)
	if !p.working.Equals(p.observer) {
		ro, vo, err := env.BodyState(p.observer, AberrationNone, sv0.epoch)
		if err != nil {
			return nil, nil, nil, err
		}
		sv0 = &StateVector{position: r3.Add(sv0.position, ro), velocity: r3.Add(sv0.velocity, vo), epoch: sv0.epoch, observer: p.working, frame: p.frame}
	}
	traj := newTrajectory(sv0, p.Steps(), p.opts.Step)
	si, err := NewStepIntegrator(p.forces, env, p.opts.Integrator, p.opts.Step)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := si.Reset(traj.At(0)); err != nil {
		return nil, nil, nil, err
	}
	return env, traj, si, nil
}

// maneuver executes the standby maneuver on slot i if it can be. On failure, slot i, the fuel and
// the maneuver are left as they were before the maneuver.
func (p *Propagator) maneuver(env *Environment, traj *Trajectory, si *StepIntegrator, i int) error {
	m := p.sc.StandbyManeuver()
	if m == nil {
		return nil
	}
	sv := traj.At(i)
	seen, err := p.toObserver(env, sv)
	if err != nil {
		return err
	}
	if !m.CanExecute(seen) {
		return nil
	}
	fuel := p.sc.FuelMass
	after, o, err := m.TryExecute(seen)
	if err != nil {
		return err
	}
	undo := func() {
		p.sc.FuelMass = fuel
		if r, ok := m.(rearmable); ok {
			r.rearm()
		}
	}
	Δr, Δv := r3.Sub(after.position, seen.position), r3.Sub(after.velocity, seen.velocity)
	burnt := sv.clone()
	burnt.set(r3.Add(sv.position, Δr), r3.Add(sv.velocity, Δv))
	if err := si.Reset(burnt); err != nil {
		undo()
		return err
	}
	if err := traj.advance(i, burnt.position, burnt.velocity); err != nil {
		undo()
		return err
	}
	p.sc.maneuverExecuted(m, o)
	metrics.ManeuversExecuted.Inc()
	return nil
}

// toObserver returns the state relative to the observer of the initial state.
func (p *Propagator) toObserver(env *Environment, sv *StateVector) (*StateVector, error) {
	if p.working.Equals(p.observer) {
		return sv.clone(), nil
	}
	ro, vo, err := env.BodyState(p.observer, AberrationNone, sv.epoch)
	if err != nil {
		return nil, err
	}
	return &StateVector{position: r3.Sub(sv.position, ro), velocity: r3.Sub(sv.velocity, vo), epoch: sv.epoch, observer: p.observer, frame: p.frame}, nil
}

func (p *Propagator) finalize(env *Environment, traj *Trajectory) ([]*StateVector, error) {
	states := traj.States()
	for i, sv := range states {
		seen, err := p.toObserver(env, sv)
		if err != nil {
			return states[:i], err
		}
		states[i] = seen
	}
	return states, nil
}

// abort returns the finalized states before step i with the error.
func (p *Propagator) abort(env *Environment, traj *Trajectory, i int, cause error) ([]*StateVector, error) {
	sv := traj.At(i)
	level.Error(p.logger).Log("step", i, "epoch", sv.epoch, "err", cause)
	states, _ := p.finalize(env, traj)
	return states, &PropagationError{Step: i, Epoch: sv.epoch, Err: cause}
}
