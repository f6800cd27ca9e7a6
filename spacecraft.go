package traj

import (
	"fmt"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Maneuver is an instantaneous change of the spacecraft state.
// CanExecute is evaluated against the state before each integration step, and TryExecute is
// called once it returns true. A maneuver which never triggers is simply never executed.
type Maneuver interface {
	CanExecute(sv *StateVector) bool
	TryExecute(sv *StateVector) (*StateVector, Orientation, error)
}

// rearmable maneuvers keep track of their execution and can be made pending again.
type rearmable interface {
	rearm()
}

// ResultSink receives the states of a finished propagation.
type ResultSink interface {
	AddStateVectorsRelativeToFrame(states []*StateVector) error
}

// Spacecraft defines a spacecraft, its maneuver plan and what happened to it.
type Spacecraft struct {
	Name            string
	DryMass         float64 // kg
	FuelMass        float64 // kg
	SectionalArea   float64 // m^2
	DragCoefficient float64
	Initial         OrbitalState
	Maneuvers       []Maneuver
	// Orientations records the attitude resulting from each executed maneuver.
	Orientations []Orientation
	// States holds the stored trajectory.
	States []*StateVector
	next   int
	logger kitlog.Logger
}

// NewSpacecraft returns a spacecraft. The maneuvers are executed in order.
func NewSpacecraft(name string, dryMass, fuelMass float64, initial OrbitalState, maneuvers ...Maneuver) (*Spacecraft, error) {
	if dryMass <= 0 {
		return nil, fmt.Errorf("%w: dry mass of %s must be positive", ErrInvalidConfig, name)
	}
	if fuelMass < 0 {
		return nil, fmt.Errorf("%w: negative fuel mass for %s", ErrInvalidConfig, name)
	}
	return &Spacecraft{
		Name:            name,
		DryMass:         dryMass,
		FuelMass:        fuelMass,
		DragCoefficient: 2.2,
		Initial:         initial,
		Maneuvers:       maneuvers,
		logger:          kitlog.NewNopLogger(),
	}, nil
}

// SetLogger sets the logger used during the propagations of this spacecraft.
func (sc *Spacecraft) SetLogger(logger kitlog.Logger) {
	sc.logger = kitlog.With(logger, "spacecraft", sc.Name)
}

// Logger returns the logger of the spacecraft, a no-op one if none was set.
func (sc *Spacecraft) Logger() kitlog.Logger {
	if sc.logger == nil {
		return kitlog.NewNopLogger()
	}
	return sc.logger
}

// Mass returns the current total mass in kg.
func (sc *Spacecraft) Mass() float64 {
	return sc.DryMass + sc.FuelMass
}

// StandbyManeuver returns the next maneuver to execute, or nil.
func (sc *Spacecraft) StandbyManeuver() Maneuver {
	if sc.next < len(sc.Maneuvers) {
		return sc.Maneuvers[sc.next]
	}
	return nil
}

// maneuverExecuted moves to the next maneuver and records the resulting orientation.
func (sc *Spacecraft) maneuverExecuted(m Maneuver, o Orientation) {
	sc.next++
	sc.Orientations = append(sc.Orientations, o)
	kv := []interface{}{"subsys", "prop", "maneuver", sc.next, "epoch", o.Epoch, "fuel(kg)", sc.FuelMass}
	if b, ok := m.(interface{ BurnDuration() float64 }); ok {
		kv = append(kv, "burn(s)", b.BurnDuration())
	}
	level.Info(sc.Logger()).Log(kv...)
}

// checkpoint is what a propagation changes on a spacecraft.
type checkpoint struct {
	next, orientations, states int
	fuel                       float64
}

func (sc *Spacecraft) snapshot() checkpoint {
	return checkpoint{next: sc.next, orientations: len(sc.Orientations), states: len(sc.States), fuel: sc.FuelMass}
}

// restore undoes everything that happened after the checkpoint, making the maneuvers executed
// since pending again.
func (sc *Spacecraft) restore(c checkpoint) {
	for i := c.next; i < sc.next && i < len(sc.Maneuvers); i++ {
		if m, ok := sc.Maneuvers[i].(rearmable); ok {
			m.rearm()
		}
	}
	sc.next = c.next
	sc.FuelMass = c.fuel
	if c.orientations <= len(sc.Orientations) {
		sc.Orientations = sc.Orientations[:c.orientations]
	}
	if c.states <= len(sc.States) {
		sc.States = sc.States[:c.states]
	}
}

// AddStateVectorsRelativeToFrame implements the ResultSink interface by storing the states.
func (sc *Spacecraft) AddStateVectorsRelativeToFrame(states []*StateVector) error {
	sc.States = append(sc.States, states...)
	return nil
}

func (sc *Spacecraft) String() string {
	return fmt.Sprintf("%s (%.3f kg, %d/%d maneuvers)", sc.Name, sc.Mass(), sc.next, len(sc.Maneuvers))
}
