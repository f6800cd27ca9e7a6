package traj

import (
	"fmt"
	"math"
)

// StandardGravity is used to convert specific impulses to exhaust velocities, in m/s^2.
const StandardGravity = 9.80665

// Engine is a propulsion system of a fixed thrust and specific impulse.
type Engine struct {
	Name   string
	Thrust float64 // N
	Isp    float64 // s
}

/* Available engines */

// PPS1350 is the Snecma Hall thruster used on SMART-1, at 350 V and 2.5 kW.
var PPS1350 = Engine{Name: "PPS1350", Thrust: 89e-3, Isp: 1650}

// HERMeS is based on the NASA & Rocketdyne 12.5 kW demo, at 800 V.
var HERMeS = Engine{Name: "HERMeS", Thrust: 0.680, Isp: 2960}

// NewEngine returns a generic engine.
func NewEngine(name string, thrust, isp float64) (Engine, error) {
	if !(thrust > 0) || !(isp > 0) {
		return Engine{}, fmt.Errorf("%w: engine %s needs a positive thrust and isp", ErrInvalidConfig, name)
	}
	return Engine{Name: name, Thrust: thrust, Isp: isp}, nil
}

// ExhaustVelocity returns the effective exhaust velocity in m/s.
func (e Engine) ExhaustVelocity() float64 {
	return e.Isp * StandardGravity
}

// MassFlowRate returns the fuel consumption in kg/s when firing.
func (e Engine) MassFlowRate() float64 {
	return e.Thrust / e.ExhaustVelocity()
}

// FuelFor returns the fuel needed to change the velocity of a spacecraft of the provided
// initial mass by Δv (m/s), from the rocket equation.
func (e Engine) FuelFor(Δv, mass float64) float64 {
	return mass * (1 - math.Exp(-math.Abs(Δv)/e.ExhaustVelocity()))
}

// BurnDuration returns how long the engine fires to consume that fuel.
func (e Engine) BurnDuration(fuel float64) float64 {
	return fuel / e.MassFlowRate()
}

func (e Engine) String() string {
	return fmt.Sprintf("%s (%.3f N, %.0f s)", e.Name, e.Thrust, e.Isp)
}
