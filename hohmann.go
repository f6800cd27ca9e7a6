package traj

import (
	"fmt"
	"math"

	"github.com/go-kit/kit/log/level"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hohmann computes a Hohmann transfer between two radii. It returns the departure and arrival
// velocities and the time of flight in seconds.
// To get final computations:
// ΔvInit = vDeparture - vI
// ΔvFinal = vF - vArrival
func Hohmann(rI, rF float64, body *CelestialBody) (vDeparture, vArrival, tof float64) {
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * body.GM / rI) - (body.GM / aTransfer))
	vArrival = math.Sqrt((2 * body.GM / rF) - (body.GM / aTransfer))
	tof = math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/body.GM)
	return
}

// NewHohmannTransfer returns the two impulsive maneuvers moving a spacecraft from its circular
// orbit at the epoch of sv to the circular orbit of radius rF. Both burns are along the velocity.
func NewHohmannTransfer(sc *Spacecraft, sv *StateVector, rF float64, engine Engine) (departure, arrival *ImpulsiveManeuver, err error) {
	if !sv.IsCircular() {
		return nil, nil, invalidOrbit("eccentricity", sv.Eccentricity(), "Hohmann transfers start from a circular orbit")
	}
	if !(rF > sv.observer.Radius) {
		return nil, nil, invalidOrbit("radius", rF, "target is inside the central body")
	}
	rI := sv.RNorm()
	vI := math.Sqrt(sv.observer.GM / rI)
	vF := math.Sqrt(sv.observer.GM / rF)
	vDeparture, vArrival, tof := Hohmann(rI, rF, sv.observer)
	if departure, err = NewImpulsiveManeuver(sc, sv.epoch, r3.Vec{X: vDeparture - vI}, engine); err != nil {
		return nil, nil, err
	}
	if arrival, err = NewImpulsiveManeuver(sc, sv.epoch.Add(tof), r3.Vec{X: vF - vArrival}, engine); err != nil {
		return nil, nil, err
	}
	level.Info(sc.Logger()).Log("subsys", "astro", "hohmann", fmt.Sprintf("%.0f m -> %.0f m", rI, rF), "tof(s)", tof, "Δv1", vDeparture-vI, "Δv2", vF-vArrival)
	return departure, arrival, nil
}
