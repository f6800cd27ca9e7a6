package traj

import (
	"fmt"
	"math"
	"sync"

	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/pluto"
	"gonum.org/v1/gonum/spatial/r3"
)

// vsop87Δt is the half width of the central difference used for velocities.
const vsop87Δt = 30.0

// VSOP87Ephemeris computes planet positions from the VSOP87B series (heliocentric, J2000 ecliptic),
// Pluto from Meeus' chapter 37 and the Moon from ELP2000-82 as published by Meeus.
// The Sun is taken as the solar system barycenter. Velocities are central differences.
type VSOP87Ephemeris struct {
	StandardFrames
	dir     string
	mu      sync.Mutex
	planets map[int]*planetposition.V87Planet
}

// NewVSOP87Ephemeris returns an ephemeris reading the VSOP87B files from dir.
// Files are loaded the first time a planet is requested.
func NewVSOP87Ephemeris(dir string) *VSOP87Ephemeris {
	return &VSOP87Ephemeris{dir: dir, planets: make(map[int]*planetposition.V87Planet)}
}

// Ephemeris implements the EphemerisService interface.
func (e *VSOP87Ephemeris) Ephemeris(epoch Epoch, target, observer *CelestialBody, frame Frame, ab Aberration) (*StateVector, error) {
	return apparentEphemeris(e.barycentric, e.StandardFrames, epoch, target, observer, frame, ab)
}

func (e *VSOP87Ephemeris) barycentric(body *CelestialBody, epoch Epoch) (r, v r3.Vec, err error) {
	after, err := e.position(body, epoch.Add(vsop87Δt))
	if err != nil {
		return r, v, err
	}
	before, err := e.position(body, epoch.Add(-vsop87Δt))
	if err != nil {
		return r, v, err
	}
	if r, err = e.position(body, epoch); err != nil {
		return r, v, err
	}
	v = r3.Scale(1/(2*vsop87Δt), r3.Sub(after, before))
	return r, v, nil
}

// position returns the ICRF position of the body relative to the Sun.
func (e *VSOP87Ephemeris) position(body *CelestialBody, epoch Epoch) (r3.Vec, error) {
	jde := epoch.JDE()
	switch body.NaifID {
	case SSB.NaifID, Sun.NaifID:
		return r3.Vec{}, nil
	case Pluto.NaifID:
		l, b, rAU := pluto.Heliocentric(jde)
		return eclipticToICRF(l.Rad(), b.Rad(), rAU*AU), nil
	case Moon.NaifID:
		earth, err := e.position(Earth, epoch)
		if err != nil {
			return r3.Vec{}, err
		}
		// Ecliptic of date, the precession since J2000 is neglected.
		λ, β, Δ := moonposition.Position(jde)
		return r3.Add(earth, eclipticToICRF(λ.Rad(), β.Rad(), Δ*1e3)), nil
	}
	idx, ok := vsop87Index[body.NaifID]
	if !ok {
		return r3.Vec{}, fmt.Errorf("%w: %s is not in VSOP87", ErrUnknownBody, body)
	}
	planet, err := e.planet(idx)
	if err != nil {
		return r3.Vec{}, err
	}
	l, b, rAU := planet.Position2000(jde)
	return eclipticToICRF(l.Rad(), b.Rad(), rAU*AU), nil
}

// planet loads the whole file once.
func (e *VSOP87Ephemeris) planet(idx int) (*planetposition.V87Planet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.planets[idx]; ok {
		return p, nil
	}
	p, err := planetposition.LoadPlanetPath(idx, e.dir)
	if err != nil {
		return nil, fmt.Errorf("could not load planet number %d from %s: %w", idx+1, e.dir, err)
	}
	e.planets[idx] = p
	return p, nil
}

// vsop87Index maps NAIF IDs to the VSOP87 planet numbers (Mercury is zero).
var vsop87Index = map[int]int{
	Mercury.NaifID: 0,
	Venus.NaifID:   1,
	Earth.NaifID:   2,
	Mars.NaifID:    3,
	Jupiter.NaifID: 4,
	Saturn.NaifID:  5,
	Uranus.NaifID:  6,
	Neptune.NaifID: 7,
}

// eclipticToICRF converts J2000 ecliptic spherical coordinates into an ICRF vector.
func eclipticToICRF(l, b, r float64) r3.Vec {
	sB, cB := math.Sincos(b)
	sL, cL := math.Sincos(l)
	ecl := r3.Vec{X: r * cB * cL, Y: r * cB * sL, Z: r * sB}
	return MxV33(R1(-ObliquityJ2000), ecl)
}
