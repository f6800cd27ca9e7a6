package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AtmosphericDrag is the drag of the atmosphere of Body, which co-rotates with the body.
type AtmosphericDrag struct {
	Spacecraft *Spacecraft
	Body       *CelestialBody
	Density    DensityModel
}

// Name implements the Force interface.
func (d *AtmosphericDrag) Name() string {
	return fmt.Sprintf("%s drag", d.Body)
}

// CacheRequests implements the EphemerisDependent interface.
func (d *AtmosphericDrag) CacheRequests() []CacheRequest {
	return []CacheRequest{{Body: d.Body, Aberration: AberrationNone}}
}

// Acceleration implements the Force interface.
func (d *AtmosphericDrag) Acceleration(env *Environment, sv *StateVector) (r3.Vec, error) {
	if d.Density == nil {
		return r3.Vec{}, fmt.Errorf("%w: %s has no density model", ErrInvalidConfig, d.Name())
	}
	rb, vb, err := env.BodyState(d.Body, AberrationNone, sv.epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	r, v := r3.Sub(sv.position, rb), r3.Sub(sv.velocity, vb)
	var rFixed, vRel r3.Vec
	if d.Body.FixedFrame.IsZero() {
		// Uniform rotation about the frame Z axis.
		rFixed = r
		vRel = r3.Sub(v, r3.Cross(r3.Vec{Z: d.Body.RotationRate}, r))
	} else {
		o, err := env.Orientation(d.Body.FixedFrame, sv.epoch)
		if err != nil {
			return r3.Vec{}, err
		}
		var vFixed r3.Vec
		rFixed, vFixed = o.TransformState(r, v)
		vRel = o.Inverse().Rotate(vFixed)
	}
	lat, lon, alt := geodetic(rFixed, d.Body)
	ρ, err := d.Density.Density(DensityContext{
		Epoch:     sv.epoch,
		Altitude:  alt,
		Latitude:  lat,
		Longitude: lon,
		Fields:    DensityEpoch | DensityAltitude | DensityGeodetic,
	})
	if err != nil {
		return r3.Vec{}, err
	}
	sc := d.Spacecraft
	k := -0.5 * ρ * sc.SectionalArea / sc.Mass() * sc.DragCoefficient * r3.Norm(vRel)
	return r3.Scale(k, vRel), nil
}

// SolarRadiationPressure is the pressure of the Sun light on a spacecraft, with a flat plate of
// the spacecraft sectional area facing the Sun. Any body of Occulting which fully hides the Sun
// removes the pressure. Penumbras are not modeled.
type SolarRadiationPressure struct {
	Spacecraft *Spacecraft
	Occulting  []*CelestialBody
}

// Name implements the Force interface.
func (p *SolarRadiationPressure) Name() string { return "solar radiation pressure" }

// CacheRequests implements the EphemerisDependent interface.
func (p *SolarRadiationPressure) CacheRequests() []CacheRequest {
	reqs := []CacheRequest{{Body: Sun, Aberration: LT}}
	for _, b := range p.Occulting {
		reqs = append(reqs, CacheRequest{Body: b, Aberration: AberrationNone})
	}
	return reqs
}

// Acceleration implements the Force interface.
func (p *SolarRadiationPressure) Acceleration(env *Environment, sv *StateVector) (r3.Vec, error) {
	sun, err := env.BodyPosition(Sun, LT, sv.epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	toSun := r3.Sub(sun, sv.position)
	for _, b := range p.Occulting {
		if b.Equals(Sun) {
			continue
		}
		pos, err := env.BodyPosition(b, AberrationNone, sv.epoch)
		if err != nil {
			return r3.Vec{}, err
		}
		if fullyOcculted(toSun, r3.Sub(pos, sv.position), b.Radius) {
			return r3.Vec{}, nil
		}
	}
	// Sun to spacecraft.
	r := r3.Scale(-1, toSun)
	rN := r3.Norm(r)
	sc := p.Spacecraft
	k := SolarLuminosity / (4 * math.Pi * SpeedOfLight) * sc.SectionalArea / sc.Mass() / (rN * rN * rN)
	return r3.Scale(k, r), nil
}

// fullyOcculted returns whether a body of the provided radius fully hides the solar disk.
// Both vectors originate at the spacecraft.
func fullyOcculted(toSun, toBody r3.Vec, radius float64) bool {
	dBody := r3.Norm(toBody)
	if dBody <= radius {
		return true
	}
	dSun := r3.Norm(toSun)
	if dBody >= dSun {
		return false
	}
	θs := math.Asin(math.Min(1, Sun.Radius/dSun))
	θb := math.Asin(radius / dBody)
	if θb < θs {
		return false
	}
	sep := math.Acos(clampCos(r3.Dot(toSun, toBody) / (dSun * dBody)))
	return sep <= θb-θs
}
