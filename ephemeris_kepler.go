package traj

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// maxKeplerDepth bounds the parent chain of a KeplerEphemeris.
const maxKeplerDepth = 16

// KeplerEphemeris places bodies on unperturbed conic orbits around their parents.
// The Sun is at the barycenter unless it was given an orbit.
type KeplerEphemeris struct {
	StandardFrames
	mu     sync.RWMutex
	orbits map[int]*KeplerianElements
}

// NewKeplerEphemeris returns an empty analytic ephemeris.
func NewKeplerEphemeris() *KeplerEphemeris {
	return &KeplerEphemeris{orbits: make(map[int]*KeplerianElements)}
}

// Add sets the orbit of a body. The observer of the orbit is its parent.
func (k *KeplerEphemeris) Add(body *CelestialBody, orbit *KeplerianElements) error {
	if body == nil || orbit == nil {
		return fmt.Errorf("%w: body and orbit are required", ErrInvalidConfig)
	}
	if body.Equals(orbit.Observer()) {
		return fmt.Errorf("%w: %s cannot orbit itself", ErrInvalidConfig, body)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.orbits[body.NaifID] = orbit
	return nil
}

// Ephemeris implements the EphemerisService interface.
func (k *KeplerEphemeris) Ephemeris(epoch Epoch, target, observer *CelestialBody, frame Frame, ab Aberration) (*StateVector, error) {
	return apparentEphemeris(k.barycentric, k.StandardFrames, epoch, target, observer, frame, ab)
}

func (k *KeplerEphemeris) barycentric(body *CelestialBody, epoch Epoch) (r, v r3.Vec, err error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for depth := 0; depth < maxKeplerDepth; depth++ {
		if body.Equals(SSB) {
			return r, v, nil
		}
		orbit, ok := k.orbits[body.NaifID]
		if !ok {
			if body.Equals(Sun) {
				return r, v, nil
			}
			return r, v, fmt.Errorf("%w: %s has no orbit", ErrUnknownBody, body)
		}
		st, err := orbit.AtEpoch(epoch)
		if err != nil {
			return r, v, err
		}
		sv, err := st.ToStateVector()
		if err != nil {
			return r, v, err
		}
		ri, vi := sv.position, sv.velocity
		if sv.frame != ICRF {
			o, err := k.TransformFrame(sv.frame, ICRF, epoch)
			if err != nil {
				return r, v, err
			}
			ri, vi = o.TransformState(ri, vi)
		}
		r, v = r3.Add(r, ri), r3.Add(v, vi)
		body = orbit.Observer()
	}
	return r, v, fmt.Errorf("%w: parent chain deeper than %d", ErrInvalidConfig, maxKeplerDepth)
}

// NewSolarSystemKeplerEphemeris returns the JPL approximate mean elements at J2000 of the
// inner planets, Jupiter and the Moon, in the J2000 ecliptic.
func NewSolarSystemKeplerEphemeris() (*KeplerEphemeris, error) {
	k := NewKeplerEphemeris()
	planets := []struct {
		body           *CelestialBody
		parent         *CelestialBody
		a              float64
		e, i, Ω, ϖ, L0 float64 // degrees
	}{
		{Mercury, Sun, 0.38709927 * AU, 0.20563593, 7.00497902, 48.33076593, 77.45779628, 252.25032350},
		{Venus, Sun, 0.72333566 * AU, 0.00677672, 3.39467605, 76.67984255, 131.60246718, 181.97909950},
		{Earth, Sun, 1.00000261 * AU, 0.01671123, 0, 0, 102.93768193, 100.46457166},
		{Mars, Sun, 1.52371034 * AU, 0.09339410, 1.84969142, 49.55953891, -23.94362959, -4.55343205},
		{Jupiter, Sun, 5.20288700 * AU, 0.04838624, 1.30439695, 100.47390909, 14.72847983, 34.39644051},
		{Moon, Earth, 384400e3, 0.0549, 5.145, 125.08, 83.23, 218.32},
	}
	for _, p := range planets {
		parent := &CelestialBody{Name: p.parent.Name, NaifID: p.parent.NaifID, GM: p.parent.GM + p.body.GM, Radius: p.parent.Radius}
		orbit, err := NewKeplerianElements(p.a, p.e, p.i*deg2rad, Deg2rad(p.Ω), Deg2rad(p.ϖ-p.Ω), Deg2rad(p.L0-p.ϖ), 0, parent, EclipticJ2000)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.body, err)
		}
		if err := k.Add(p.body, orbit); err != nil {
			return nil, err
		}
	}
	return k, nil
}
