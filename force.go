package traj

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Force computes the acceleration it imparts on a spacecraft in a given state.
// The state is expressed relative to the Environment observer, in the Environment frame.
type Force interface {
	Name() string
	Acceleration(env *Environment, sv *StateVector) (r3.Vec, error)
}

// EphemerisDependent is implemented by forces which need the position of other bodies.
// The propagator caches every request before integrating.
type EphemerisDependent interface {
	CacheRequests() []CacheRequest
}

// Environment is what forces see of the world during one propagation. It is owned by that
// propagation. Service may be nil when no force requires an ephemeris.
type Environment struct {
	Service  EphemerisService
	Cache    *EphemerisCache
	Observer *CelestialBody
	Frame    Frame
}

// BodyState returns the state of the body relative to the environment observer, from the
// cache when it holds the body and from the service otherwise.
func (env *Environment) BodyState(body *CelestialBody, ab Aberration, epoch Epoch) (r, v r3.Vec, err error) {
	if body.Equals(env.Observer) {
		return r, v, nil
	}
	if env.Cache != nil && env.Cache.Has(body, ab) {
		return env.Cache.State(body, ab, epoch)
	}
	if env.Service == nil {
		return r, v, fmt.Errorf("%w: %s requested", ErrNoEphemeris, body)
	}
	st, err := env.Service.Ephemeris(epoch, body, env.Observer, env.Frame, ab)
	if err != nil {
		return r, v, err
	}
	return st.position, st.velocity, nil
}

// BodyPosition returns the position of the body relative to the environment observer.
func (env *Environment) BodyPosition(body *CelestialBody, ab Aberration, epoch Epoch) (r3.Vec, error) {
	if body.Equals(env.Observer) {
		return r3.Vec{}, nil
	}
	if env.Cache != nil && env.Cache.Has(body, ab) {
		return env.Cache.Position(body, ab, epoch)
	}
	r, _, err := env.BodyState(body, ab, epoch)
	return r, err
}

// Orientation returns the orientation of `to` with respect to the environment frame.
// Without a service, only the built in frames are known.
func (env *Environment) Orientation(to Frame, epoch Epoch) (Orientation, error) {
	if to == env.Frame {
		return identityOrientation(epoch, env.Frame), nil
	}
	if env.Service != nil {
		return env.Service.TransformFrame(env.Frame, to, epoch)
	}
	return StandardFrames{}.TransformFrame(env.Frame, to, epoch)
}

// ForceSum is the sum of its forces. The order does not matter.
type ForceSum []Force

// Name implements the Force interface.
func (fs ForceSum) Name() string {
	return fmt.Sprintf("sum of %d forces", len(fs))
}

// Acceleration implements the Force interface.
func (fs ForceSum) Acceleration(env *Environment, sv *StateVector) (r3.Vec, error) {
	var acc r3.Vec
	for _, f := range fs {
		a, err := f.Acceleration(env, sv)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("%s: %w", f.Name(), err)
		}
		acc = r3.Add(acc, a)
	}
	if !finite(acc) {
		return r3.Vec{}, fmt.Errorf("%w: non finite acceleration at %s", ErrInvalidOrbit, sv.epoch)
	}
	return acc, nil
}

// CacheRequests implements the EphemerisDependent interface, merging the requests of all forces.
func (fs ForceSum) CacheRequests() []CacheRequest {
	var reqs []CacheRequest
	for _, f := range fs {
		if d, ok := f.(EphemerisDependent); ok {
			reqs = append(reqs, d.CacheRequests()...)
		}
	}
	return reqs
}

// validate checks that every force is usable with the environment.
func (fs ForceSum) validate(env *Environment) error {
	var errs []error
	for i, f := range fs {
		if f == nil {
			errs = append(errs, fmt.Errorf("%w: force #%d is nil", ErrInvalidConfig, i))
			continue
		}
		if d, ok := f.(EphemerisDependent); ok && env.Service == nil {
			for _, req := range d.CacheRequests() {
				if !req.Body.Equals(env.Observer) {
					errs = append(errs, fmt.Errorf("%w: %s needs %s", ErrNoEphemeris, f.Name(), req.Body))
					break
				}
			}
		}
	}
	return errors.Join(errs...)
}
