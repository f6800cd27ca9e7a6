package traj

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ChristopherRabotin/traj/internal/metrics"
)

// EphemerisService locates bodies and orients frames. Implementations must be deterministic for a
// given (epoch, target, observer, frame, aberration) tuple, and safe for concurrent use.
type EphemerisService interface {
	Ephemeris(epoch Epoch, target, observer *CelestialBody, frame Frame, ab Aberration) (*StateVector, error)
	TransformFrame(from, to Frame, epoch Epoch) (Orientation, error)
}

// barycentricFunc returns the geometric ICRF state of a body relative to the solar system barycenter.
type barycentricFunc func(body *CelestialBody, epoch Epoch) (r, v r3.Vec, err error)

// apparentEphemeris applies the light time and stellar aberration corrections to a geometric
// barycentric model, then expresses the result in the requested frame.
func apparentEphemeris(bary barycentricFunc, frames StandardFrames, epoch Epoch, target, observer *CelestialBody, frame Frame, ab Aberration) (*StateVector, error) {
	metrics.EphemerisCalls.WithLabelValues(ab.String()).Inc()
	if target.Equals(observer) {
		return NewStateVector(r3.Vec{}, r3.Vec{}, epoch, observer, frame)
	}
	ro, vo, err := bary(observer, epoch)
	if err != nil {
		return nil, err
	}
	rt, vt, err := bary(target, epoch)
	if err != nil {
		return nil, err
	}
	r, v := r3.Sub(rt, ro), r3.Sub(vt, vo)
	for i := 0; i < ab.lightTimeIterations(); i++ {
		τ := r3.Norm(r) / SpeedOfLight
		if ab.transmission() {
			τ = -τ
		}
		if rt, vt, err = bary(target, epoch.Add(-τ)); err != nil {
			return nil, err
		}
		r, v = r3.Sub(rt, ro), r3.Sub(vt, vo)
	}
	if ab.stellar() {
		// First order stellar aberration: shift the apparent direction along the observer velocity.
		β := r3.Scale(r3.Norm(r)/SpeedOfLight, vo)
		if ab.transmission() {
			β = r3.Scale(-1, β)
		}
		r = r3.Add(r, β)
	}
	if frame != ICRF {
		o, err := frames.TransformFrame(ICRF, frame, epoch)
		if err != nil {
			return nil, err
		}
		r, v = o.TransformState(r, v)
	}
	return NewStateVector(r, v, epoch, observer, frame)
}
