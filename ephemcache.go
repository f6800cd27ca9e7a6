package traj

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ChristopherRabotin/traj/internal/metrics"
)

const (
	// DefaultCacheStep is the default spacing of the ephemeris cache grid in seconds.
	DefaultCacheStep = 60.0
	// DefaultCacheBuffer is the default number of grid points added on each side of the window.
	DefaultCacheBuffer = 4
	// stencilSize is the number of grid points of each Lagrange interpolation.
	stencilSize = 8
)

// CacheRequest is a body and aberration pair a force needs positions of.
type CacheRequest struct {
	Body       *CelestialBody
	Aberration Aberration
}

type cacheKey struct {
	naif int
	ab   Aberration
}

type ephemerisSeries struct {
	name     string
	pos, vel []r3.Vec
}

// EphemerisCache stores body states on a fixed time grid spanning a propagation window plus a
// buffer on each side, relative to one observer in one frame. It is immutable once built and
// safe for concurrent reads.
type EphemerisCache struct {
	observer *CelestialBody
	frame    Frame
	first    Epoch
	step     float64
	n        int
	series   map[cacheKey]*ephemerisSeries
}

// EphemerisCacheOptions configures the grid.
type EphemerisCacheOptions struct {
	Step   float64
	Buffer int
}

// DefaultEphemerisCacheOptions returns a 60 s grid with four points of buffer.
func DefaultEphemerisCacheOptions() EphemerisCacheOptions {
	return EphemerisCacheOptions{Step: DefaultCacheStep, Buffer: DefaultCacheBuffer}
}

// BuildEphemerisCache samples the service for every distinct request.
func BuildEphemerisCache(ctx context.Context, svc EphemerisService, requests []CacheRequest, observer *CelestialBody, frame Frame, start, end Epoch, opts EphemerisCacheOptions) (*EphemerisCache, error) {
	if svc == nil {
		return nil, ErrNoEphemeris
	}
	if !(opts.Step > 0) {
		return nil, fmt.Errorf("%w: cache step %g", ErrInvalidConfig, opts.Step)
	}
	if opts.Buffer < 0 {
		return nil, fmt.Errorf("%w: cache buffer %d", ErrInvalidConfig, opts.Buffer)
	}
	if end < start {
		return nil, fmt.Errorf("%w: window ends before it starts", ErrInvalidConfig)
	}
	n := int(math.Ceil(end.Sub(start)/opts.Step)) + 1 + 2*opts.Buffer
	if n < stencilSize {
		n = stencilSize
	}
	c := &EphemerisCache{
		observer: observer,
		frame:    frame,
		first:    start.Add(-float64(opts.Buffer) * opts.Step),
		step:     opts.Step,
		n:        n,
		series:   make(map[cacheKey]*ephemerisSeries),
	}
	for _, req := range requests {
		key := cacheKey{req.Body.NaifID, req.Aberration}
		if _, dup := c.series[key]; dup {
			continue
		}
		s := &ephemerisSeries{name: req.Body.Name, pos: make([]r3.Vec, n), vel: make([]r3.Vec, n)}
		if !req.Body.Equals(observer) {
			for j := 0; j < n; j++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				st, err := svc.Ephemeris(c.epochAt(j), req.Body, observer, frame, req.Aberration)
				if err != nil {
					return nil, fmt.Errorf("caching %s: %w", req.Body, err)
				}
				s.pos[j], s.vel[j] = st.position, st.velocity
			}
		}
		c.series[key] = s
		metrics.CacheSamples.Add(float64(n))
	}
	metrics.CacheBuilds.Inc()
	return c, nil
}

func (c *EphemerisCache) epochAt(j int) Epoch {
	return c.first.Add(float64(j) * c.step)
}

// Start returns the first grid epoch.
func (c *EphemerisCache) Start() Epoch { return c.first }

// End returns the last grid epoch.
func (c *EphemerisCache) End() Epoch { return c.epochAt(c.n - 1) }

// Observer returns the body the cached states are relative to.
func (c *EphemerisCache) Observer() *CelestialBody { return c.observer }

// Frame returns the frame of the cached states.
func (c *EphemerisCache) Frame() Frame { return c.frame }

// Has returns whether the body and aberration pair was cached.
func (c *EphemerisCache) Has(body *CelestialBody, ab Aberration) bool {
	_, ok := c.series[cacheKey{body.NaifID, ab}]
	return ok
}

// Position returns the interpolated position of the body.
func (c *EphemerisCache) Position(body *CelestialBody, ab Aberration, epoch Epoch) (r3.Vec, error) {
	r, _, err := c.interpolate(body, ab, epoch, false)
	return r, err
}

// State returns the interpolated position and velocity of the body.
func (c *EphemerisCache) State(body *CelestialBody, ab Aberration, epoch Epoch) (r, v r3.Vec, err error) {
	return c.interpolate(body, ab, epoch, true)
}

// interpolate evaluates the barycentric Lagrange polynomial through an 8 point stencil centered
// on the query and clamped to the grid. Grid epochs return the sample itself.
func (c *EphemerisCache) interpolate(body *CelestialBody, ab Aberration, epoch Epoch, withVelocity bool) (r, v r3.Vec, err error) {
	s, ok := c.series[cacheKey{body.NaifID, ab}]
	if !ok {
		metrics.CacheQueries.WithLabelValues("miss").Inc()
		return r, v, fmt.Errorf("%w: %s (%s)", ErrNotCached, body, ab)
	}
	if epoch < c.first || epoch > c.End() || math.IsNaN(float64(epoch)) {
		metrics.CacheQueries.WithLabelValues("out_of_range").Inc()
		return r, v, &OutOfRangeError{Body: s.name, Epoch: epoch, Start: c.first, End: c.End()}
	}
	u := epoch.Sub(c.first) / c.step
	idx := int(math.Floor(u))
	if float64(idx) == u {
		metrics.CacheQueries.WithLabelValues("exact").Inc()
		return s.pos[idx], s.vel[idx], nil
	}
	metrics.CacheQueries.WithLabelValues("hit").Inc()
	lo := idx - stencilSize/2 + 1
	if lo < 0 {
		lo = 0
	}
	if lo > c.n-stencilSize {
		lo = c.n - stencilSize
	}
	// Nodes are the grid indices, so the weights only depend on the stencil position.
	var num, numV r3.Vec
	var den float64
	for j := 0; j < stencilSize; j++ {
		x := u - float64(lo+j)
		w := lagrangeWeights[j] / x
		den += w
		num = r3.Add(num, r3.Scale(w, s.pos[lo+j]))
		if withVelocity {
			numV = r3.Add(numV, r3.Scale(w, s.vel[lo+j]))
		}
	}
	r = r3.Scale(1/den, num)
	if withVelocity {
		v = r3.Scale(1/den, numV)
	}
	return r, v, nil
}

// lagrangeWeights are the barycentric weights 1/∏(x_j - x_k) of the nodes 0..7.
var lagrangeWeights = func() [stencilSize]float64 {
	var w [stencilSize]float64
	for j := range w {
		p := 1.0
		for k := 0; k < stencilSize; k++ {
			if k != j {
				p *= float64(j - k)
			}
		}
		w[j] = 1 / p
	}
	return w
}()
