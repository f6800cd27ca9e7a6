package traj

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// fakeEphemeris places every body on the same analytic trajectory and counts the lookups.
type fakeEphemeris struct {
	StandardFrames
	calls int
	state func(t float64) (r, v r3.Vec)
}

func (f *fakeEphemeris) Ephemeris(epoch Epoch, target, observer *CelestialBody, frame Frame, ab Aberration) (*StateVector, error) {
	f.calls++
	r, v := f.state(float64(epoch))
	return NewStateVector(r, v, epoch, observer, frame)
}

// septic is a polynomial of degree seven in kilo-seconds, which eight points reproduce exactly.
func septic(t float64) (r, v r3.Vec) {
	s := t / 1e3
	var p, dp float64
	for k := 7; k >= 0; k-- {
		dp = dp*s + p
		p = p*s + float64(k+1)
	}
	r = r3.Vec{X: 1e6 * p, Y: -2e6 * p, Z: 5e5}
	v = r3.Vec{X: 1e3 * dp, Y: -2e3 * dp}
	return r, v
}

func circular(R, ω float64) func(t float64) (r, v r3.Vec) {
	return func(t float64) (r, v r3.Vec) {
		s, c := math.Sincos(ω * t)
		return r3.Vec{X: R * c, Y: R * s}, r3.Vec{X: -R * ω * s, Y: R * ω * c}
	}
}

func TestEphemerisCachePolynomial(t *testing.T) {
	svc := &fakeEphemeris{state: septic}
	cache, err := BuildEphemerisCache(context.Background(), svc, []CacheRequest{{Body: Moon}}, Earth, ICRF, 0, 600, DefaultEphemerisCacheOptions())
	if err != nil {
		t.Fatal(err)
	}
	if cache.Start() != -240 || cache.End() != 840 {
		t.Fatalf("cache spans [%s, %s]", cache.Start(), cache.End())
	}
	// Includes queries whose stencil is clamped to either edge of the grid.
	for _, epoch := range []Epoch{-239, -200.5, 7.7, 123.4, 300, 599.9, 811, 839.99} {
		r, v, err := cache.State(Moon, AberrationNone, epoch)
		if err != nil {
			t.Fatal(err)
		}
		rE, vE := septic(float64(epoch))
		if !vectorsEqual(r, rE, 1e-6*r3.Norm(rE)) {
			t.Fatalf("position @%s: %+v != %+v", epoch, r, rE)
		}
		if !vectorsEqual(v, vE, 1e-6*r3.Norm(vE)) {
			t.Fatalf("velocity @%s: %+v != %+v", epoch, v, vE)
		}
		pos, err := cache.Position(Moon, AberrationNone, epoch)
		if err != nil || pos != r {
			t.Fatalf("position only lookup differs: %+v (%v)", pos, err)
		}
	}
	// Grid epochs return the sample itself.
	r, _, err := cache.State(Moon, AberrationNone, 60)
	if err != nil {
		t.Fatal(err)
	}
	if rE, _ := septic(60); r != rE {
		t.Fatalf("grid hit %+v != %+v", r, rE)
	}
}

func TestEphemerisCacheAccuracy(t *testing.T) {
	ω := 2 * math.Pi / 86400
	for _, tt := range []struct {
		step     float64
		query    Epoch
		min, max float64
	}{
		{600, 43500, 0, 1e-3},
		{3600, 45000, 1e-3, 100},
	} {
		svc := &fakeEphemeris{state: circular(1e9, ω)}
		cache, err := BuildEphemerisCache(context.Background(), svc, []CacheRequest{{Body: Sun}}, Earth, ICRF, 0, 86400, EphemerisCacheOptions{Step: tt.step, Buffer: 4})
		if err != nil {
			t.Fatal(err)
		}
		r, err := cache.Position(Sun, AberrationNone, tt.query)
		if err != nil {
			t.Fatal(err)
		}
		rE, _ := circular(1e9, ω)(float64(tt.query))
		if δ := r3.Norm(r3.Sub(r, rE)); δ < tt.min || δ > tt.max {
			t.Fatalf("step %.0f s: error of %g m not in [%g, %g]", tt.step, δ, tt.min, tt.max)
		}
	}
}

func TestEphemerisCacheErrors(t *testing.T) {
	svc := &fakeEphemeris{state: septic}
	cache, err := BuildEphemerisCache(context.Background(), svc, []CacheRequest{{Body: Moon}}, Earth, ICRF, 0, 600, DefaultEphemerisCacheOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, epoch := range []Epoch{-241, 841, Epoch(math.NaN())} {
		_, err := cache.Position(Moon, AberrationNone, epoch)
		if !errors.Is(err, ErrEphemerisOutOfRange) {
			t.Fatalf("@%s: expected ErrEphemerisOutOfRange, got %v", epoch, err)
		}
		var oor *OutOfRangeError
		if !errors.As(err, &oor) || oor.Body != "Moon" || oor.Start != -240 || oor.End != 840 {
			t.Fatalf("unexpected error %#v", err)
		}
	}
	if _, err := cache.Position(Moon, LT, 0); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
	if _, _, err := cache.State(Mars, AberrationNone, 0); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
	if cache.Has(Mars, AberrationNone) || !cache.Has(Moon, AberrationNone) {
		t.Fatal("Has is wrong")
	}

	if _, err := BuildEphemerisCache(context.Background(), nil, nil, Earth, ICRF, 0, 600, DefaultEphemerisCacheOptions()); !errors.Is(err, ErrNoEphemeris) {
		t.Fatalf("expected ErrNoEphemeris, got %v", err)
	}
	for _, opts := range []EphemerisCacheOptions{{Step: 0, Buffer: 4}, {Step: 60, Buffer: -1}} {
		if _, err := BuildEphemerisCache(context.Background(), svc, nil, Earth, ICRF, 0, 600, opts); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%+v: expected ErrInvalidConfig, got %v", opts, err)
		}
	}
	if _, err := BuildEphemerisCache(context.Background(), svc, nil, Earth, ICRF, 600, 0, DefaultEphemerisCacheOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := BuildEphemerisCache(ctx, svc, []CacheRequest{{Body: Moon}}, Earth, ICRF, 0, 600, DefaultEphemerisCacheOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEphemerisCacheGrid(t *testing.T) {
	svc := &fakeEphemeris{state: septic}
	reqs := []CacheRequest{{Body: Moon}, {Body: Moon, Aberration: AberrationNone}, {Body: Earth}}
	cache, err := BuildEphemerisCache(context.Background(), svc, reqs, Earth, ICRF, 0, 600, DefaultEphemerisCacheOptions())
	if err != nil {
		t.Fatal(err)
	}
	// 600 s at 60 s plus four points on each side, and the observer is never looked up.
	if svc.calls != 19 {
		t.Fatalf("expected 19 lookups, got %d", svc.calls)
	}
	r, v, err := cache.State(Earth, AberrationNone, 123)
	if err != nil {
		t.Fatal(err)
	}
	if r != (r3.Vec{}) || v != (r3.Vec{}) {
		t.Fatalf("observer not at the origin: %+v %+v", r, v)
	}
	if cache.Observer() != Earth || cache.Frame() != ICRF {
		t.Fatal("wrong observer or frame")
	}

	// Short windows still hold a full stencil.
	cache, err = BuildEphemerisCache(context.Background(), svc, []CacheRequest{{Body: Moon}}, Earth, ICRF, 0, 10, EphemerisCacheOptions{Step: 60})
	if err != nil {
		t.Fatal(err)
	}
	if cache.Start() != 0 || cache.End() != 420 {
		t.Fatalf("cache spans [%s, %s]", cache.Start(), cache.End())
	}
	if _, err := cache.Position(Moon, AberrationNone, 5); err != nil {
		t.Fatal(err)
	}
}
