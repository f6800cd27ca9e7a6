package traj

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestEquinoctialRoundTrip(t *testing.T) {
	for _, c := range []struct {
		name             string
		a, e, i, Ω, ω, M float64 // degrees
		retrograde       bool
	}{
		{"LEO", 7000e3, 0.01, 28.5, 40, 50, 60, false},
		{"GEO", 42164e3, 0.0002, 0.05, 80, 20, 10, false},
		{"equatorial", 10000e3, 0.3, 0, 0, 45, 90, false},
		{"circular", 8000e3, 0, 60, 120, 0, 200, false},
		{"retrograde", 7500e3, 0.1, 150, 200, 100, 170, true},
		{"circular retrograde equatorial", 7500e3, 0, 180, 0, 0, 30, true},
	} {
		kep, err := NewKeplerianElements(c.a, c.e, Deg2rad(c.i), Deg2rad(c.Ω), Deg2rad(c.ω), Deg2rad(c.M), 0, Earth, ICRF)
		if err != nil {
			t.Fatalf("%s: %s", c.name, err)
		}
		eq, err := kep.ToEquinoctial()
		if err != nil {
			t.Fatalf("%s: %s", c.name, err)
		}
		if eq.Retrograde() != c.retrograde {
			t.Fatalf("%s: retrograde factor is wrong", c.name)
		}
		if !scalar.EqualWithinAbs(eq.Eccentricity(), c.e, 1e-12) {
			t.Fatalf("%s: e=%f", c.name, eq.Eccentricity())
		}
		// Both representations describe the same state.
		svK, err := kep.ToStateVector()
		if err != nil {
			t.Fatalf("%s: %s", c.name, err)
		}
		svE, err := eq.ToStateVector()
		if err != nil {
			t.Fatalf("%s: %s", c.name, err)
		}
		if ok, err := svK.Equals(svE, 1e-3, 1e-6); !ok {
			t.Fatalf("%s: %s", c.name, err)
		}
		// The state converts back to the same equinoctial elements.
		fresh, _ := svK.ToStateVector()
		eq2, err := fresh.ToEquinoctial()
		if err != nil {
			t.Fatalf("%s: %s", c.name, err)
		}
		p1, f1, g1, h1, k1, L1 := eq.Elements()
		p2, f2, g2, h2, k2, L2 := eq2.Elements()
		if !scalar.EqualWithinAbs(p1, p2, 1e-3) || !scalar.EqualWithinAbs(f1, f2, 1e-10) || !scalar.EqualWithinAbs(g1, g2, 1e-10) ||
			!scalar.EqualWithinAbs(h1, h2, 1e-9) || !scalar.EqualWithinAbs(k1, k2, 1e-9) || !anglesEqual(L1, L2, 1e-9) {
			t.Fatalf("%s: %s != %s", c.name, eq, eq2)
		}
		// And to Keplerian elements describing the same state.
		kep2, err := eq.ToKeplerianElements()
		if err != nil {
			t.Fatalf("%s: %s", c.name, err)
		}
		sv2, _ := kep2.ToStateVector()
		if ok, err := svK.Equals(sv2, 1e-3, 1e-6); !ok {
			t.Fatalf("%s: equinoctial to Keplerian: %s", c.name, err)
		}
	}
}

func TestEquinoctialTrueLongitude(t *testing.T) {
	// With e = 0 and i = 0, L0 is the angle of the position from X.
	eq, err := NewEquinoctialElements(7000e3, 0, 0, 0, 0, math.Pi/2, false, 0, Earth, ICRF)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := eq.ToStateVector()
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(sv.position.X, 0, 1e-6) || !scalar.EqualWithinAbs(sv.position.Y, 7000e3, 1e-6) {
		t.Fatalf("r=%+v", sv.position)
	}
	if !eq.IsCircular() || eq.IsHyperbolic() {
		t.Fatal("circular orbit misclassified")
	}
}

func TestEquinoctialValidation(t *testing.T) {
	if _, err := NewEquinoctialElements(-1, 0, 0, 0, 0, 0, false, 0, Earth, ICRF); !errors.Is(err, ErrInvalidOrbit) {
		t.Fatal("negative semi-latus rectum accepted")
	}
	if _, err := NewEquinoctialElements(7000e3, math.NaN(), 0, 0, 0, 0, false, 0, Earth, ICRF); !errors.Is(err, ErrInvalidOrbit) {
		t.Fatal("NaN f accepted")
	}
	// Past the asymptote of a hyperbola.
	eq, err := NewEquinoctialElements(7000e3, 2, 0, 0, 0, math.Pi, false, 0, Earth, ICRF)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eq.ToStateVector(); !errors.Is(err, ErrInvalidOrbit) {
		t.Fatalf("expected an invalid orbit, got %v", err)
	}
}
