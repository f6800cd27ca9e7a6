package traj

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestKeplerEphemeris(t *testing.T) {
	eph, err := NewSolarSystemKeplerEphemeris()
	if err != nil {
		t.Fatal(err)
	}
	epoch := Epoch(86400 * 365.25 * 18)
	sun, err := eph.Ephemeris(epoch, Sun, Earth, ICRF, AberrationNone)
	if err != nil {
		t.Fatal(err)
	}
	if d := sun.RNorm() / AU; d < 0.98 || d > 1.02 {
		t.Fatalf("Sun at %f AU from the Earth", d)
	}
	if v := sun.VNorm(); v < 29e3 || v > 31e3 {
		t.Fatalf("Earth moving at %f m/s around the Sun", v)
	}
	earth, err := eph.Ephemeris(epoch, Earth, Sun, ICRF, AberrationNone)
	if err != nil {
		t.Fatal(err)
	}
	if !vectorsEqual(r3.Add(sun.Position(), earth.Position()), r3.Vec{}, 1e-3) {
		t.Fatal("Sun from Earth is not the opposite of Earth from Sun")
	}
	// The ecliptic is the plane of the Earth orbit.
	ecl, err := eph.Ephemeris(epoch, Earth, Sun, EclipticJ2000, AberrationNone)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ecl.Position().Z) > 1e-3 || math.Abs(ecl.RNorm()-earth.RNorm()) > 1e-3 {
		t.Fatalf("Earth out of the ecliptic: %s", ecl)
	}
	moon, err := eph.Ephemeris(epoch, Moon, Earth, ICRF, AberrationNone)
	if err != nil {
		t.Fatal(err)
	}
	if d := moon.RNorm(); d < 3.5e8 || d > 4.1e8 {
		t.Fatalf("Moon at %f m", d)
	}
	self, err := eph.Ephemeris(epoch, Earth, Earth, ICRF, LT)
	if err != nil || self.RNorm() != 0 || self.VNorm() != 0 {
		t.Fatalf("Earth from Earth: %s (%v)", self, err)
	}
	if _, err := eph.Ephemeris(epoch, Pluto, Earth, ICRF, AberrationNone); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
}

func TestLightTime(t *testing.T) {
	eph, err := NewSolarSystemKeplerEphemeris()
	if err != nil {
		t.Fatal(err)
	}
	geometric, _ := eph.Ephemeris(0, Mars, Earth, ICRF, AberrationNone)
	lt, err := eph.Ephemeris(0, Mars, Earth, ICRF, LT)
	if err != nil {
		t.Fatal(err)
	}
	cn, err := eph.Ephemeris(0, Mars, Earth, ICRF, CN)
	if err != nil {
		t.Fatal(err)
	}
	xlt, err := eph.Ephemeris(0, Mars, Earth, ICRF, XLT)
	if err != nil {
		t.Fatal(err)
	}
	// Mars moves by its speed times the light time, hundreds of kilometers to a few thousands.
	τ := geometric.RNorm() / SpeedOfLight
	shift := r3.Norm(r3.Sub(lt.Position(), geometric.Position()))
	if shift < 0.5*τ*20e3 || shift > 1.5*τ*27e3 {
		t.Fatalf("light time shift of %f m for τ=%f s", shift, τ)
	}
	if d := r3.Norm(r3.Sub(cn.Position(), lt.Position())); d > 0.01*shift {
		t.Fatalf("converged light time differs by %f m", d)
	}
	// Transmission looks ahead in time instead.
	if d := r3.Norm(r3.Add(r3.Sub(xlt.Position(), geometric.Position()), r3.Sub(lt.Position(), geometric.Position()))); d > 0.01*shift {
		t.Fatalf("transmission is not symmetric to reception: %f m", d)
	}
	lts, err := eph.Ephemeris(0, Mars, Earth, ICRF, LTS)
	if err != nil {
		t.Fatal(err)
	}
	if r3.Norm(r3.Sub(lts.Position(), lt.Position())) == 0 {
		t.Fatal("stellar aberration did nothing")
	}
}

func TestVSOP87Pluto(t *testing.T) {
	// Pluto and the errors do not need the VSOP87 files.
	eph := NewVSOP87Ephemeris("/nonexistent")
	pluto, err := eph.Ephemeris(0, Pluto, Sun, ICRF, AberrationNone)
	if err != nil {
		t.Fatal(err)
	}
	if d := pluto.RNorm() / AU; d < 29 || d > 32 {
		t.Fatalf("Pluto at %f AU", d)
	}
	if v := pluto.VNorm(); v < 4e3 || v > 8e3 {
		t.Fatalf("Pluto moving at %f m/s", v)
	}
	if _, err := eph.Ephemeris(0, Mars, Sun, ICRF, AberrationNone); err == nil {
		t.Fatal("expected an error without the VSOP87 files")
	}
}
