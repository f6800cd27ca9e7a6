package traj

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func TestParseTLE(t *testing.T) {
	tle, err := ParseTLE("ISS (ZARYA)", issLine1, issLine2)
	if err != nil {
		t.Fatal(err)
	}
	if tle.CatalogNumber != 25544 || tle.Designator != "98067A" || tle.Classification != 'U' || tle.ElementSet != 292 || tle.Revolution != 56353 {
		t.Fatalf("unexpected identification: %+v", tle)
	}
	for _, c := range []struct {
		name     string
		got, exp float64
	}{
		{"inclination", Rad2deg(tle.Mean.Inclination), 51.6416},
		{"RAAN", Rad2deg(tle.Mean.RAAN), 247.4627},
		{"eccentricity", tle.Mean.Eccentricity, 0.0006703},
		{"argument of perigee", Rad2deg(tle.Mean.ArgPerigee), 130.5360},
		{"mean anomaly", Rad2deg(tle.Mean.MeanAnomaly), 325.0288},
		{"mean motion", tle.Mean.MeanMotion, 15.72125391},
		{"ndot", tle.Mean.NDot, -0.00002182},
		{"nddot", tle.Mean.NDDot, 0},
		{"bstar", tle.Mean.BStar, -0.11606e-4},
	} {
		if !scalar.EqualWithinAbs(c.got, c.exp, 1e-10) {
			t.Fatalf("%s: %g != %g", c.name, c.got, c.exp)
		}
	}
	exp := time.Date(2008, time.September, 20, 12, 25, 40, 104e6, time.UTC)
	if d := tle.Epoch().UTC().Sub(exp); d > time.Millisecond || d < -time.Millisecond {
		t.Fatalf("epoch %s, expected %s", tle.Epoch().UTC(), exp)
	}
	if tle.Observer() != Earth || tle.Frame() != TEME || !tle.IsCircular() {
		t.Fatal("TLE is a circular Earth orbit in TEME")
	}
	if !strings.HasPrefix(tle.String(), "ISS (ZARYA)\n1 25544U") {
		t.Fatalf("unexpected string %q", tle.String())
	}
}

func TestParseTLEErrors(t *testing.T) {
	for _, c := range []struct {
		name         string
		line1, line2 string
	}{
		{"short", issLine1[:60], issLine2},
		{"swapped", issLine2, issLine1},
		{"checksum", issLine1[:68] + "0", issLine2},
		{"catalog", issLine1, "2 25545" + issLine2[7:68] + "8"},
		{"field", issLine1, issLine2[:8] + " 51.6a16" + issLine2[16:68] + "3"},
	} {
		if _, err := ParseTLE("bad", c.line1, c.line2); !errors.Is(err, ErrInvalidTLE) {
			t.Fatalf("%s: expected ErrInvalidTLE, got %v", c.name, err)
		}
	}
}

func TestTLEState(t *testing.T) {
	tle, err := ParseTLE("ISS", issLine1, issLine2)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := tle.ToStateVector()
	if err != nil {
		t.Fatal(err)
	}
	if r := sv.RNorm(); r < 6.6e6 || r > 6.8e6 {
		t.Fatalf("ISS radius %f m", r)
	}
	if v := sv.VNorm(); v < 7.5e3 || v > 7.9e3 {
		t.Fatalf("ISS speed %f m/s", v)
	}
	if !scalar.EqualWithinAbs(Rad2deg(sv.Inclination()), 51.64, 0.1) {
		t.Fatalf("osculating inclination %f", Rad2deg(sv.Inclination()))
	}
	// Half an orbit later, the station is on the other side of the Earth.
	st, err := tle.AtEpoch(tle.Epoch().Add(SecondsPerDay / tle.Mean.MeanMotion / 2))
	if err != nil {
		t.Fatal(err)
	}
	later, _ := st.ToStateVector()
	if cos := r3.Dot(unit(sv.position), unit(later.position)); cos > -0.99 {
		t.Fatalf("cosine between both positions is %f", cos)
	}
}

func TestFitTLE(t *testing.T) {
	iss, err := ParseTLE("ISS", issLine1, issLine2)
	if err != nil {
		t.Fatal(err)
	}
	sv, err := iss.ToStateVector()
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultTLEFitOptions()
	opts.Name = "ISS FIT"
	opts.CatalogNumber = 25544
	fit, err := FitTLE(sv, opts)
	if err != nil {
		t.Fatal(err)
	}
	fitted, err := fit.AtEpoch(sv.Epoch())
	if err != nil {
		t.Fatal(err)
	}
	fsv, _ := fitted.ToStateVector()
	if d := r3.Norm(r3.Sub(fsv.position, sv.position)); d > opts.Tolerance {
		t.Fatalf("fitted TLE is %f m away", d)
	}
	if !scalar.EqualWithinAbs(Rad2deg(fit.Mean.Inclination), 51.6416, 1e-2) || !scalar.EqualWithinAbs(fit.Mean.MeanMotion, 15.72125391, 1e-3) {
		t.Fatalf("fitted mean elements differ: %+v", fit.Mean)
	}
	if _, err := FitTLE(circularState(7000e3, Mars, 0), opts); !errors.Is(err, ErrInvalidOrbit) {
		t.Fatal("TLEs of Mars orbits cannot exist")
	}
}

func TestFormatTLE(t *testing.T) {
	el := MeanElements{Inclination: Deg2rad(98.2), RAAN: Deg2rad(10), Eccentricity: 0.001, ArgPerigee: Deg2rad(90), MeanAnomaly: Deg2rad(270), MeanMotion: 14.2, BStar: 2.5e-5}
	tle, err := FormatTLE("SSO", 42, EpochFromUTC(time.Date(2019, time.July, 1, 0, 0, 0, 0, time.UTC)), el)
	if err != nil {
		t.Fatal(err)
	}
	if len(tle.Line1) != 69 || len(tle.Line2) != 69 {
		t.Fatalf("line lengths %d %d", len(tle.Line1), len(tle.Line2))
	}
	if !scalar.EqualWithinAbs(tle.Mean.BStar, 2.5e-5, 1e-10) || !scalar.EqualWithinAbs(tle.Mean.MeanMotion, 14.2, 1e-8) {
		t.Fatalf("round trip of mean elements: %+v", tle.Mean)
	}
	if d := tle.Epoch().UTC().Sub(time.Date(2019, time.July, 1, 0, 0, 0, 0, time.UTC)); d > time.Millisecond || d < -time.Millisecond {
		t.Fatalf("epoch off by %s", d)
	}
	if _, err := FormatTLE("bad", 100000, 0, el); !errors.Is(err, ErrInvalidTLE) {
		t.Fatal("six digit catalog number accepted")
	}
}
