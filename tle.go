package traj

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"
)

// MeanElements are the SGP4 mean elements of a two line element set.
// Angles are in radians, mean motion in revolutions per day, NDot and NDDot are the TLE
// fields (first and second derivatives of the mean motion over two and six).
type MeanElements struct {
	Inclination, RAAN, Eccentricity, ArgPerigee, MeanAnomaly float64
	MeanMotion                                               float64
	NDot, NDDot, BStar                                       float64
}

// TLE is a two line element set, propagated with SGP4 in the TEME frame around the Earth.
type TLE struct {
	Name           string
	Line1, Line2   string
	CatalogNumber  int
	Classification byte
	Designator     string
	ElementSet     int
	Revolution     int
	Mean           MeanElements
	epoch          Epoch
	sat            satellite.Satellite
}

// ParseTLE validates and parses a two line element set.
// The lines are validated before they reach the SGP4 library, which exits on malformed input.
func ParseTLE(name, line1, line2 string) (*TLE, error) {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if len(line1) != 69 {
		return nil, fmt.Errorf("%w: line 1 length %d, expected 69", ErrInvalidTLE, len(line1))
	}
	if len(line2) != 69 {
		return nil, fmt.Errorf("%w: line 2 length %d, expected 69", ErrInvalidTLE, len(line2))
	}
	if line1[0] != '1' || line2[0] != '2' {
		return nil, fmt.Errorf("%w: lines must start with 1 and 2", ErrInvalidTLE)
	}
	for n, l := range []string{line1, line2} {
		if want := strconv.Itoa(tleChecksum(l)); l[68:] != want {
			return nil, fmt.Errorf("%w: line %d checksum %s, expected %s", ErrInvalidTLE, n+1, l[68:], want)
		}
	}
	t := &TLE{Name: strings.TrimSpace(name), Line1: line1, Line2: line2, Classification: line1[7],
		Designator: strings.TrimSpace(line1[9:17])}
	p := tleParser{}
	t.CatalogNumber = p.integer("catalog number", line1[2:7])
	if cat2 := p.integer("catalog number", line2[2:7]); p.err == nil && cat2 != t.CatalogNumber {
		return nil, fmt.Errorf("%w: catalog numbers differ (%d, %d)", ErrInvalidTLE, t.CatalogNumber, cat2)
	}
	year := p.integer("epoch year", line1[18:20])
	days := p.decimal("epoch day", line1[20:32])
	t.Mean.NDot = p.decimal("first derivative of mean motion", strings.Replace(line1[33:43], " ", "", -1))
	t.Mean.NDDot = p.exponent("second derivative of mean motion", line1[44:52])
	t.Mean.BStar = p.exponent("B*", line1[53:61])
	t.ElementSet = p.integer("element set", line1[64:68])
	t.Mean.Inclination = p.decimal("inclination", line2[8:16]) * deg2rad
	t.Mean.RAAN = p.decimal("RAAN", line2[17:25]) * deg2rad
	t.Mean.Eccentricity = p.decimal("eccentricity", "0."+line2[26:33])
	t.Mean.ArgPerigee = p.decimal("argument of perigee", line2[34:42]) * deg2rad
	t.Mean.MeanAnomaly = p.decimal("mean anomaly", line2[43:51]) * deg2rad
	t.Mean.MeanMotion = p.decimal("mean motion", line2[52:63])
	t.Revolution = p.integer("revolution number", line2[63:68])
	if p.err != nil {
		return nil, p.err
	}
	if year < 57 {
		year += 2000
	} else {
		year += 1900
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	t.epoch = EpochFromUTC(start).Add((days - 1) * SecondsPerDay)

	t.sat = satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if t.sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 initialization failed: code=%d %s", ErrInvalidTLE, t.sat.Error, t.sat.ErrorStr)
	}
	return t, nil
}

// tleParser keeps the first field error.
type tleParser struct {
	err error
}

func (p *tleParser) fail(field, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s %q: %s", ErrInvalidTLE, field, raw, err)
	}
}

func (p *tleParser) integer(field, raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(field, raw, err)
	}
	return v
}

func (p *tleParser) decimal(field, raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		p.fail(field, raw, err)
	}
	return v
}

// exponent parses the assumed decimal point notation, e.g. "-11606-4" is -0.11606e-4.
func (p *tleParser) exponent(field, raw string) float64 {
	if len(raw) != 8 {
		p.fail(field, raw, fmt.Errorf("expected 8 characters"))
		return 0
	}
	mantissa := strings.TrimSpace(raw[0:1]) + "0." + raw[1:6]
	return p.decimal(field, mantissa+"e"+strings.TrimSpace(raw[6:8]))
}

// tleChecksum is the modulo 10 sum of the digits, where minus signs count as one.
func tleChecksum(line string) int {
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// FormatTLE builds a two line element set from mean elements.
func FormatTLE(name string, catalog int, epoch Epoch, el MeanElements) (*TLE, error) {
	if catalog < 0 || catalog > 99999 {
		return nil, fmt.Errorf("%w: catalog number %d", ErrInvalidTLE, catalog)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return nil, invalidOrbit("eccentricity", el.Eccentricity, "must be within [0, 1) for SGP4")
	}
	t := epoch.UTC()
	doy := 1 + t.Sub(time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)).Seconds()/SecondsPerDay
	line1 := fmt.Sprintf("1 %05dU %-8s %02d%012.8f %s %s %s 0 %4d", catalog, "", t.Year()%100, doy,
		formatNDot(el.NDot), formatExp(el.NDDot), formatExp(el.BStar), 999)
	ecc := int(math.Round(el.Eccentricity * 1e7))
	if ecc > 9999999 {
		ecc = 9999999
	}
	line2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d", catalog,
		Rad2deg(el.Inclination), Rad2deg(el.RAAN), ecc, Rad2deg(el.ArgPerigee), Rad2deg(el.MeanAnomaly), el.MeanMotion, 0)
	line1 += strconv.Itoa(tleChecksum(line1))
	line2 += strconv.Itoa(tleChecksum(line2))
	return ParseTLE(name, line1, line2)
}

func formatNDot(x float64) string {
	s := ' '
	if x < 0 {
		s = '-'
	}
	m := int(math.Round(math.Abs(x) * 1e8))
	if m > 99999999 {
		m = 99999999
	}
	return fmt.Sprintf("%c.%08d", s, m)
}

func formatExp(x float64) string {
	if x == 0 {
		return " 00000-0"
	}
	s := ' '
	if x < 0 {
		s = '-'
	}
	e := int(math.Floor(math.Log10(math.Abs(x)))) + 1
	m := int(math.Round(math.Abs(x) / math.Pow(10, float64(e)) * 1e5))
	if m >= 100000 {
		m /= 10
		e++
	}
	if e < -9 {
		return " 00000-0"
	}
	if e > 9 {
		e, m = 9, 99999
	}
	es := '+'
	if e <= 0 {
		es = '-'
	}
	return fmt.Sprintf("%c%05d%c%d", s, m, es, int(math.Abs(float64(e))))
}

func (t *TLE) orbitalState() {}

// Observer implements the OrbitalState interface.
func (t *TLE) Observer() *CelestialBody { return Earth }

// Epoch implements the OrbitalState interface.
func (t *TLE) Epoch() Epoch { return t.epoch }

// Frame implements the OrbitalState interface.
func (t *TLE) Frame() Frame { return TEME }

// IsCircular implements the OrbitalState interface using the mean eccentricity.
func (t *TLE) IsCircular() bool { return isCircular(t.Mean.Eccentricity) }

// IsElliptical implements the OrbitalState interface.
func (t *TLE) IsElliptical() bool { return isElliptical(t.Mean.Eccentricity) }

// IsParabolic implements the OrbitalState interface.
func (t *TLE) IsParabolic() bool { return isParabolic(t.Mean.Eccentricity) }

// IsHyperbolic implements the OrbitalState interface.
func (t *TLE) IsHyperbolic() bool { return isHyperbolic(t.Mean.Eccentricity) }

// ToStateVector returns the osculating SGP4 state at the TLE epoch.
func (t *TLE) ToStateVector() (*StateVector, error) {
	return t.stateAt(t.epoch)
}

// ToKeplerianElements returns the osculating elements at the TLE epoch.
func (t *TLE) ToKeplerianElements() (*KeplerianElements, error) {
	sv, err := t.ToStateVector()
	if err != nil {
		return nil, err
	}
	return sv.ToKeplerianElements()
}

// ToEquinoctial returns the osculating equinoctial elements at the TLE epoch.
func (t *TLE) ToEquinoctial() (*EquinoctialElements, error) {
	sv, err := t.ToStateVector()
	if err != nil {
		return nil, err
	}
	return sv.ToEquinoctial()
}

// AtEpoch runs SGP4 and returns a *StateVector.
func (t *TLE) AtEpoch(epoch Epoch) (OrbitalState, error) {
	return t.stateAt(epoch)
}

// stateAt propagates with SGP4 to the whole second and finishes the fraction with a two body Taylor step.
func (t *TLE) stateAt(epoch Epoch) (*StateVector, error) {
	utc := epoch.UTC()
	whole := utc.Truncate(time.Second)
	frac := utc.Sub(whole).Seconds()
	pos, vel := satellite.Propagate(t.sat, whole.Year(), int(whole.Month()), whole.Day(), whole.Hour(), whole.Minute(), whole.Second())
	r := r3.Scale(1e3, r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z})
	v := r3.Scale(1e3, r3.Vec{X: vel.X, Y: vel.Y, Z: vel.Z})
	if !finite(r) || !finite(v) || r3.Norm(r) < 0.9*Earth.Radius {
		return nil, fmt.Errorf("%w: sgp4 propagation of %d failed at %s", ErrInvalidTLE, t.CatalogNumber, epoch)
	}
	if frac > 0 {
		rN := r3.Norm(r)
		a := r3.Scale(-Earth.GM/(rN*rN*rN), r)
		r = r3.Add(r, r3.Add(r3.Scale(frac, v), r3.Scale(frac*frac/2, a)))
		v = r3.Add(v, r3.Scale(frac, a))
	}
	return NewStateVector(r, v, epoch, Earth, TEME)
}

// String returns the three line representation.
func (t *TLE) String() string {
	return t.Name + "\n" + t.Line1 + "\n" + t.Line2
}

// TLEFitOptions configures FitTLE.
type TLEFitOptions struct {
	Name          string
	CatalogNumber int
	BStar         float64
	MaxIterations int
	// Tolerance is the position error in meters under which the fit has converged.
	Tolerance float64
}

// DefaultTLEFitOptions returns the defaults. The tolerance accounts for the four decimal
// degree precision of the TLE angles.
func DefaultTLEFitOptions() TLEFitOptions {
	return TLEFitOptions{Name: "FIT", CatalogNumber: 99999, MaxIterations: DefaultMaxIterations, Tolerance: 100}
}

// FitTLE finds the mean elements whose SGP4 state at the epoch of sv is sv.
// Fixed point iteration on (a, e cos ϖ, e sin ϖ, i, Ω, λ) corrected by the osculating residuals.
func FitTLE(sv *StateVector, opts TLEFitOptions) (*TLE, error) {
	if !sv.observer.Equals(Earth) {
		return nil, invalidOrbit("observer", float64(sv.observer.NaifID), "TLEs are Earth centered")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTLEFitOptions().Tolerance
	}
	target := sv
	if sv.frame != TEME && sv.frame != ICRF {
		o, err := StandardFrames{}.TransformFrame(sv.frame, TEME, sv.epoch)
		if err != nil {
			return nil, err
		}
		r, v := o.TransformState(sv.position, sv.velocity)
		if target, err = NewStateVector(r, v, sv.epoch, Earth, TEME); err != nil {
			return nil, err
		}
	}
	targetKep, err := target.ToKeplerianElements()
	if err != nil {
		return nil, err
	}
	xT, err := nonSingular(targetKep)
	if err != nil {
		return nil, err
	}
	x := xT
	var last float64
	for iter := 0; iter < opts.MaxIterations; iter++ {
		tle, err := FormatTLE(opts.Name, opts.CatalogNumber, sv.epoch, x.meanElements(opts.BStar))
		if err != nil {
			return nil, err
		}
		st, err := tle.stateAt(sv.epoch)
		if err != nil {
			return nil, err
		}
		last = r3.Norm(r3.Sub(st.position, target.position))
		if last < opts.Tolerance {
			return tle, nil
		}
		kep, err := st.ToKeplerianElements()
		if err != nil {
			return nil, err
		}
		xS, err := nonSingular(kep)
		if err != nil {
			return nil, err
		}
		x = x.correct(xT, xS)
	}
	return nil, &ConvergenceError{Solver: "TLE fit", Iterations: opts.MaxIterations, Last: last}
}

// nonSingularElements are (a, e cos ϖ, e sin ϖ, i, Ω, λ) with ϖ = ω + Ω and λ = M + ϖ.
type nonSingularElements struct {
	a, ex, ey, i, Ω, λ float64
}

func nonSingular(k *KeplerianElements) (nonSingularElements, error) {
	if k.Shape() != Elliptical {
		return nonSingularElements{}, invalidOrbit("eccentricity", k.e, "TLEs describe closed orbits")
	}
	ϖ := k.ω + k.Ω
	sϖ, cϖ := math.Sincos(ϖ)
	return nonSingularElements{a: k.a, ex: k.e * cϖ, ey: k.e * sϖ, i: k.i, Ω: k.Ω, λ: k.M + ϖ}, nil
}

func (x nonSingularElements) correct(target, sgp4 nonSingularElements) nonSingularElements {
	x.a += target.a - sgp4.a
	x.ex += target.ex - sgp4.ex
	x.ey += target.ey - sgp4.ey
	x.i = math.Max(0, math.Min(math.Pi, x.i+target.i-sgp4.i))
	x.Ω += wrapπ(target.Ω - sgp4.Ω)
	x.λ += wrapπ(target.λ - sgp4.λ)
	return x
}

func (x nonSingularElements) meanElements(bstar float64) MeanElements {
	e := math.Min(math.Hypot(x.ex, x.ey), 0.99)
	ϖ := math.Atan2(x.ey, x.ex)
	n := math.Sqrt(Earth.GM/(x.a*x.a*x.a)) * SecondsPerDay / twoπ
	return MeanElements{
		Inclination:  x.i,
		RAAN:         wrap2π(x.Ω),
		Eccentricity: e,
		ArgPerigee:   wrap2π(ϖ - x.Ω),
		MeanAnomaly:  wrap2π(x.λ - ϖ),
		MeanMotion:   n,
		BStar:        bstar,
	}
}
