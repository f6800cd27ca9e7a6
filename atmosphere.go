package traj

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// DensityField flags which fields of a DensityContext are set.
type DensityField uint8

const (
	DensityEpoch DensityField = 1 << iota
	DensityAltitude
	DensityGeodetic
)

// DensityContext is what an atmospheric model may use to compute a density.
type DensityContext struct {
	Epoch     Epoch
	Altitude  float64 // m above the reference ellipsoid
	Latitude  float64 // geodetic, rad
	Longitude float64 // rad
	Fields    DensityField
}

// Has returns whether all the provided fields are set.
func (c DensityContext) Has(f DensityField) bool {
	return c.Fields&f == f
}

// DensityModel returns the atmospheric density in kg/m^3.
// Models must return ErrMissingDensityContext when a field they need is not set.
type DensityModel interface {
	Density(ctx DensityContext) (float64, error)
}

// DensityFunc adapts a function to a DensityModel.
type DensityFunc func(ctx DensityContext) (float64, error)

// Density implements the DensityModel interface.
func (f DensityFunc) Density(ctx DensityContext) (float64, error) { return f(ctx) }

// ExponentialAtmosphere is the piecewise exponential model of the Earth atmosphere from Vallado,
// 4th ed., table 8-4. It only needs the altitude.
type ExponentialAtmosphere struct{}

type atmosphereLayer struct {
	base, ρ0, scale float64 // km, kg/m^3, km
}

var valladoLayers = []atmosphereLayer{
	{0, 1.225, 7.249},
	{25, 3.899e-2, 6.349},
	{30, 1.774e-2, 6.682},
	{40, 3.972e-3, 7.554},
	{50, 1.057e-3, 8.382},
	{60, 3.206e-4, 7.714},
	{70, 8.770e-5, 6.549},
	{80, 1.905e-5, 5.799},
	{90, 3.396e-6, 5.382},
	{100, 5.297e-7, 5.877},
	{110, 9.661e-8, 7.263},
	{120, 2.438e-8, 9.473},
	{130, 8.484e-9, 12.636},
	{140, 3.845e-9, 16.149},
	{150, 2.070e-9, 22.523},
	{180, 5.464e-10, 29.740},
	{200, 2.789e-10, 37.105},
	{250, 7.248e-11, 45.546},
	{300, 2.418e-11, 53.628},
	{350, 9.518e-12, 53.298},
	{400, 3.725e-12, 58.515},
	{450, 1.585e-12, 60.828},
	{500, 6.967e-13, 63.822},
	{600, 1.454e-13, 71.835},
	{700, 3.614e-14, 88.667},
	{800, 1.170e-14, 124.64},
	{900, 5.245e-15, 181.05},
	{1000, 3.019e-15, 268.00},
}

// Density implements the DensityModel interface.
func (ExponentialAtmosphere) Density(ctx DensityContext) (float64, error) {
	if !ctx.Has(DensityAltitude) {
		return 0, fmt.Errorf("%w: altitude", ErrMissingDensityContext)
	}
	h := ctx.Altitude / 1e3
	if h < 0 {
		h = 0
	}
	// Last layer whose base is at or below h.
	i := sort.Search(len(valladoLayers), func(i int) bool { return valladoLayers[i].base > h }) - 1
	l := valladoLayers[i]
	return l.ρ0 * math.Exp(-(h-l.base)/l.scale), nil
}

const (
	geodeticMaxIterations = 10
	geodeticε             = 1e-12
)

// geodetic returns the geodetic latitude, longitude and altitude of a body fixed position
// above the ellipsoid of the body.
func geodetic(r r3.Vec, body *CelestialBody) (lat, lon, alt float64) {
	ell := body.Ellipsoid()
	a := ell.Er
	e2 := ell.Fl * (2 - ell.Fl)
	p := math.Hypot(r.X, r.Y)
	lon = math.Atan2(r.Y, r.X)
	lat = math.Atan2(r.Z, p*(1-e2))
	var N float64
	for i := 0; i < geodeticMaxIterations; i++ {
		s := math.Sin(lat)
		N = a / math.Sqrt(1-e2*s*s)
		prev := lat
		lat = math.Atan2(r.Z+e2*N*s, p)
		if math.Abs(lat-prev) < geodeticε {
			break
		}
	}
	s, c := math.Sincos(lat)
	N = a / math.Sqrt(1-e2*s*s)
	alt = p*c + (r.Z+e2*N*s)*s - N
	return lat, lon, alt
}
