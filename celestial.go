package traj

import (
	"fmt"
	"strings"

	"github.com/soniakeys/meeus/v3/globe"
)

const (
	// AU is one astronomical unit in meters.
	AU = 1.495978707e11
	// SolarLuminosity is the nominal solar luminosity in Watts.
	SolarLuminosity = 3.828e26
	// SpeedOfLight in m/s.
	SpeedOfLight = 299792458.0
)

// CelestialBody defines a celestial body. Two bodies are the same if they share a NAIF ID.
// Note: Geopotential may be nil, and FixedFrame is zero for bodies without a body fixed frame.
type CelestialBody struct {
	Name         string
	NaifID       int
	GM           float64 // m^3/s^2
	Radius       float64 // Equatorial radius in m
	Flattening   float64
	RotationRate float64 // rad/s
	FixedFrame   Frame
	Geopotential Geopotential
}

// String implements the Stringer interface.
func (c *CelestialBody) String() string {
	if c == nil {
		return "<nil body>"
	}
	return c.Name
}

// Equals returns whether the provided celestial body is the same.
func (c *CelestialBody) Equals(b *CelestialBody) bool {
	if c == nil || b == nil {
		return c == b
	}
	return c.NaifID == b.NaifID
}

// Ellipsoid returns the reference ellipsoid of this body, in meters.
func (c *CelestialBody) Ellipsoid() globe.Ellipsoid {
	return globe.Ellipsoid{Er: c.Radius, Fl: c.Flattening}
}

// CelestialBodyFromString returns the object from its name
func CelestialBodyFromString(name string) (*CelestialBody, error) {
	switch strings.ToLower(name) {
	case "ssb", "solar system barycenter":
		return SSB, nil
	case "sun":
		return Sun, nil
	case "mercury":
		return Mercury, nil
	case "venus":
		return Venus, nil
	case "earth":
		return Earth, nil
	case "moon", "luna":
		return Moon, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	case "saturn":
		return Saturn, nil
	case "uranus":
		return Uranus, nil
	case "neptune":
		return Neptune, nil
	case "pluto":
		return Pluto, nil
	default:
		return nil, fmt.Errorf("%w: undefined body '%s'", ErrUnknownBody, name)
	}
}

/* Definitions */

// SSB is the solar system barycenter.
var SSB = &CelestialBody{Name: "SSB", NaifID: 0, GM: 1.32712440018e20}

// Sun is our closest star.
var Sun = &CelestialBody{Name: "Sun", NaifID: 10, GM: 1.32712440018e20, Radius: 695700e3}

// Mercury is hot.
var Mercury = &CelestialBody{Name: "Mercury", NaifID: 199, GM: 2.2031868551e13, Radius: 2440.53e3}

// Venus is poisonous.
var Venus = &CelestialBody{Name: "Venus", NaifID: 299, GM: 3.24858592e14, Radius: 6051.8e3,
	Geopotential: &ZonalHarmonics{J2: 0.000027}}

// Earth is home.
var Earth = &CelestialBody{Name: "Earth", NaifID: 399, GM: 3.986004418e14, Radius: 6378136.3,
	Flattening: 1 / 298.257223563, RotationRate: EarthRotationRate, FixedFrame: IAUEarth,
	Geopotential: &ZonalHarmonics{J2: 1082.6269e-6, J3: -2.5324e-6, J4: -1.6204e-6}}

// Moon is where Apollo went.
var Moon = &CelestialBody{Name: "Moon", NaifID: 301, GM: 4.902800066e12, Radius: 1738.1e3,
	Flattening: 0.0012, RotationRate: 2.6617e-6}

// Mars is the vacation place.
var Mars = &CelestialBody{Name: "Mars", NaifID: 499, GM: 4.282837e13, Radius: 3396.19e3,
	Flattening: 0.00589, RotationRate: 7.088218e-5,
	Geopotential: &ZonalHarmonics{J2: 1964e-6, J3: 36e-6, J4: -18e-6}}

// Jupiter is big.
var Jupiter = &CelestialBody{Name: "Jupiter", NaifID: 599, GM: 1.26686534e17, Radius: 71492e3,
	Flattening: 0.06487, RotationRate: 1.75853e-4,
	Geopotential: &ZonalHarmonics{J2: 0.01475, J4: -0.00058}}

// Saturn floats and that's really cool.
var Saturn = &CelestialBody{Name: "Saturn", NaifID: 699, GM: 3.7931187e16, Radius: 60268e3,
	Flattening: 0.09796, RotationRate: 1.63785e-4,
	Geopotential: &ZonalHarmonics{J2: 0.01645, J4: -0.001}}

// Uranus is no joke.
var Uranus = &CelestialBody{Name: "Uranus", NaifID: 799, GM: 5.793939e15, Radius: 25559e3,
	Flattening: 0.0229, Geopotential: &ZonalHarmonics{J2: 0.012}}

// Neptune is far.
var Neptune = &CelestialBody{Name: "Neptune", NaifID: 899, GM: 6.836529e15, Radius: 24764e3,
	Flattening: 0.0171}

// Pluto is not a planet and had that down ranking coming. It should have stayed in its lane.
var Pluto = &CelestialBody{Name: "Pluto", NaifID: 999, GM: 8.71e11, Radius: 1188.3e3}
