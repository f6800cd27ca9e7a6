package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ChristopherRabotin/traj"
)

// scenario is a propagation described in a file, e.g.
//
//	[spacecraft]
//	name = "sat"
//	dry_mass = 500.0
//	fuel_mass = 50.0
//	area = 2.0
//	cd = 2.2
//
//	[orbit]
//	center = "Earth"
//	frame = "ICRF"
//	epoch = "2025-01-01T00:00:00Z"
//	sma = 7000e3
//	ecc = 0.001
//	inc = 51.6
//	raan = 10
//	argp = 20
//	ma = 30
//
//	[propagation]
//	duration = 86400.0
//	reference = "central"
//	ephemeris = "kepler"
//
//	[forces]
//	geopotential = true
//	third_bodies = ["Moon", "Sun"]
//	drag = true
//	srp = true
//
//	[[maneuvers]]
//	offset = 3600.0
//	dv = [10.0, 0.0, 0.0]
//	thrust = 1.0
//	isp = 300.0
//
// Angles are in degrees. The orbit may instead be given as a TLE with tle_line1 and tle_line2.
type scenario struct {
	sc        *traj.Spacecraft
	window    traj.Window
	opts      traj.PropagatorOptions
	outputDir string
}

type maneuverConf struct {
	Offset float64   `mapstructure:"offset"`
	DV     []float64 `mapstructure:"dv"`
	Thrust float64   `mapstructure:"thrust"`
	Isp    float64   `mapstructure:"isp"`
}

func readScenario(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("spacecraft.name", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	v.SetDefault("spacecraft.dry_mass", 100.0)
	v.SetDefault("spacecraft.cd", 2.2)
	v.SetDefault("orbit.center", "Earth")
	v.SetDefault("orbit.frame", "ICRF")
	v.SetDefault("propagation.reference", "central")
	v.SetDefault("propagation.ephemeris", "kepler")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return v, nil
}

// initialState returns the orbit of the scenario.
func initialState(v *viper.Viper) (traj.OrbitalState, error) {
	if l1 := v.GetString("orbit.tle_line1"); l1 != "" {
		return traj.ParseTLE(v.GetString("spacecraft.name"), l1, v.GetString("orbit.tle_line2"))
	}
	center, err := traj.CelestialBodyFromString(v.GetString("orbit.center"))
	if err != nil {
		return nil, err
	}
	frame, err := traj.FrameFromString(v.GetString("orbit.frame"))
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, v.GetString("orbit.epoch"))
	if err != nil {
		return nil, fmt.Errorf("orbit.epoch: %w", err)
	}
	return traj.NewKeplerianElements(
		v.GetFloat64("orbit.sma"),
		v.GetFloat64("orbit.ecc"),
		traj.Deg2rad(v.GetFloat64("orbit.inc")),
		traj.Deg2rad(v.GetFloat64("orbit.raan")),
		traj.Deg2rad(v.GetFloat64("orbit.argp")),
		traj.Deg2rad(v.GetFloat64("orbit.ma")),
		traj.EpochFromUTC(t), center, frame)
}

func ephemerisService(name string, conf traj.Config) (traj.EphemerisService, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return nil, nil
	case "kepler":
		return traj.NewSolarSystemKeplerEphemeris()
	case "vsop87":
		if conf.VSOP87Dir == "" {
			return nil, fmt.Errorf("%w: vsop87.directory is not set", traj.ErrInvalidConfig)
		}
		return traj.NewVSOP87Ephemeris(conf.VSOP87Dir), nil
	}
	return nil, fmt.Errorf("%w: unknown ephemeris %q", traj.ErrInvalidConfig, name)
}

func loadScenario(path string, conf traj.Config) (*scenario, error) {
	v, err := readScenario(path)
	if err != nil {
		return nil, err
	}
	initial, err := initialState(v)
	if err != nil {
		return nil, err
	}
	sc, err := traj.NewSpacecraft(v.GetString("spacecraft.name"), v.GetFloat64("spacecraft.dry_mass"), v.GetFloat64("spacecraft.fuel_mass"), initial)
	if err != nil {
		return nil, err
	}
	sc.SectionalArea = v.GetFloat64("spacecraft.area")
	sc.DragCoefficient = v.GetFloat64("spacecraft.cd")
	sc.SetLogger(logger)

	start := initial.Epoch()
	window := traj.Window{Start: start, End: start.Add(v.GetFloat64("propagation.duration"))}

	opts := conf.PropagatorOptions()
	opts.Logger = logger
	if opts.Service, err = ephemerisService(v.GetString("propagation.ephemeris"), conf); err != nil {
		return nil, err
	}
	center := initial.Observer()
	switch strings.ToLower(v.GetString("propagation.reference")) {
	case "central":
		opts.Reference = traj.CentralBody
	case "barycentric":
		opts.Reference = traj.Barycentric
	default:
		return nil, fmt.Errorf("%w: unknown reference %q", traj.ErrInvalidConfig, v.GetString("propagation.reference"))
	}

	gravity := traj.NewGravity(center)
	gravity.PointMassOnly = !v.GetBool("forces.geopotential")
	opts.Forces = append(opts.Forces, gravity)
	var occulting []*traj.CelestialBody
	if opts.Reference == traj.CentralBody {
		occulting = append(occulting, center)
	}
	for _, name := range v.GetStringSlice("forces.third_bodies") {
		body, err := traj.CelestialBodyFromString(name)
		if err != nil {
			return nil, err
		}
		if opts.Reference == traj.Barycentric {
			opts.Forces = append(opts.Forces, &traj.GravitationalAcceleration{Body: body, PointMassOnly: true})
		} else {
			opts.Forces = append(opts.Forces, &traj.ThirdBodyPerturbation{Perturber: body, Central: center})
		}
		if !body.Equals(traj.Sun) {
			occulting = append(occulting, body)
		}
	}
	if v.GetBool("forces.drag") {
		opts.Forces = append(opts.Forces, &traj.AtmosphericDrag{Spacecraft: sc, Body: center, Density: traj.ExponentialAtmosphere{}})
	}
	if v.GetBool("forces.srp") {
		opts.Forces = append(opts.Forces, &traj.SolarRadiationPressure{Spacecraft: sc, Occulting: occulting})
	}

	var maneuvers []maneuverConf
	if err := v.UnmarshalKey("maneuvers", &maneuvers); err != nil {
		return nil, fmt.Errorf("maneuvers: %w", err)
	}
	for i, mc := range maneuvers {
		if len(mc.DV) != 3 {
			return nil, fmt.Errorf("%w: maneuver #%d needs a three component dv", traj.ErrInvalidConfig, i)
		}
		engine, err := traj.NewEngine(fmt.Sprintf("engine-%d", i), mc.Thrust, mc.Isp)
		if err != nil {
			return nil, err
		}
		m, err := traj.NewImpulsiveManeuver(sc, start.Add(mc.Offset), r3.Vec{X: mc.DV[0], Y: mc.DV[1], Z: mc.DV[2]}, engine)
		if err != nil {
			return nil, err
		}
		sc.Maneuvers = append(sc.Maneuvers, m)
	}
	return &scenario{sc: sc, window: window, opts: opts, outputDir: conf.OutputDir}, nil
}
