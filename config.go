package traj

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ChristopherRabotin/traj/integrator"
)

// Config holds the settings of the command line tools and the defaults of the propagator.
type Config struct {
	StepSize      float64 // s
	Integrator    string
	CacheStep     float64 // s
	CacheBuffer   int
	MaxIterations int
	VSOP87Dir     string
	OutputDir     string
	LogLevel      string
}

// DefaultConfig returns the configuration used when no file nor environment variable sets a key.
func DefaultConfig() Config {
	return Config{
		StepSize:      DefaultStepSize,
		Integrator:    "verlet",
		CacheStep:     DefaultCacheStep,
		CacheBuffer:   DefaultCacheBuffer,
		MaxIterations: DefaultTLEFitOptions().MaxIterations,
		OutputDir:     ".",
		LogLevel:      "info",
	}
}

// NewViper returns a viper instance with the defaults of the configuration, reading the
// environment variables prefixed with TRAJ_ (e.g. TRAJ_PROPAGATION_STEP).
func NewViper() *viper.Viper {
	def := DefaultConfig()
	v := viper.New()
	v.SetDefault("propagation.step", def.StepSize)
	v.SetDefault("propagation.integrator", def.Integrator)
	v.SetDefault("cache.step", def.CacheStep)
	v.SetDefault("cache.buffer", def.CacheBuffer)
	v.SetDefault("tle.max_iterations", def.MaxIterations)
	v.SetDefault("vsop87.directory", def.VSOP87Dir)
	v.SetDefault("output.directory", def.OutputDir)
	v.SetDefault("log.level", def.LogLevel)
	v.SetEnvPrefix("TRAJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads conf.{toml,yaml,json} from the directory, if any, on top of the defaults and
// environment variables. A missing file is not an error.
func LoadConfig(dir string) (Config, error) {
	v := NewViper()
	if dir != "" {
		v.SetConfigName("conf")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
			}
		}
	}
	return ConfigFromViper(v)
}

// ConfigFromViper decodes and validates the configuration.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	c := Config{
		StepSize:      v.GetFloat64("propagation.step"),
		Integrator:    v.GetString("propagation.integrator"),
		CacheStep:     v.GetFloat64("cache.step"),
		CacheBuffer:   v.GetInt("cache.buffer"),
		MaxIterations: v.GetInt("tle.max_iterations"),
		VSOP87Dir:     v.GetString("vsop87.directory"),
		OutputDir:     v.GetString("output.directory"),
		LogLevel:      v.GetString("log.level"),
	}
	return c, c.Validate()
}

// Validate returns every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if !(c.StepSize > 0) {
		errs = append(errs, fmt.Errorf("%w: propagation.step must be positive, got %g", ErrInvalidConfig, c.StepSize))
	}
	if !integrator.Known(c.Integrator) {
		errs = append(errs, fmt.Errorf("%w: unknown propagation.integrator %q", ErrInvalidConfig, c.Integrator))
	}
	if !(c.CacheStep > 0) {
		errs = append(errs, fmt.Errorf("%w: cache.step must be positive, got %g", ErrInvalidConfig, c.CacheStep))
	}
	if c.CacheBuffer < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.buffer must not be negative, got %d", ErrInvalidConfig, c.CacheBuffer))
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("%w: tle.max_iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PropagatorOptions returns the propagator options of this configuration.
func (c Config) PropagatorOptions() PropagatorOptions {
	opts := DefaultPropagatorOptions()
	opts.Step = c.StepSize
	opts.Integrator = c.Integrator
	opts.Cache = EphemerisCacheOptions{Step: c.CacheStep, Buffer: c.CacheBuffer}
	return opts
}

// TLEFitOptions returns the TLE fitting options of this configuration.
func (c Config) TLEFitOptions() TLEFitOptions {
	opts := DefaultTLEFitOptions()
	opts.MaxIterations = c.MaxIterations
	return opts
}
