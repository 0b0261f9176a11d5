package config

import (
	"fmt"
	"os"

	"github.com/san-kum/dfba/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel      = "textbook"
	DefaultIntegrator = "rk45"
	DefaultBiomass    = 0.1
	DefaultGlucose    = 10.0
	DefaultDuration   = 15.0
	DefaultDt         = 0.01
	DefaultMaxDt      = 0.5
	DefaultSamples    = 100
	DefaultRTol       = 1e-6
	DefaultATol       = 1e-8
	DefaultVmax       = 10.0
	DefaultKm         = 5.0
	DefaultEpsilon    = 1e-6
)

type Config struct {
	// Model names a bundled model ("textbook" or "core_lite") or is a path
	// to a COBRA JSON or YAML model file.
	Model      string          `yaml:"model"`
	Integrator string          `yaml:"integrator"`
	Reactions  ReactionConfig  `yaml:"reactions"`
	Kinetics   KineticsConfig  `yaml:"kinetics"`
	Epsilon    float64         `yaml:"epsilon"`
	InitState  InitStateConfig `yaml:"init_state"`
	T0         float64         `yaml:"t0"`
	Duration   float64         `yaml:"duration"`
	Dt         float64         `yaml:"dt"`
	MaxDt      float64         `yaml:"max_dt"`
	Samples    int             `yaml:"samples"`
	RTol       float64         `yaml:"rtol"`
	ATol       float64         `yaml:"atol"`
	Adaptive   bool            `yaml:"adaptive"`
}

type ReactionConfig struct {
	Biomass   string `yaml:"biomass"`
	Substrate string `yaml:"substrate"`
}

type KineticsConfig struct {
	Vmax float64 `yaml:"vmax"`
	Km   float64 `yaml:"km"`
}

type InitStateConfig struct {
	Biomass float64 `yaml:"biomass"`
	Glucose float64 `yaml:"glucose"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		Reactions: ReactionConfig{
			Biomass:   "Biomass_Ecoli_core",
			Substrate: "EX_glc__D_e",
		},
		Kinetics: KineticsConfig{Vmax: DefaultVmax, Km: DefaultKm},
		Epsilon:  DefaultEpsilon,
		InitState: InitStateConfig{
			Biomass: DefaultBiomass,
			Glucose: DefaultGlucose,
		},
		Duration: DefaultDuration,
		Dt:       DefaultDt,
		MaxDt:    DefaultMaxDt,
		Samples:  DefaultSamples,
		RTol:     DefaultRTol,
		ATol:     DefaultATol,
		Adaptive: true,
	}
}

// Load reads a YAML config. Fields absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML config on top of a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("%w: model is required", dynamo.ErrInvalidConfig)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrInvalidConfig, c.Duration)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, c.Dt)
	case c.Samples < 0:
		return fmt.Errorf("%w: samples must be non-negative, got %d", dynamo.ErrInvalidConfig, c.Samples)
	case c.Adaptive && c.RTol <= 0 && c.ATol <= 0:
		return fmt.Errorf("%w: rtol or atol must be positive", dynamo.ErrInvalidConfig)
	case c.InitState.Biomass < 0 || c.InitState.Glucose < 0:
		return fmt.Errorf("%w: initial concentrations must be non-negative", dynamo.ErrInvalidConfig)
	case c.Kinetics.Km <= 0:
		return fmt.Errorf("%w: km must be positive, got %g", dynamo.ErrInvalidConfig, c.Kinetics.Km)
	}
	return nil
}

// GetInitState returns [biomass, glucose].
func (c *Config) GetInitState() []float64 {
	return []float64{c.InitState.Biomass, c.InitState.Glucose}
}

// SimConfig translates the file settings into simulator settings. Samples
// of zero records every accepted step.
func (c *Config) SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.T0 = c.T0
	cfg.Duration = c.Duration
	cfg.Dt = c.Dt
	cfg.MaxDt = c.MaxDt
	cfg.Adaptive = c.Adaptive
	cfg.Tolerance = dynamo.Tolerance{Rel: c.RTol, Abs: c.ATol}
	if c.Samples > 0 {
		cfg.TEval = dynamo.Linspace(c.T0, c.T0+c.Duration, c.Samples)
	}
	return cfg
}
