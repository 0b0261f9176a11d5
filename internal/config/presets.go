package config

import "sort"

var Presets = map[string]*Config{
	"glucose_limited": DefaultConfig(),
	"high_glucose": with(func(c *Config) {
		c.InitState.Glucose = 20
		c.Duration = 20
	}),
	"low_inoculum": with(func(c *Config) {
		c.InitState.Biomass = 0.01
		c.Duration = 30
	}),
	"core_lite": with(func(c *Config) {
		c.Model = "core_lite"
		c.Reactions.Biomass = "BIOMASS_lumped"
	}),
	"fixed_step": with(func(c *Config) {
		c.Integrator = "rk4"
		c.Adaptive = false
		c.Dt = 0.005
	}),
}

func with(fn func(*Config)) *Config {
	c := DefaultConfig()
	fn(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
