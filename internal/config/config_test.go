package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "textbook", cfg.Model)
	assert.Equal(t, "rk45", cfg.Integrator)
	assert.Equal(t, []float64{0.1, 10}, cfg.GetInitState())
	assert.Equal(t, 15.0, cfg.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestSimConfig(t *testing.T) {
	sc := DefaultConfig().SimConfig()

	assert.Len(t, sc.TEval, 100)
	assert.Equal(t, 0.0, sc.TEval[0])
	assert.Equal(t, 15.0, sc.TEval[99])
	assert.Equal(t, dynamo.Tolerance{Rel: 1e-6, Abs: 1e-8}, sc.Tolerance)
	assert.True(t, sc.Adaptive)
}

func TestSimConfigDenseOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Samples = 0
	assert.Empty(t, cfg.SimConfig().TEval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no model", func(c *Config) { c.Model = "" }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"negative dt", func(c *Config) { c.Dt = -1 }},
		{"negative samples", func(c *Config) { c.Samples = -1 }},
		{"no tolerance", func(c *Config) { c.RTol, c.ATol = 0, 0 }},
		{"negative glucose", func(c *Config) { c.InitState.Glucose = -1 }},
		{"zero km", func(c *Config) { c.Kinetics.Km = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidConfig)
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("init_state:\n  glucose: 4\nkinetics:\n  km: 2\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.InitState.Glucose)
	assert.Equal(t, 0.1, cfg.InitState.Biomass)
	assert.Equal(t, 2.0, cfg.Kinetics.Km)
	assert.Equal(t, 10.0, cfg.Kinetics.Vmax)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duration: [1, 2"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("fixed_step")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("high_glucose")
	require.NotNil(t, cfg)
	assert.Equal(t, 20.0, cfg.InitState.Glucose)

	cfg.InitState.Glucose = 1
	assert.Equal(t, 20.0, GetPreset("high_glucose").InitState.Glucose)
}

func TestGetPresetNotFound(t *testing.T) {
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"core_lite", "fixed_step", "glucose_limited", "high_glucose", "low_inoculum"}, ListPresets())

	for _, name := range ListPresets() {
		assert.NoError(t, GetPreset(name).Validate(), name)
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("init_state:\n  glucose: 4\n"), 0644))

	base := GetPreset("low_inoculum")
	cfg, err := LoadOver(path, base)
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.InitState.Glucose)
	assert.Equal(t, 0.01, cfg.InitState.Biomass)
	assert.Equal(t, 30.0, cfg.Duration)
	assert.Equal(t, 10.0, base.InitState.Glucose)
}
