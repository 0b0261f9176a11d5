package experiment

import (
	"context"
	"testing"

	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{"euler", "rk4", "rk45"}, r.ListIntegrators())
	assert.Equal(t, []string{"core_lite", "textbook"}, r.ListModels())

	_, err := r.GetIntegrator("verlet")
	assert.Error(t, err)

	_, err = r.GetModel("does/not/exist.json")
	assert.Error(t, err)

	a, err := r.GetModel("textbook")
	require.NoError(t, err)
	b, err := r.GetModel("textbook")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestRunNotSetup(t *testing.T) {
	_, err := New(config.DefaultConfig(), NewRegistry()).Run(context.Background())
	assert.Error(t, err)
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Duration = 0

	err := New(cfg, NewRegistry()).Setup()
	assert.ErrorIs(t, err, dynamo.ErrInvalidConfig)
}

func TestRunDefault(t *testing.T) {
	exp := New(config.DefaultConfig(), NewRegistry())
	require.NoError(t, exp.Setup())

	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dynamo.StatusTerminated, res.Status)
	require.Len(t, res.Events, 1)
	assert.InDelta(t, 0.87, res.Metrics["final_biomass"], 0.03)
	assert.Greater(t, res.Metrics["lp_solves"], 0.0)
	assert.Equal(t, 1.0, res.Metrics["nonnegative"])
	assert.InDelta(t, 0.0793, res.Metrics["yield"], 2e-3)
}

func TestRunCoreLitePreset(t *testing.T) {
	exp := New(config.GetPreset("core_lite"), NewRegistry())
	require.NoError(t, exp.Setup())

	res, err := exp.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.InDelta(t, 6.19, res.Events[0].Time, 0.05)
	assert.InDelta(t, 0.0809, res.Metrics["yield"], 2e-3)
}

func TestSweep(t *testing.T) {
	cfg := config.GetPreset("core_lite")
	cfg.Duration = 5

	exp := New(cfg, NewRegistry())
	require.NoError(t, exp.Setup())

	results, err := exp.Sweep(context.Background(), []float64{2, 5, 10}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Final()[0], results[i-1].Final()[0])
	}
}
