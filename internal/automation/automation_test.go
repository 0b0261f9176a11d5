package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/experiment"
	"github.com/san-kum/dfba/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: inoculum
description: two inoculum sizes on little glucose
steps:
  - name: small
    preset: low_inoculum
    set:
      duration: 3
      init_state:
        glucose: 2
  - name: default
    save: true
    set:
      duration: 4
      samples: 20
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 2)

	cfg, err := sc.Steps[0].Config()
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.InitState.Glucose)
	assert.Equal(t, 0.01, cfg.InitState.Biomass)
	assert.Equal(t, 3.0, cfg.Duration)

	cfg, err = sc.Steps[1].Config()
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.InitState.Glucose)
	assert.Equal(t, 20, cfg.Samples)
}

func TestLoadScenarioEmpty(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: empty\n"))
	assert.Error(t, err)
}

func TestStepUnknownPreset(t *testing.T) {
	step := ScenarioStep{Preset: "nope"}
	_, err := step.Config()
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	store := storage.New(t.TempDir())
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "small", results[0].Name)
	assert.Empty(t, results[0].RunID)
	assert.NotEmpty(t, results[1].RunID)
	assert.Equal(t, dynamo.StatusCompleted, results[1].Result.Status)

	runs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
