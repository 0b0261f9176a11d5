package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/experiment"
	"github.com/san-kum/dfba/internal/storage"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (glucose_limited when empty) and
// applies the config fields given under set.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Set    yaml.Node `yaml:"set"`
	Save   bool      `yaml:"save"`
}

// Config resolves the step into a validated run config.
func (s *ScenarioStep) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "glucose_limited"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}
	if !s.Set.IsZero() {
		if err := s.Set.Decode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
}

// RunScenario executes the steps in order. Steps marked save are written to
// store when it is non-nil. It stops at the first failing step and returns
// the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		logrus.Infof("scenario %s: running %s (%d/%d)", scenario.Name, name, i+1, len(scenario.Steps))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}

		exp := experiment.New(cfg, registry)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %s setup: %w", name, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %s run: %w", name, err)
		}

		sr := StepResult{Name: name, Result: result}
		if step.Save && store != nil {
			sr.RunID, err = store.Save(storage.NewRunMetadata(exp.Model().ID, cfg), result)
			if err != nil {
				return results, fmt.Errorf("step %s save: %w", name, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}
