package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/integrators"
	"github.com/san-kum/dfba/internal/metabolic"
	"github.com/san-kum/dfba/internal/metrics"
)

type Registry struct {
	models      map[string]func() (*metabolic.Model, error)
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() (*metabolic.Model, error)),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["textbook"] = func() (*metabolic.Model, error) { return metabolic.Textbook(), nil }
	r.models["core_lite"] = func() (*metabolic.Model, error) { return metabolic.CoreLite(), nil }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// GetModel returns a fresh copy of a bundled model, or loads name as a
// model file when no bundled model has that name.
func (r *Registry) GetModel(name string) (*metabolic.Model, error) {
	if fn, ok := r.models[name]; ok {
		return fn()
	}
	m, err := metabolic.Load(name)
	if err != nil {
		return nil, fmt.Errorf("unknown model %s: %w", name, err)
	}
	return m, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return metrics.Standard()
}
