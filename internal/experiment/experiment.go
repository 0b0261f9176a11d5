package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dfba"
	"github.com/san-kum/dfba/internal/dynamo"
	"github.com/san-kum/dfba/internal/metabolic"
	"github.com/sirupsen/logrus"
)

// Experiment is one configured dFBA batch simulation.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	model     *metabolic.Model
	system    *dfba.System
	simulator *dynamo.Simulator
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	return &Experiment{cfg: cfg, registry: registry}
}

func (e *Experiment) Params() dfba.Params {
	return dfba.Params{
		Biomass:   e.cfg.Reactions.Biomass,
		Substrate: e.cfg.Reactions.Substrate,
		Uptake:    dfba.Uptake{Vmax: e.cfg.Kinetics.Vmax, Km: e.cfg.Kinetics.Km},
		Epsilon:   e.cfg.Epsilon,
	}
}

// Setup loads the model and builds the simulator with the infeasibility
// event and the standard metrics attached.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	model, err := e.registry.GetModel(e.cfg.Model)
	if err != nil {
		return err
	}
	sim, sys, err := e.build(model)
	if err != nil {
		return err
	}

	e.model = model
	e.system = sys
	e.simulator = sim
	logrus.Debugf("model %s: %d metabolites, %d reactions", model.ID, len(model.Metabolites), len(model.Reactions))
	return nil
}

func (e *Experiment) build(model *metabolic.Model) (*dynamo.Simulator, *dfba.System, error) {
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}
	sys, err := dfba.New(model, e.Params())
	if err != nil {
		return nil, nil, err
	}

	sim := dynamo.New(sys, integ)
	sim.AddEvent(dfba.InfeasibilityEvent(sys))
	for _, m := range e.registry.DefaultMetrics() {
		sim.AddMetric(m)
	}
	return sim, sys, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	res, err := e.simulator.Run(ctx, dynamo.State(e.cfg.GetInitState()), e.cfg.SimConfig())
	if res != nil {
		res.Metrics["lp_solves"] = float64(e.system.LPSolves())
	}
	return res, err
}

// Sweep runs one simulation per initial glucose concentration on workers
// goroutines. Every member gets its own copy of the model.
func (e *Experiment) Sweep(ctx context.Context, glucose []float64, workers int) ([]*dynamo.Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	x0s := make([]dynamo.State, len(glucose))
	for i, g := range glucose {
		x0s[i] = dynamo.State{e.cfg.InitState.Biomass, g}
	}

	ens := dynamo.NewEnsemble(func(idx int) (*dynamo.Simulator, error) {
		sim, _, err := e.build(e.model.Clone())
		return sim, err
	}, workers)

	return ens.Run(ctx, x0s, e.cfg.SimConfig())
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Model() *metabolic.Model { return e.model }

func (e *Experiment) System() *dfba.System { return e.system }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}
