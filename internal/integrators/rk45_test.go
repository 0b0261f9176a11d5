package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dfba/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

type brokenDynamics struct{ calls int }

func (b *brokenDynamics) StateDim() int { return 1 }

func (b *brokenDynamics) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	b.calls++
	if b.calls == 3 {
		return nil, errors.New("lp failed")
	}
	return dynamo.State{0}, nil
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}

	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		var err error
		x, err = integrator.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
	if math.Abs(x[0]-math.Cos(10)) > 1e-8 {
		t.Errorf("expected %.10f, got %.10f", math.Cos(10), x[0])
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x, _ = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	finalEnergy := dyn.Energy(x)
	drift := math.Abs(finalEnergy-initialEnergy) / initialEnergy

	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	res, err := integrator.StepAdaptive(dyn, x0, 0, 0.1, dynamo.Tolerance{Rel: 1e-8, Abs: 1e-10})
	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}

	if !res.X.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}

	if res.DtNext <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", res.DtNext)
	}
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	tol := dynamo.Tolerance{Rel: 1e-10, Abs: 1e-12}

	res, err := integrator.StepAdaptive(dyn, dynamo.State{1, 0}, 0, 1.0, tol)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if res.ErrNorm <= 1 {
		t.Errorf("expected error norm above 1 for dt=1, got %e", res.ErrNorm)
	}
	if res.DtNext >= 1.0 {
		t.Errorf("expected shrinking step, got %f", res.DtNext)
	}
	if res.DtNext < 0.2 {
		t.Errorf("step shrank below min scale: %f", res.DtNext)
	}
}

func TestRK45_PropagatesDeriveError(t *testing.T) {
	dyn := &brokenDynamics{}
	_, err := NewRK45().StepAdaptive(dyn, dynamo.State{1}, 0, 0.1, dynamo.Tolerance{Rel: 1e-6, Abs: 1e-8})
	if err == nil {
		t.Fatal("expected error from third stage")
	}
	if dyn.calls != 3 {
		t.Errorf("expected stages to stop at the failure, got %d calls", dyn.calls)
	}
}

func TestRK45_WithSimulator(t *testing.T) {
	sim := dynamo.New(&harmonicOscillator{}, NewRK45())
	cfg := dynamo.DefaultConfig()
	cfg.Duration = 2 * math.Pi
	cfg.Dt = 0.1
	cfg.TEval = dynamo.Linspace(0, 2*math.Pi, 50)

	result, err := sim.Run(context.Background(), dynamo.State{1, 0}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Times) != 50 {
		t.Fatalf("expected 50 samples, got %d", len(result.Times))
	}
	final := result.Final()
	if math.Abs(final[0]-1) > 1e-4 || math.Abs(final[1]) > 1e-4 {
		t.Errorf("expected return to (1, 0), got %v", final)
	}
	if result.StepsTaken >= 1000 {
		t.Errorf("adaptive stepping took too many steps: %d", result.StepsTaken)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x4 := x0.Clone()
	x45 := x0.Clone()
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4, _ = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45, _ = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := dyn.Energy(x4)
	e45 := dyn.Energy(x45)

	if math.Abs(e45-1.0) > math.Abs(e4-1.0) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}

type countingDynamics struct {
	harmonicOscillator
	calls int
}

func (c *countingDynamics) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	c.calls++
	return c.harmonicOscillator.Derive(x, t)
}

func TestRK45_StepSkipsErrorStage(t *testing.T) {
	integrator := NewRK45()

	plain := &countingDynamics{}
	x, err := integrator.Step(plain, dynamo.State{1, 0}, 0, 0.1)
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if plain.calls != 6 {
		t.Errorf("expected 6 derivative calls for a plain step, got %d", plain.calls)
	}

	adaptive := &countingDynamics{}
	res, err := integrator.StepAdaptive(adaptive, dynamo.State{1, 0}, 0, 0.1, dynamo.Tolerance{Rel: 1e-6, Abs: 1e-8})
	if err != nil {
		t.Fatalf("adaptive step failed: %v", err)
	}
	if adaptive.calls != 7 {
		t.Errorf("expected 7 derivative calls for an adaptive step, got %d", adaptive.calls)
	}
	for i := range x {
		if x[i] != res.X[i] {
			t.Errorf("component %d: plain %v, adaptive %v", i, x[i], res.X[i])
		}
	}
}
