package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Lerp returns the point a fraction w of the way from s to other.
func (s State) Lerp(other State, w float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + w*(other[i]-s[i])
	}
	return result
}

// System is an ODE right-hand side. Derive may fail, for instance when an
// embedded optimization problem cannot be solved.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) (State, error)
}

// StepResult is the outcome of one attempted adaptive step. ErrNorm is the
// weighted RMS error estimate; the step is acceptable when ErrNorm <= 1.
type StepResult struct {
	X       State
	DtNext  float64
	ErrNorm float64
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (StepResult, error)
}

type Tolerance struct {
	Rel float64
	Abs float64
}

// Event is a scalar function of the state whose zero crossing the
// simulator locates. Direction restricts which crossings count: +1 only
// negative to positive, -1 only positive to negative, 0 both.
type Event struct {
	Name      string
	Func      func(x State, t float64) (float64, error)
	Direction int
	Terminal  bool
}

// EventRecord is a located event crossing.
type EventRecord struct {
	Name  string  `json:"name"`
	Time  float64 `json:"time"`
	State State   `json:"state"`
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	T0            float64
	Duration      float64
	Dt            float64
	MaxDt         float64
	MinDt         float64
	Tolerance     Tolerance
	Adaptive      bool
	ValidateState bool
	// TEval lists output times. When empty every accepted step is recorded.
	TEval []float64
	// EventTol is the time resolution used when locating event crossings.
	EventTol float64
}

func DefaultConfig() Config {
	return Config{
		Duration:      10.0,
		Dt:            0.01,
		MaxDt:         0.5,
		MinDt:         1e-10,
		Tolerance:     Tolerance{Rel: 1e-6, Abs: 1e-8},
		Adaptive:      true,
		ValidateState: true,
		EventTol:      1e-6,
	}
}

// Linspace returns n evenly spaced samples over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

type Status int

const (
	StatusCompleted Status = iota
	StatusTerminated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTerminated:
		return "terminated"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, bool) {
	for _, s := range []Status{StatusCompleted, StatusTerminated, StatusFailed} {
		if s.String() == name {
			return s, true
		}
	}
	return StatusFailed, false
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	Events      []EventRecord
	Status      Status
	StepsTaken  int
	Rejected    int
	Evaluations int
	Errors      []error
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Series extracts component i of every recorded state.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}
