package dynamo

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	events     []Event
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		events:     make([]Event, 0),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddEvent(e Event)       { s.events = append(s.events, e) }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// counting wraps a System and tallies right-hand-side evaluations.
type counting struct {
	System
	n int
}

func (c *counting) Derive(x State, t float64) (State, error) {
	c.n++
	return c.System.Derive(x, t)
}

// Run integrates from x0 over [cfg.T0, cfg.T0+cfg.Duration]. On failure the
// partial result is returned together with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.dyn.StateDim() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}

	dyn := &counting{System: s.dyn}
	result := &Result{
		States:  make([]State, 0, len(cfg.TEval)+1),
		Times:   make([]float64, 0, len(cfg.TEval)+1),
		Metrics: make(map[string]float64),
		Events:  make([]EventRecord, 0),
		Errors:  make([]error, 0),
	}
	defer func() {
		result.Evaluations = dyn.n
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}()

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := cfg.T0
	tEnd := cfg.T0 + cfg.Duration
	dt := cfg.Dt
	if cfg.MaxDt > 0 {
		dt = math.Min(dt, cfg.MaxDt)
	}

	out := newSampler(cfg.TEval)
	out.start(result, t, x)
	s.observe(x, t)

	gPrev := make([]float64, len(s.events))
	for i, e := range s.events {
		g, err := e.Func(x, t)
		if err != nil {
			return s.fail(result, 0, t, x, fmt.Errorf("event %s: %w", e.Name, err))
		}
		gPrev[i] = g
	}

	step := 0
	for tEnd-t > 1e-12*math.Max(1, math.Abs(tEnd)) {
		select {
		case <-ctx.Done():
			return s.fail(result, step, t, x, ctx.Err())
		default:
		}

		if t+dt > tEnd {
			dt = tEnd - t
		}

		var newX State
		taken := dt
		dtNext := dt

		if cfg.Adaptive {
			res, err := s.adaptiveStep(dyn, x, t, dt, cfg)
			if err != nil {
				return s.fail(result, step, t, x, err)
			}
			if res.ErrNorm > 1 {
				result.Rejected++
				dt = res.DtNext
				if dt < cfg.MinDt {
					logrus.Warnf("step size %.3e fell below minimum at t=%.6f", dt, t)
					return s.fail(result, step, t, x, ErrStepTooSmall)
				}
				continue
			}
			newX = res.X
			dtNext = res.DtNext
			if cfg.MaxDt > 0 {
				dtNext = math.Min(dtNext, cfg.MaxDt)
			}
		} else {
			var err error
			newX, err = s.integrator.Step(dyn, x, t, dt)
			if err != nil {
				return s.fail(result, step, t, x, err)
			}
		}

		if cfg.ValidateState && !newX.IsValid() {
			return s.fail(result, step, t, x, ErrInvalidState)
		}

		tNew := t + taken

		if len(s.events) > 0 {
			gNew := make([]float64, len(s.events))
			for i, e := range s.events {
				g, err := e.Func(newX, tNew)
				if err != nil {
					return s.fail(result, step, tNew, newX, fmt.Errorf("event %s: %w", e.Name, err))
				}
				gNew[i] = g
			}

			hits, err := s.locateEvents(dyn, x, t, taken, gPrev, gNew, cfg.EventTol)
			if err != nil {
				return s.fail(result, step, t, x, err)
			}
			for _, hit := range hits {
				result.Events = append(result.Events, hit.record)
				logrus.Infof("event %s at t=%.6f", hit.record.Name, hit.record.Time)
				if hit.terminal {
					out.finish(result, t, x, hit.record.Time, hit.record.State)
					result.StepsTaken++
					result.Status = StatusTerminated
					s.observe(hit.record.State, hit.record.Time)
					return result, nil
				}
			}
			gPrev = gNew
		}

		out.advance(result, t, x, tNew, newX)
		s.observe(newX, tNew)

		x = newX
		t = tNew
		dt = dtNext
		step++
		result.StepsTaken++
	}

	out.flush(result, t, x)
	result.Status = StatusCompleted
	return result, nil
}

func (s *Simulator) observe(x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) fail(result *Result, step int, t float64, x State, err error) (*Result, error) {
	simErr := &SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
	result.Errors = append(result.Errors, simErr)
	result.Status = StatusFailed
	return result, simErr
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && (cfg.Tolerance.Rel <= 0 && cfg.Tolerance.Abs <= 0) {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	if len(s.events) > 0 && cfg.EventTol <= 0 {
		return fmt.Errorf("%w: event tolerance must be positive", ErrInvalidConfig)
	}
	if !sort.Float64sAreSorted(cfg.TEval) {
		return fmt.Errorf("%w: output times must be sorted", ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) adaptiveStep(dyn System, x State, t, dt float64, cfg Config) (StepResult, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(dyn, x, t, dt, cfg.Tolerance)
	}

	// Step doubling: compare one full step against two half steps.
	x1, err := s.integrator.Step(dyn, x, t, dt)
	if err != nil {
		return StepResult{}, err
	}
	xHalf, err := s.integrator.Step(dyn, x, t, dt/2)
	if err != nil {
		return StepResult{}, err
	}
	x2, err := s.integrator.Step(dyn, xHalf, t+dt/2, dt/2)
	if err != nil {
		return StepResult{}, err
	}

	errNorm := WeightedRMS(x1.Sub(x2), x, x2, cfg.Tolerance)
	dtNext := dt
	switch {
	case errNorm > 1:
		dtNext = dt / 2
	case errNorm < 0.1:
		dtNext = dt * 2
	}
	return StepResult{X: x2, DtNext: dtNext, ErrNorm: errNorm}, nil
}

// WeightedRMS is the root-mean-square of e scaled component-wise by
// tol.Abs + tol.Rel*max(|a|, |b|).
func WeightedRMS(e, a, b State, tol Tolerance) float64 {
	if len(e) == 0 {
		return 0
	}
	sum := 0.0
	for i := range e {
		scale := tol.Abs + tol.Rel*math.Max(math.Abs(a[i]), math.Abs(b[i]))
		if scale == 0 {
			scale = 1e-300
		}
		r := e[i] / scale
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(e)))
}

type eventHit struct {
	record   EventRecord
	terminal bool
}

func crossed(gPrev, gNew float64, direction int) bool {
	up := gPrev < 0 && gNew >= 0
	down := gPrev > 0 && gNew <= 0
	switch {
	case direction > 0:
		return up
	case direction < 0:
		return down
	default:
		return up || down
	}
}

// locateEvents bisects the step length for every event that changed sign
// over [t, t+dt] and returns the crossings ordered by time, cut after the
// first terminal one.
func (s *Simulator) locateEvents(dyn System, x State, t, dt float64, gPrev, gNew []float64, tol float64) ([]eventHit, error) {
	hits := make([]eventHit, 0)
	for i, e := range s.events {
		if !crossed(gPrev[i], gNew[i], e.Direction) {
			continue
		}

		lo, hi := 0.0, dt
		var xHi State
		for hi-lo > tol {
			mid := 0.5 * (lo + hi)
			xMid, err := s.integrator.Step(dyn, x, t, mid)
			if err != nil {
				return nil, err
			}
			g, err := e.Func(xMid, t+mid)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", e.Name, err)
			}
			if crossed(gPrev[i], g, e.Direction) {
				hi = mid
				xHi = xMid
			} else {
				lo = mid
			}
		}
		if xHi == nil {
			var err error
			xHi, err = s.integrator.Step(dyn, x, t, hi)
			if err != nil {
				return nil, err
			}
		}

		hits = append(hits, eventHit{
			record:   EventRecord{Name: e.Name, Time: t + hi, State: xHi},
			terminal: e.Terminal,
		})
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].record.Time < hits[b].record.Time })
	for i, h := range hits {
		if h.terminal {
			return hits[:i+1], nil
		}
	}
	return hits, nil
}

// sampler records output points, either at fixed times or at every
// accepted step.
type sampler struct {
	times []float64
	next  int
}

func newSampler(times []float64) *sampler {
	return &sampler{times: times}
}

func (o *sampler) dense() bool { return len(o.times) == 0 }

func (o *sampler) start(r *Result, t float64, x State) {
	if o.dense() {
		r.Times = append(r.Times, t)
		r.States = append(r.States, x.Clone())
		return
	}
	for o.next < len(o.times) && o.times[o.next] <= t {
		r.Times = append(r.Times, o.times[o.next])
		r.States = append(r.States, x.Clone())
		o.next++
	}
}

// advance emits samples inside (t0, t1], interpolated linearly.
func (o *sampler) advance(r *Result, t0 float64, x0 State, t1 float64, x1 State) {
	if o.dense() {
		r.Times = append(r.Times, t1)
		r.States = append(r.States, x1.Clone())
		return
	}
	for o.next < len(o.times) && o.times[o.next] <= t1 {
		te := o.times[o.next]
		w := 0.0
		if t1 > t0 {
			w = (te - t0) / (t1 - t0)
		}
		r.Times = append(r.Times, te)
		r.States = append(r.States, x0.Lerp(x1, w))
		o.next++
	}
}

// finish stops the output at a terminal event. Dense output ends on the
// event point; fixed output times keep only those at or before the event,
// and the event point itself lives in Result.Events.
func (o *sampler) finish(r *Result, t0 float64, x0 State, tEvent float64, xEvent State) {
	if !o.dense() {
		o.advance(r, t0, x0, tEvent, xEvent)
		return
	}
	r.Times = append(r.Times, tEvent)
	r.States = append(r.States, xEvent.Clone())
}

// flush emits output times that rounding left just past the final step.
func (o *sampler) flush(r *Result, t float64, x State) {
	for o.next < len(o.times) && o.times[o.next] <= t+1e-9*math.Max(1, math.Abs(t)) {
		r.Times = append(r.Times, o.times[o.next])
		r.States = append(r.States, x.Clone())
		o.next++
	}
}
