package integrators

import (
	"math"

	"github.com/san-kum/dfba/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one fifth-order step of length dt without error control. It
// skips the seventh stage, which only feeds the error estimate.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	st, err := r.stages(dyn, x, t, dt)
	if err != nil {
		return nil, err
	}
	return st.xNew, nil
}

// dpStages holds the first six Dormand-Prince slopes and the fifth-order
// solution built from them.
type dpStages struct {
	k1, k3, k4, k5, k6 dynamo.State
	xNew               dynamo.State
}

func (r *RK45) stages(dyn dynamo.System, x dynamo.State, t, dt float64) (*dpStages, error) {
	n := len(x)

	k1, err := dyn.Derive(x, t)
	if err != nil {
		return nil, err
	}

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := dyn.Derive(x2, t+a2*dt)
	if err != nil {
		return nil, err
	}

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3, err := dyn.Derive(x3, t+a3*dt)
	if err != nil {
		return nil, err
	}

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := dyn.Derive(x4, t+a4*dt)
	if err != nil {
		return nil, err
	}

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := dyn.Derive(x5, t+a5*dt)
	if err != nil {
		return nil, err
	}

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := dyn.Derive(x6, t+dt)
	if err != nil {
		return nil, err
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	return &dpStages{k1: k1, k3: k3, k4: k4, k5: k5, k6: k6, xNew: xNew}, nil
}

func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt float64, tol dynamo.Tolerance) (dynamo.StepResult, error) {
	n := len(x)

	st, err := r.stages(dyn, x, t, dt)
	if err != nil {
		return dynamo.StepResult{}, err
	}
	xNew := st.xNew

	k7, err := dyn.Derive(xNew, t+dt)
	if err != nil {
		return dynamo.StepResult{}, err
	}

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * (dc1*st.k1[i] + dc3*st.k3[i] + dc4*st.k4[i] + dc5*st.k5[i] + dc6*st.k6[i] + dc7*k7[i])
	}
	errNorm := dynamo.WeightedRMS(errEst, x, xNew, tol)

	var dtNew float64
	switch {
	case errNorm > 1:
		scale := math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.25))
		dtNew = dt * scale
	case errNorm > 0:
		scale := math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
		dtNew = dt * scale
	default:
		dtNew = dt * r.maxScale
	}

	return dynamo.StepResult{X: xNew, DtNext: dtNew, ErrNorm: errNorm}, nil
}
