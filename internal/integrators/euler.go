package integrators

import "github.com/san-kum/dfba/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	dx, err := dyn.Derive(x, t)
	if err != nil {
		return nil, err
	}
	return x.Add(dx.Scale(dt)), nil
}
