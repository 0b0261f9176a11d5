package metrics

import (
	"math"

	"github.com/san-kum/dfba/internal/dynamo"
)

// FinalValue records the last observed value of one state component.
type FinalValue struct {
	name  string
	index int
	value float64
}

func NewFinalValue(label string, index int) *FinalValue {
	return &FinalValue{name: "final_" + label, index: index}
}

func (f *FinalValue) Name() string { return f.name }

func (f *FinalValue) Observe(x dynamo.State, t float64) {
	if f.index < len(x) {
		f.value = x[f.index]
	}
}

func (f *FinalValue) Value() float64 { return f.value }

func (f *FinalValue) Reset() { f.value = 0 }

type Peak struct {
	name  string
	index int
	peak  float64
	seen  bool
}

func NewPeak(label string, index int) *Peak {
	return &Peak{name: "peak_" + label, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	if !p.seen || x[p.index] > p.peak {
		p.peak = x[p.index]
		p.seen = true
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() {
	p.peak = 0
	p.seen = false
}

// GrowthRate is the largest specific growth rate d(ln X)/dt seen between
// consecutive observations of the biomass component.
type GrowthRate struct {
	name  string
	index int
	prevX float64
	prevT float64
	seen  bool
	max   float64
}

func NewGrowthRate(index int) *GrowthRate {
	return &GrowthRate{name: "max_growth_rate", index: index}
}

func (g *GrowthRate) Name() string { return g.name }

func (g *GrowthRate) Observe(x dynamo.State, t float64) {
	if g.index >= len(x) {
		return
	}
	v := x[g.index]
	if g.seen && t > g.prevT && v > 0 && g.prevX > 0 {
		mu := (math.Log(v) - math.Log(g.prevX)) / (t - g.prevT)
		if mu > g.max {
			g.max = mu
		}
	}
	g.prevX, g.prevT, g.seen = v, t, true
}

func (g *GrowthRate) Value() float64 { return g.max }

func (g *GrowthRate) Reset() {
	g.prevX, g.prevT, g.seen = 0, 0, false
	g.max = 0
}

// Yield is product formed per substrate consumed over the run, e.g. gDW
// biomass per mmol glucose.
type Yield struct {
	name        string
	product     int
	substrate   int
	first, last dynamo.State
}

func NewYield(product, substrate int) *Yield {
	return &Yield{name: "yield", product: product, substrate: substrate}
}

func (y *Yield) Name() string { return y.name }

func (y *Yield) Observe(x dynamo.State, t float64) {
	if y.first == nil {
		y.first = x.Clone()
	}
	y.last = x.Clone()
}

func (y *Yield) Value() float64 {
	if y.first == nil {
		return 0
	}
	consumed := y.first[y.substrate] - y.last[y.substrate]
	if consumed <= 0 {
		return 0
	}
	return (y.last[y.product] - y.first[y.product]) / consumed
}

func (y *Yield) Reset() {
	y.first, y.last = nil, nil
}

// Standard returns the metrics recorded for a [biomass, substrate] run.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewFinalValue("biomass", 0),
		NewFinalValue("glucose", 1),
		NewPeak("biomass", 0),
		NewGrowthRate(0),
		NewYield(0, 1),
		NewNonNegative(1e-6),
	}
}
