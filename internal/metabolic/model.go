package metabolic

import (
	"fmt"
	"math"
	"sort"
)

// DefaultBound replaces infinite or missing flux bounds, following the
// COBRA convention.
const DefaultBound = 1000.0

type Metabolite struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Compartment string `yaml:"compartment,omitempty" json:"compartment,omitempty"`
	Formula     string `yaml:"formula,omitempty" json:"formula,omitempty"`
}

type Reaction struct {
	ID                   string             `yaml:"id" json:"id"`
	Name                 string             `yaml:"name,omitempty" json:"name,omitempty"`
	Metabolites          map[string]float64 `yaml:"metabolites" json:"metabolites"`
	LowerBound           float64            `yaml:"lower_bound" json:"lower_bound"`
	UpperBound           float64            `yaml:"upper_bound" json:"upper_bound"`
	ObjectiveCoefficient float64            `yaml:"objective_coefficient,omitempty" json:"objective_coefficient,omitempty"`
	Subsystem            string             `yaml:"subsystem,omitempty" json:"subsystem,omitempty"`
}

// Bounds is a closed flux interval.
type Bounds struct {
	Lower float64
	Upper float64
}

type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	if s == Minimize {
		return "min"
	}
	return "max"
}

// Objective selects one reaction flux to optimize.
type Objective struct {
	Reaction string
	Sense    Sense
}

type Model struct {
	ID          string
	Metabolites []Metabolite
	Reactions   []Reaction

	rxnIndex map[string]int
	metIndex map[string]int
}

// NewModel validates and indexes a network. Infinite bounds are replaced by
// ±DefaultBound.
func NewModel(id string, mets []Metabolite, rxns []Reaction) (*Model, error) {
	m := &Model{
		ID:          id,
		Metabolites: mets,
		Reactions:   rxns,
		rxnIndex:    make(map[string]int, len(rxns)),
		metIndex:    make(map[string]int, len(mets)),
	}

	for i, met := range mets {
		if met.ID == "" {
			return nil, fmt.Errorf("%w: metabolite %d has no id", ErrInvalidModel, i)
		}
		if _, dup := m.metIndex[met.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate metabolite %s", ErrInvalidModel, met.ID)
		}
		m.metIndex[met.ID] = i
	}

	for i := range m.Reactions {
		r := &m.Reactions[i]
		if r.ID == "" {
			return nil, fmt.Errorf("%w: reaction %d has no id", ErrInvalidModel, i)
		}
		if _, dup := m.rxnIndex[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate reaction %s", ErrInvalidModel, r.ID)
		}
		for met := range r.Metabolites {
			if _, ok := m.metIndex[met]; !ok {
				return nil, fmt.Errorf("%w: reaction %s uses unknown metabolite %s", ErrInvalidModel, r.ID, met)
			}
		}
		r.LowerBound = clampBound(r.LowerBound)
		r.UpperBound = clampBound(r.UpperBound)
		if r.LowerBound > r.UpperBound {
			return nil, fmt.Errorf("%w: reaction %s [%g, %g]", ErrInvalidBounds, r.ID, r.LowerBound, r.UpperBound)
		}
		m.rxnIndex[r.ID] = i
	}

	return m, nil
}

func clampBound(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return DefaultBound
	case math.IsInf(v, -1):
		return -DefaultBound
	default:
		return v
	}
}

// Clone returns a deep copy that shares no mutable state with m.
func (m *Model) Clone() *Model {
	c := &Model{
		ID:          m.ID,
		Metabolites: append([]Metabolite(nil), m.Metabolites...),
		Reactions:   make([]Reaction, len(m.Reactions)),
		rxnIndex:    make(map[string]int, len(m.rxnIndex)),
		metIndex:    make(map[string]int, len(m.metIndex)),
	}
	for i, r := range m.Reactions {
		r.Metabolites = make(map[string]float64, len(m.Reactions[i].Metabolites))
		for k, v := range m.Reactions[i].Metabolites {
			r.Metabolites[k] = v
		}
		c.Reactions[i] = r
	}
	for k, v := range m.rxnIndex {
		c.rxnIndex[k] = v
	}
	for k, v := range m.metIndex {
		c.metIndex[k] = v
	}
	return c
}

func (m *Model) Reaction(id string) (*Reaction, error) {
	i, ok := m.rxnIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReaction, id)
	}
	return &m.Reactions[i], nil
}

func (m *Model) HasReaction(id string) bool {
	_, ok := m.rxnIndex[id]
	return ok
}

func (m *Model) SetBounds(id string, lower, upper float64) error {
	r, err := m.Reaction(id)
	if err != nil {
		return err
	}
	lower, upper = clampBound(lower), clampBound(upper)
	if lower > upper {
		return fmt.Errorf("%w: reaction %s [%g, %g]", ErrInvalidBounds, id, lower, upper)
	}
	r.LowerBound = lower
	r.UpperBound = upper
	return nil
}

// WithBounds applies the overrides, runs fn, and restores the previous
// bounds whether or not fn succeeds.
func (m *Model) WithBounds(overrides map[string]Bounds, fn func() error) error {
	saved := make(map[string]Bounds, len(overrides))
	defer func() {
		for id, b := range saved {
			r := &m.Reactions[m.rxnIndex[id]]
			r.LowerBound, r.UpperBound = b.Lower, b.Upper
		}
	}()

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r, err := m.Reaction(id)
		if err != nil {
			return err
		}
		saved[id] = Bounds{Lower: r.LowerBound, Upper: r.UpperBound}
		b := overrides[id]
		if err := m.SetBounds(id, b.Lower, b.Upper); err != nil {
			return err
		}
	}

	return fn()
}

// ObjectiveReactions lists reactions with a non-zero objective coefficient.
func (m *Model) ObjectiveReactions() []string {
	ids := make([]string, 0, 1)
	for _, r := range m.Reactions {
		if r.ObjectiveCoefficient != 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Stoichiometry returns the dense metabolite-by-reaction matrix.
func (m *Model) Stoichiometry() [][]float64 {
	s := make([][]float64, len(m.Metabolites))
	for i := range s {
		s[i] = make([]float64, len(m.Reactions))
	}
	for j, r := range m.Reactions {
		for met, coef := range r.Metabolites {
			s[m.metIndex[met]][j] = coef
		}
	}
	return s
}

// Exchanges lists reactions that touch exactly one metabolite, the boundary
// reactions of the network.
func (m *Model) Exchanges() []string {
	ids := make([]string, 0)
	for _, r := range m.Reactions {
		if len(r.Metabolites) == 1 {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
