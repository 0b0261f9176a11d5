package metabolic

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	//go:embed data/e_coli_core.json
	textbookJSON []byte

	//go:embed data/core_lite.yaml
	coreLiteYAML []byte
)

// TextbookBiomass and the other identifiers name reactions of the bundled
// E. coli core model. The exchange and maintenance ids are shared with the
// lumped network; its biomass reaction is LiteBiomass.
const (
	TextbookBiomass     = "Biomass_Ecoli_core"
	TextbookGlucose     = "EX_glc__D_e"
	TextbookOxygen      = "EX_o2_e"
	TextbookMaintenance = "ATPM"

	LiteBiomass = "BIOMASS_lumped"
)

// document mirrors the COBRA JSON layout. JSON is a subset of YAML, so one
// decoder reads both BiGG exports and hand-written YAML models.
type document struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Metabolites []Metabolite  `yaml:"metabolites"`
	Reactions   []rawReaction `yaml:"reactions"`
}

// rawReaction keeps bounds optional so that omitted ones can default to
// the COBRA range.
type rawReaction struct {
	ID                   string             `yaml:"id"`
	Name                 string             `yaml:"name"`
	Metabolites          map[string]float64 `yaml:"metabolites"`
	LowerBound           *float64           `yaml:"lower_bound"`
	UpperBound           *float64           `yaml:"upper_bound"`
	ObjectiveCoefficient float64            `yaml:"objective_coefficient"`
	Subsystem            string             `yaml:"subsystem"`
}

func Decode(r io.Reader) (*Model, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if len(doc.Reactions) == 0 {
		return nil, fmt.Errorf("%w: no reactions", ErrInvalidModel)
	}

	rxns := make([]Reaction, len(doc.Reactions))
	for i, raw := range doc.Reactions {
		lb, ub := -DefaultBound, DefaultBound
		if raw.LowerBound != nil {
			lb = *raw.LowerBound
		}
		if raw.UpperBound != nil {
			ub = *raw.UpperBound
		}
		rxns[i] = Reaction{
			ID:                   raw.ID,
			Name:                 raw.Name,
			Metabolites:          raw.Metabolites,
			LowerBound:           lb,
			UpperBound:           ub,
			ObjectiveCoefficient: raw.ObjectiveCoefficient,
			Subsystem:            raw.Subsystem,
		}
		if rxns[i].Metabolites == nil {
			rxns[i].Metabolites = map[string]float64{}
		}
	}

	id := doc.ID
	if id == "" {
		id = doc.Name
	}
	return NewModel(id, doc.Metabolites, rxns)
}

func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Save writes the model in the YAML layout read by Decode.
func Save(path string, m *Model) error {
	doc := struct {
		ID          string       `yaml:"id"`
		Metabolites []Metabolite `yaml:"metabolites"`
		Reactions   []Reaction   `yaml:"reactions"`
	}{m.ID, m.Metabolites, m.Reactions}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Textbook returns a fresh copy of the BiGG e_coli_core model with its
// textbook bounds: glucose uptake limited to 10 mmol/gDW/h and 8.39
// mmol/gDW/h ATP maintenance.
func Textbook() *Model {
	return mustDecode(textbookJSON)
}

// CoreLite returns a fresh copy of a 15-reaction lumped aerobic glucose
// network. Its LPs are a fraction of the size of the core model's, which
// suits parameter scans.
func CoreLite() *Model {
	return mustDecode(coreLiteYAML)
}

func mustDecode(data []byte) *Model {
	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("metabolic: bundled model: %v", err))
	}
	return m
}
