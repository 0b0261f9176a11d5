package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dynamo"
)

// Columns names the state components of a dFBA run.
var Columns = []string{"biomass", "glucose"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string               `json:"id"`
	Model       string               `json:"model"`
	Timestamp   time.Time            `json:"timestamp"`
	Integrator  string               `json:"integrator"`
	T0          float64              `json:"t0"`
	Duration    float64              `json:"duration"`
	RTol        float64              `json:"rtol"`
	ATol        float64              `json:"atol"`
	Adaptive    bool                 `json:"adaptive"`
	Dt          float64              `json:"dt"`
	MaxDt       float64              `json:"max_dt"`
	Samples     int                  `json:"samples"`
	Vmax        float64              `json:"vmax"`
	Km          float64              `json:"km"`
	Epsilon     float64              `json:"epsilon"`
	InitState   []float64            `json:"init_state"`
	Status      string               `json:"status"`
	Steps       int                  `json:"steps"`
	Rejected    int                  `json:"rejected"`
	Evaluations int                  `json:"evaluations"`
	Events      []dynamo.EventRecord `json:"events"`
	Metrics     map[string]float64   `json:"metrics"`
}

// NewRunMetadata records the settings a run was started with, enough to
// repeat it from the metadata alone.
func NewRunMetadata(model string, cfg *config.Config) RunMetadata {
	return RunMetadata{
		Model:      model,
		Integrator: cfg.Integrator,
		T0:         cfg.T0,
		Duration:   cfg.Duration,
		RTol:       cfg.RTol,
		ATol:       cfg.ATol,
		Adaptive:   cfg.Adaptive,
		Dt:         cfg.Dt,
		MaxDt:      cfg.MaxDt,
		Samples:    cfg.Samples,
		Vmax:       cfg.Kinetics.Vmax,
		Km:         cfg.Kinetics.Km,
		Epsilon:    cfg.Epsilon,
		InitState:  cfg.GetInitState(),
	}
}

// Describe fills the run statistics of meta from result.
func (meta *RunMetadata) Describe(result *dynamo.Result) {
	meta.Status = result.Status.String()
	meta.Steps = result.StepsTaken
	meta.Rejected = result.Rejected
	meta.Evaluations = result.Evaluations
	meta.Events = result.Events
	meta.Metrics = result.Metrics
}

func runID(model string, at time.Time) string {
	name := strings.TrimSuffix(filepath.Base(model), filepath.Ext(model))
	return fmt.Sprintf("%s_%d", name, at.UnixNano())
}

// Save writes metadata.json and states.csv into a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	meta.ID = runID(meta.Model, now)
	meta.Timestamp = now
	meta.Describe(result)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes time,biomass,glucose rows, one per recorded sample.
func WriteCSV(out io.Writer, result *dynamo.Result) error {
	w := csv.NewWriter(out)

	header := []string{"time"}
	if len(result.States) > 0 {
		for i := range result.States[0] {
			header = append(header, columnName(i))
		}
	} else {
		header = append(header, Columns...)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func columnName(i int) string {
	if i < len(Columns) {
		return Columns[i]
	}
	return fmt.Sprintf("x%d", i)
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses output of WriteCSV. Rows with an unparsable time are
// skipped.
func ReadCSV(in io.Reader) ([][]float64, []float64, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		state := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row at t=%g: %w", t, err)
			}
			state = append(state, val)
		}
		times = append(times, t)
		states = append(states, state)
	}

	return states, times, nil
}

// Result rebuilds a result from a stored run.
func (s *Store) Result(runID string) (*RunMetadata, *dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}

	res := &dynamo.Result{
		States:      make([]dynamo.State, len(states)),
		Times:       times,
		Metrics:     meta.Metrics,
		Events:      meta.Events,
		StepsTaken:  meta.Steps,
		Rejected:    meta.Rejected,
		Evaluations: meta.Evaluations,
	}
	for i, st := range states {
		res.States[i] = st
	}
	if status, ok := dynamo.ParseStatus(meta.Status); ok {
		res.Status = status
	}
	return meta, res, nil
}
