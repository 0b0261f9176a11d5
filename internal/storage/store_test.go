package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/dfba/internal/config"
	"github.com/san-kum/dfba/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{0.1, 10},
			{0.25, 8.3},
			{0.9, 0.2518},
		},
		Times: []float64{0, 1.5, 5.8},
		Metrics: map[string]float64{
			"yield": 0.081,
		},
		Events: []dynamo.EventRecord{
			{Name: "infeasible", Time: 5.8, State: dynamo.State{0.9, 0.2518}},
		},
		Status:     dynamo.StatusTerminated,
		StepsTaken: 42,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Model: "e_coli_core", Integrator: "rk45", RTol: 1e-6}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "e_coli_core_") {
		t.Errorf("unexpected run id %s", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Status != "terminated" {
		t.Errorf("expected status terminated, got %s", meta.Status)
	}
	if meta.Steps != 42 {
		t.Errorf("expected 42 steps, got %d", meta.Steps)
	}
	if len(meta.Events) != 1 || meta.Events[0].Time != 5.8 {
		t.Errorf("events not preserved: %+v", meta.Events)
	}
	if meta.Metrics["yield"] != 0.081 {
		t.Errorf("expected yield 0.081, got %f", meta.Metrics["yield"])
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("expected 3 samples, got %d/%d", len(states), len(times))
	}
	if states[2][1] != 0.2518 {
		t.Errorf("glucose not preserved exactly: %v", states[2][1])
	}
}

func TestRunMetadataKeepsSettings(t *testing.T) {
	st := New(t.TempDir())

	cfg := config.GetPreset("fixed_step")
	cfg.Epsilon = 1e-5
	runID, err := st.Save(NewRunMetadata("e_coli_core", cfg), sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Adaptive || meta.Dt != 0.005 || meta.MaxDt != config.DefaultMaxDt {
		t.Errorf("step settings not preserved: adaptive=%v dt=%g max_dt=%g", meta.Adaptive, meta.Dt, meta.MaxDt)
	}
	if meta.Samples != config.DefaultSamples {
		t.Errorf("expected %d samples, got %d", config.DefaultSamples, meta.Samples)
	}
	if meta.Epsilon != 1e-5 {
		t.Errorf("expected epsilon 1e-5, got %g", meta.Epsilon)
	}
	if meta.Integrator != "rk4" || meta.Km != config.DefaultKm {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestStoreResult(t *testing.T) {
	st := New(t.TempDir())

	runID, err := st.Save(RunMetadata{Model: "textbook"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, res, err := st.Result(runID)
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if res.Status != dynamo.StatusTerminated {
		t.Errorf("expected terminated status, got %s", res.Status)
	}
	if got := res.Final(); got[0] != 0.9 {
		t.Errorf("expected final biomass 0.9, got %v", got)
	}
	if len(res.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(res.Events))
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunMetadata{Model: "textbook"}, sampleResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[1].Timestamp.Before(runs[0].Timestamp) {
		t.Error("runs not ordered by time")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "time,biomass,glucose" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "0,0.1,10" {
		t.Errorf("unexpected first row %q", lines[1])
	}
}

func TestReadCSVBadValue(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("time,biomass,glucose\n0,abc,1\n"))
	if err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, RunMetadata{Model: "textbook"}, sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Model != "textbook" || data.Status != "terminated" {
		t.Errorf("unexpected metadata %+v", data.RunMetadata)
	}
	if len(data.States) != 3 || len(data.Columns) != 2 {
		t.Errorf("unexpected payload sizes %d/%d", len(data.States), len(data.Columns))
	}
}

func TestExportCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := ExportCSV(path, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	states, _, err := ReadCSV(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(states) != 3 {
		t.Errorf("expected 3 rows, got %d", len(states))
	}
}
