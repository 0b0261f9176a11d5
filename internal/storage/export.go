package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/dfba/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Columns []string    `json:"columns"`
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
}

func NewExportData(meta RunMetadata, result *dynamo.Result) ExportData {
	meta.Describe(result)
	data := ExportData{
		RunMetadata: meta,
		Columns:     Columns,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	return data
}

func WriteJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, result))
}

// ExportJSON writes the run to path, or to stdout when path is "-" or
// empty.
func ExportJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	return toPath(path, func(w io.Writer) error { return WriteJSON(w, meta, result) })
}

func ExportCSV(path string, result *dynamo.Result) error {
	return toPath(path, func(w io.Writer) error { return WriteCSV(w, result) })
}

func toPath(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
