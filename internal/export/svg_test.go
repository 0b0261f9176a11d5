package export

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
)

func samplePlot() Plot {
	return Plot{
		Width:  640,
		Height: 400,
		XLabel: "Time [h]",
		Times:  []float64{0, 1, 2, 3},
		Left:   Series{Label: "Biomass [gDW/L]", Color: "#1f77b4", Values: []float64{0.1, 0.2, 0.4, 0.8}},
		Right:  Series{Label: "Glucose [mmol/L]", Color: "#ff7f0e", Values: []float64{10, 9, 6, 1}},
	}
}

func TestTimeSeriesSVGWellFormed(t *testing.T) {
	svg := TimeSeriesSVG(samplePlot())

	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("invalid svg: %v", err)
		}
	}
}

func TestTimeSeriesSVGContents(t *testing.T) {
	svg := TimeSeriesSVG(samplePlot())

	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	for _, label := range []string{"Time [h]", "Biomass [gDW/L]", "Glucose [mmol/L]"} {
		if !strings.Contains(svg, label) {
			t.Errorf("missing label %q", label)
		}
	}
}

func TestTimeSeriesSVGMarkers(t *testing.T) {
	p := samplePlot()
	p.Markers = []float64{2.5, 99}

	svg := TimeSeriesSVG(p)
	if n := strings.Count(svg, "stroke-dasharray"); n != 1 {
		t.Errorf("expected 1 marker inside the range, got %d", n)
	}
}

func TestTimeSeriesSVGTooShort(t *testing.T) {
	p := samplePlot()
	p.Times = p.Times[:1]

	if svg := TimeSeriesSVG(p); svg != "" {
		t.Error("expected empty svg for a single sample")
	}
}

func TestTimeSeriesSVGFlatSeries(t *testing.T) {
	p := samplePlot()
	p.Right.Values = []float64{0, 0, 0, 0}

	svg := TimeSeriesSVG(p)
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("flat series produced non-finite coordinates")
	}
}

func TestEscape(t *testing.T) {
	if got := escape(`a<b & "c"`); got != "a&lt;b &amp; &quot;c&quot;" {
		t.Errorf("unexpected escape %q", got)
	}
}
