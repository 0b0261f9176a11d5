package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/dfba/internal/dynamo"
)

type Summary struct {
	Model      string
	Integrator string
	Result     *dynamo.Result
}

func statusStyle(s dynamo.Status) lipgloss.Style {
	switch s {
	case dynamo.StatusCompleted:
		return StatusOK
	case dynamo.StatusTerminated:
		return StatusStopped
	default:
		return StatusFailed
	}
}

func row(label, value string) string {
	return MetricLabel.Render(label) + " " + MetricValue.Render(value)
}

// Render draws the run report inside a rounded panel.
func (s Summary) Render(width int) string {
	r := s.Result
	lines := []string{
		Title.Render("dFBA run") + "  " + Subtle.Render(s.Model+" / "+s.Integrator),
		"",
		MetricLabel.Render("status") + " " + statusStyle(r.Status).Render(r.Status.String()),
		row("steps", fmt.Sprintf("%d accepted, %d rejected", r.StepsTaken, r.Rejected)),
		row("rhs evaluations", fmt.Sprintf("%d", r.Evaluations)),
	}

	if n := len(r.Times); n > 0 {
		lines = append(lines, row("time span", fmt.Sprintf("%.4g .. %.4g h", r.Times[0], r.Times[n-1])))
	}
	for _, ev := range r.Events {
		lines = append(lines, row("event", fmt.Sprintf("%s at t=%.4f h", ev.Name, ev.Time)))
	}

	if len(r.Metrics) > 0 {
		lines = append(lines, "", Separator(width-4))
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, row(name, fmt.Sprintf("%.6g", r.Metrics[name])))
		}
	}

	if len(r.States) > 1 {
		spark := max(width-24, 8)
		lines = append(lines, "",
			MetricLabel.Render("biomass")+" "+Sparkline(r.Series(0), spark, BiomassText),
			MetricLabel.Render("glucose")+" "+Sparkline(r.Series(1), spark, GlucoseText))
	}

	for _, err := range r.Errors {
		lines = append(lines, StatusFailed.Render(err.Error()))
	}

	return Panel.Width(width).Render(strings.Join(lines, "\n"))
}
