package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title       lipgloss.Style
	Subtle      lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	BiomassText lipgloss.Style
	GlucoseText lipgloss.Style

	StatusOK      lipgloss.Style
	StatusStopped lipgloss.Style
	StatusFailed  lipgloss.Style

	KeyHint lipgloss.Style
)

func init() {
	applyTheme(CurrentTheme)
}

func applyTheme(t Theme) {
	Title = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	MetricLabel = lipgloss.NewStyle().Foreground(t.Muted).Width(18)
	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	BiomassText = lipgloss.NewStyle().Foreground(t.Biomass)
	GlucoseText = lipgloss.NewStyle().Foreground(t.Glucose)
	StatusOK = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	StatusStopped = lipgloss.NewStyle().Bold(true).Foreground(t.Warning)
	StatusFailed = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	KeyHint = lipgloss.NewStyle().Foreground(t.Muted).Italic(true)
}

// AnimatedSpinner returns one frame of a braille spinner.
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return MetricValue.Render(strings.Repeat("█", filled)) + Subtle.Render(strings.Repeat("░", width-filled))
}

// Sparkline renders values as a row of block characters in the given
// style, sampling down to width. The first and last values are always drawn.
func Sparkline(values []float64, width int, style lipgloss.Style) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	n := min(width, len(values))
	last := len(values) - 1

	var sb strings.Builder
	for i := 0; i < n; i++ {
		src := last
		if n > 1 {
			src = i * last / (n - 1)
		}
		idx := int((values[src] - lo) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteRune(chars[idx])
	}
	return style.Render(sb.String())
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
