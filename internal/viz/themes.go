package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output and plots.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Biomass lipgloss.Color
	Glucose lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeClassic = Theme{
		Name:    "classic",
		Primary: lipgloss.Color("#00ccff"),
		Biomass: lipgloss.Color("#1f77b4"),
		Glucose: lipgloss.Color("#ff7f0e"),
		Muted:   lipgloss.Color("#888899"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Biomass: lipgloss.Color("#0088ff"),
		Glucose: lipgloss.Color("#cccccc"),
		Muted:   lipgloss.Color("#888888"),
		Success: lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Biomass: lipgloss.Color("#88ff88"),
		Glucose: lipgloss.Color("#00cc00"),
		Muted:   lipgloss.Color("#005500"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	}

	CurrentTheme = ThemeClassic

	Themes = []Theme{
		ThemeClassic,
		ThemeMinimal,
		ThemeRetroGreen,
	}
)

func GetTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// SetTheme changes the current theme and restyles the shared styles.
func SetTheme(name string) error {
	t, ok := GetTheme(name)
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(ThemeNames(), ", "))
	}
	CurrentTheme = t
	applyTheme(CurrentTheme)
	return nil
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
