package tui

import "github.com/charmbracelet/lipgloss"

// Safety-orange palette. The console belongs to a foreman, not a spa.
var (
	hardHat  = lipgloss.Color("#d97706")
	concrete = lipgloss.Color("#a8a29e")
	chalk    = lipgloss.Color("#fafaf9")
	flagRed  = lipgloss.Color("#dc2626")
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(hardHat).
			Foreground(chalk).
			Bold(true).
			Padding(0, 1)

	// All three panels share one frame; only their contents differ.
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(concrete).
			Padding(1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(hardHat).
			Padding(0, 1)

	youStyle     = lipgloss.NewStyle().Foreground(chalk).Bold(true)
	foremanStyle = lipgloss.NewStyle().Foreground(hardHat)
	eventStyle   = lipgloss.NewStyle().Foreground(concrete)
)
