package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	borderColor = lipgloss.Color("240")
	titleFg     = lipgloss.Color("#ffffff")
	statusFg    = lipgloss.Color("#cccccc")
	aliveFg     = lipgloss.Color("#51cf66")
	errorFg     = lipgloss.Color("#ff6b6b")
	successFg   = lipgloss.Color("#51cf66")
)

// Base styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(titleFg).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(statusFg)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorFg).
			Bold(true)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	aliveCellStyle = lipgloss.NewStyle().
			Foreground(aliveFg)

	helpStyle = lipgloss.NewStyle().
			Foreground(statusFg)
)

// runningStatus returns a styled status indicator for running state
func runningStatus(running bool) string {
	if running {
		return lipgloss.NewStyle().Foreground(successFg).Render("▶ Running")
	}
	return lipgloss.NewStyle().Foreground(statusFg).Render("⏸ Paused")
}
