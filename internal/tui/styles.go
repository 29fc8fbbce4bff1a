// Package tui provides the Bubble Tea trainer interfaces.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	missedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	typedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)
