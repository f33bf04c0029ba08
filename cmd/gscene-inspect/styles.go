package main

import "github.com/charmbracelet/lipgloss"

var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	borderCol = lipgloss.Color("#243141")
	errFg     = lipgloss.Color("#F87171")

	appStyle   = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	tabStyle   = lipgloss.NewStyle().Foreground(baseDimFg).Padding(0, 1)
	activeTab  = lipgloss.NewStyle().Foreground(accentFg).Bold(true).Underline(true).Padding(0, 1)
	dimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)
	errStyle   = lipgloss.NewStyle().Foreground(errFg)
)
