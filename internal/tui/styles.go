// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF5F5F"
	colorMuted   = "#626262"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			MarginBottom(1)

	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	activeStyle  = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPrimary)).
			Padding(0, 2)
)
