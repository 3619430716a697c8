package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

func promptTheme() tui.Theme {
	return tui.Theme{
		InfoPrefix:  successStyle.Render(tui.DefaultTheme.InfoPrefix),
		ErrorPrefix: errorStyle.Render(tui.DefaultTheme.ErrorPrefix),
	}
}
