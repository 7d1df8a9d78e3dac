// Package ui provides terminal output styling for the CLI. Styling is
// disabled automatically when stdout is not a terminal.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette. A single accent color keeps the output quiet.
const (
	colorGreen    = "42"  // Success, healthy checks
	colorWhite    = "255" // Headers
	colorGray     = "245" // Labels, secondary text
	colorDarkGray = "238" // Separators
	colorRed      = "196" // Errors, failed checks
	colorYellow   = "220" // Warnings
)

// Styles holds the CLI output styles.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorWhite)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
	}
}

// NoColorStyles returns unstyled output for pipes and CI.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
	}
}

// StylesFor picks styles based on whether out is a terminal.
func StylesFor(out io.Writer) Styles {
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return DefaultStyles()
	}
	return NoColorStyles()
}
