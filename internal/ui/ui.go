// Package ui holds the terminal styles shared by the tds commands.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "39"})
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "245", Dark: "240"})
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// Enabled reports whether styled output makes sense for stdout.
// Piped output and dumb terminals get plain text.
func Enabled() bool {
	return termenv.DefaultOutput().Profile != termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if !Enabled() {
		return s
	}
	return style.Render(s)
}

// RenderPass styles s as a success marker.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn styles s as a warning marker.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail styles s as a failure marker.
func RenderFail(s string) string { return render(failStyle, s) }

// RenderAccent styles s as an informational highlight.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderDim styles s as secondary detail.
func RenderDim(s string) string { return render(dimStyle, s) }

// RenderBold styles s in bold.
func RenderBold(s string) string { return render(boldStyle, s) }
