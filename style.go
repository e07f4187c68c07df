package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const wrapAt = 78

var (
	keyword = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"}).
		Render

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}).
		Render

	heading = lipgloss.NewStyle().Bold(true).Render
)

// paragraph wraps and indents long-form help and status text.
func paragraph(s string) string {
	return indent.String(wordwrap.String(s, wrapAt-2), 2)
}
