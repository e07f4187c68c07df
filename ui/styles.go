package ui

import "github.com/charmbracelet/lipgloss"

var (
	green  = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"}
	gray   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	salmon = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(green).
			Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(green)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(green).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(gray).
			BorderBottom(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	statusNoteStyle = lipgloss.NewStyle().
			Foreground(gray)

	helpStyle = lipgloss.NewStyle().
			Foreground(gray)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmon)
)
