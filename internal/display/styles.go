package display

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

// Color palette
var (
	colorSuccess = lipgloss.Color("#00D787")
	colorError   = lipgloss.Color("#FF5F87")
	colorWarning = lipgloss.Color("#FFAF00")
	colorInfo    = lipgloss.Color("#5FAFFF")
	colorMuted   = lipgloss.Color("#888888")
	colorAccent  = lipgloss.Color("#AF87FF")
)

// Text styles
var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	styleTitle   = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
)

// terminalWidth returns the current terminal width, or a default fallback.
func terminalWidth() int {
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func boxStyle(borderColor lipgloss.Color) lipgloss.Style {
	width := terminalWidth() - 2
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(width)
}

func headerBox() lipgloss.Style  { return boxStyle(colorInfo) }
func successBox() lipgloss.Style { return boxStyle(colorSuccess) }
func errorBox() lipgloss.Style   { return boxStyle(colorError) }
func warningBox() lipgloss.Style { return boxStyle(colorWarning) }
