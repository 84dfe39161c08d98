package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

var (
	cPurple     = lipgloss.Color("99")
	cCyan       = lipgloss.Color("39")
	cNeonGreen  = lipgloss.Color("118")
	cOrange     = lipgloss.Color("208")
	cGold       = lipgloss.Color("220")
	cBrightGray = lipgloss.Color("246")
	cWhite      = lipgloss.Color("255")

	styleTitle = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cPurple).
			Bold(true).
			Padding(0, 1)

	styleQuestion = lipgloss.NewStyle().Foreground(cWhite).Bold(true)
	styleWarning  = lipgloss.NewStyle().Foreground(cOrange)
	styleHint     = lipgloss.NewStyle().Foreground(cBrightGray)
	styleKey      = lipgloss.NewStyle().Foreground(cGold).Bold(true)
	styleAccepted = lipgloss.NewStyle().Foreground(cNeonGreen)
	styleDeclined = lipgloss.NewStyle().Foreground(cBrightGray)
	styleStage    = lipgloss.NewStyle().Foreground(cCyan)
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// PlainOutput strips colors from everything rendered by this package. Call
// it when output does not go to a terminal.
func PlainOutput() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ConfigureOutput picks the color profile for w: the detected terminal
// profile for terminals, plain text otherwise.
func ConfigureOutput(w io.Writer, interactive bool) {
	if !interactive {
		PlainOutput()
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}

// StageLine renders a progress line such as "Downloading Git-2.42.0-64-bit.exe".
func StageLine(text string) string {
	return styleStage.Render(text)
}

// RenderReleaseNotes renders a markdown release body for a terminal of the
// given width. Format "plain" skips markdown rendering.
func RenderReleaseNotes(body string, width int, format string) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return buildMarkdownRenderer(format, width)(body)
}

func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" || style == "dark" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
