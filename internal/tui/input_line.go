package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine renders a single-line text input as one visual row of width w.
func renderInputLine(w int, inputView string) string {
	if w < 4 {
		w = 4
	}
	// A newline in the view would wrap and look like typed line breaks.
	inputView = strings.NewReplacer("\n", " ", "\r", " ").Replace(inputView)

	line := lipgloss.PlaceHorizontal(
		w,
		lipgloss.Left,
		inputView,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > w {
		// Terminate styling so the cut line does not bleed.
		line = xansi.Cut(line, 0, w) + "\x1b[0m"
	}
	return line
}
