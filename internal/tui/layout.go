package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to be exactly width columns wide (ANSI-aware) and height
// lines tall, so columns joined with lipgloss.JoinHorizontal line up.
// height <= 0 keeps the line count.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		lines[i] = fitLine(ln, width)
	}
	return strings.Join(lines, "\n")
}

// fitLine truncates with an ellipsis or pads with spaces to exactly width columns.
func fitLine(ln string, width int) string {
	// Bound the width computation on pathological lines.
	if width > 0 && len(ln) > 8192 {
		ln = xansi.Cut(ln, 0, width)
	}
	w := xansi.StringWidth(ln)
	if w > width {
		switch {
		case width <= 0:
			return ""
		case width == 1:
			ln = xansi.Cut(ln, 0, 1)
		default:
			ln = xansi.Cut(ln, 0, width-1) + "…"
		}
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// padHeight appends blank lines until s is at least height lines tall.
func padHeight(s string, height int) string {
	n := strings.Count(s, "\n") + 1
	if n >= height {
		return s
	}
	return s + strings.Repeat("\n", height-n)
}

// visualLines counts how many rows s occupies when soft-wrapped at width.
func visualLines(s string, width int) int {
	if width <= 0 {
		width = 1
	}
	n := 0
	for _, ln := range strings.Split(s, "\n") {
		w := xansi.StringWidth(ln)
		rows := (w + width - 1) / width
		if rows < 1 {
			rows = 1
		}
		n += rows
	}
	return n
}
