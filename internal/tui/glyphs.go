package tui

import (
	"os"
	"strings"
	"sync"
)

// Terminals can't change the user's font, so the board picks between Unicode and
// ASCII glyphs for checkboxes, hearts and rules.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference reads RETROQUEST_TUI_GLYPHS, then tui.glyphs from config.json.
func applyGlyphPreference(configured string) {
	for _, v := range []string{os.Getenv("RETROQUEST_TUI_GLYPHS"), configured} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "unicode", "utf8":
			setGlyphs(glyphSetUnicode)
			return
		case "ascii":
			setGlyphs(glyphSetASCII)
			return
		}
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphCheckbox(checked bool) string {
	if glyphs() == glyphSetASCII {
		if checked {
			return "[x]"
		}
		return "[ ]"
	}
	if checked {
		return "☑"
	}
	return "☐"
}

func glyphHeart() string {
	if glyphs() == glyphSetASCII {
		return "<3"
	}
	return "♥"
}

func glyphSortDown() string {
	if glyphs() == glyphSetASCII {
		return "v"
	}
	return "↓"
}

func glyphBullet() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
