// Package tui is the interactive RetroQuest board.
package tui

import (
	"context"
	"log/slog"
	"time"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/state"
	"retroquest-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Client *api.Client
	// Outbox receives failed mutations; nil disables persistence.
	Outbox *store.Outbox
	// TUI holds the appearance preferences from config.json.
	TUI *store.TUIConfig
	// DownloadDir is where CSV exports are written ("" = current directory).
	DownloadDir string
	Logger      *slog.Logger
}

// Run starts the board and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	theme, glyphPref := "", ""
	if opts.TUI != nil {
		theme, glyphPref = opts.TUI.Theme, opts.TUI.Glyphs
	}
	applyColorProfilePreference(theme)
	applyThemePreference(theme)
	applyGlyphPreference(glyphPref)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSession(ctx, opts)
	s.realtime = true
	s.watchConfig = true
	defer s.stopRealtime()

	_, err := tea.NewProgram(newBoardModel(s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func newSession(ctx context.Context, opts Options) *session {
	s := &session{
		ctx:         ctx,
		client:      opts.Client,
		store:       state.NewStore(),
		outbox:      opts.Outbox,
		log:         opts.Logger,
		downloadDir: opts.DownloadDir,
		now:         time.Now,
	}
	if s.downloadDir == "" {
		s.downloadDir = "."
	}
	if team, err := store.ForTeam(opts.Client.TeamID()); err == nil {
		s.team = team
	}
	return s
}
