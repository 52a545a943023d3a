package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/format"
	"retroquest-cli/internal/logging"
	"retroquest-cli/internal/store"
	"retroquest-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Server     string
	Team       string
	Format     string
	PrettyJSON bool
	LogLevel   string

	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "retroquest",
		Short:        "RetroQuest retro board for the terminal (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Log in once, then open the board
  retroquest login "Team Awesome" --server https://retroquest.example.com
  retroquest

  # Scriptable commands
  retroquest thoughts add happy "Pairing went great"
  retroquest actions add "Fix the flaky build @Bob"

  # Download the board as CSV
  retroquest csv download
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		dir, err := store.ConfigDir()
		if err != nil {
			return err
		}
		closer, err := logging.Setup(dir, app.LogLevel)
		if err != nil {
			// Logging is best effort; commands still work without a log file.
			fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
			return nil
		}
		app.logCloser = closer
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			_ = app.logCloser.Close()
			app.logCloser = nil
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("RETROQUEST_SERVER", ""), "RetroQuest base URL (default: server from config.json)")
	cmd.PersistentFlags().StringVar(&app.Team, "team", envOr("RETROQUEST_TEAM", ""), "Team id, e.g. team-awesome (default: team from config.json)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("RETROQUEST_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("RETROQUEST_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newThoughtsCmd(app))
	cmd.AddCommand(newActionsCmd(app))
	cmd.AddCommand(newColumnsCmd(app))
	cmd.AddCommand(newRetroCmd(app))
	cmd.AddCommand(newArchivesCmd(app))
	cmd.AddCommand(newCSVCmd(app))
	cmd.AddCommand(newOutboxCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	server, team := resolveTarget(app, cfg)
	if server == "" || team == "" {
		return writeErr(cmd, errNotConfigured)
	}
	client := newClient(server, team, tokenFor(cfg, team))

	outbox, err := store.OpenDefaultOutbox(cmd.Context())
	if err != nil {
		// The board still runs; failures just are not persisted.
		slog.Warn("open outbox", "err", err)
		outbox = nil
	}
	if outbox != nil {
		defer outbox.Close()
	}

	return tui.Run(cmd.Context(), tui.Options{
		Client: client,
		Outbox: outbox,
		TUI:    cfg.TUI,
		Logger: slog.Default(),
	})
}

var (
	errNotConfigured = errors.New("no server or team configured; run `retroquest login <team name> --server <url>` (or pass --server and --team)")
	errNotLoggedIn   = errors.New("not logged in; run `retroquest login <team name>`")
)

// resolveTarget applies flag/env values over config.json.
func resolveTarget(app *App, cfg *store.Config) (server, team string) {
	server, team = strings.TrimSpace(app.Server), strings.TrimSpace(app.Team)
	if server == "" {
		server = cfg.Server
	}
	if team == "" {
		team = cfg.Team
	}
	return server, team
}

// tokenFor returns the stored token only when it was issued for team.
func tokenFor(cfg *store.Config, team string) string {
	if cfg.Team != "" && cfg.Team != team {
		return ""
	}
	return cfg.Token
}

func newClient(server, team, token string) *api.Client {
	c := api.New(server, team, token)
	c.Logger = slog.Default()
	c.OnUnauthorized = func() {
		if err := store.ClearToken(); err != nil {
			slog.Warn("clear token", "err", err)
		}
	}
	return c
}

// teamClient builds an authenticated client from flags and config.json.
func teamClient(app *App) (*api.Client, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	server, team := resolveTarget(app, cfg)
	if server == "" || team == "" {
		return nil, errNotConfigured
	}
	token := tokenFor(cfg, team)
	if token == "" {
		return nil, errNotLoggedIn
	}
	return newClient(server, team, token), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut prints v in the "data" envelope, or as a table for --format table.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	if app.Format == "table" {
		return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
	}
	return format.Write(cmd.OutOrStdout(), map[string]any{"data": v}, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
