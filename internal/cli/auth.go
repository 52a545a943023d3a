package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/store"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(app *App) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <team name>",
		Short: "Log in to a team and store the token in config.json",
		Example: strings.TrimSpace(`
  retroquest login "Team Awesome" --server https://retroquest.example.com
  RETROQUEST_PASSWORD=secret retroquest login "Team Awesome"
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := model.ValidateTeamName(name); err != nil {
				return writeErr(cmd, err)
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			server := strings.TrimSpace(app.Server)
			if server == "" {
				server = cfg.Server
			}
			if server == "" {
				return writeErr(cmd, errors.New("no server configured; pass --server <url>"))
			}

			if password == "" {
				password = os.Getenv("RETROQUEST_PASSWORD")
			}
			if password == "" {
				password, err = readPassword(cmd, name)
				if err != nil {
					return writeErr(cmd, err)
				}
			}

			teamID := model.TeamID(name)
			client := api.New(server, teamID, "")
			token, err := client.Login(cmd.Context(), name, password)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := store.UpdateConfig(func(c *store.Config) {
				c.Server = client.BaseURL
				c.Team = teamID
				c.Token = token
			}); err != nil {
				return writeErr(cmd, err)
			}

			out := map[string]any{"server": client.BaseURL, "team": teamID}
			if info, err := api.InspectToken(token); err == nil && !info.ExpiresAt.IsZero() {
				out["expiresAt"] = info.ExpiresAt.UTC().Format(time.RFC3339)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Team password (default: $RETROQUEST_PASSWORD, else prompt)")

	return cmd
}

// readPassword prompts without echo on a terminal; otherwise it reads one line of stdin.
func readPassword(cmd *cobra.Command, team string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", team)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token (server and team are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.ClearToken(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"loggedOut": true})
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured server, team, login state and pending outbox entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			server, team := resolveTarget(app, cfg)
			token := tokenFor(cfg, team)

			out := map[string]any{
				"server":   server,
				"team":     team,
				"loggedIn": false,
			}
			if token != "" {
				if info, err := api.InspectToken(token); err == nil && !info.ExpiresAt.IsZero() {
					out["expiresAt"] = info.ExpiresAt.UTC().Format(time.RFC3339)
				}
				out["loggedIn"] = !api.TokenExpired(token, time.Now())
			}

			if team != "" {
				if ob, err := store.OpenDefaultOutbox(cmd.Context()); err == nil {
					pending, lerr := ob.List(cmd.Context(), team)
					_ = ob.Close()
					if lerr == nil {
						out["pendingMutations"] = len(pending)
					}
				}
			}

			if server != "" && team != "" && out["loggedIn"] == true {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				defer cancel()
				name, err := newClient(server, team, token).TeamName(ctx)
				if err != nil {
					out["reachable"] = false
					out["error"] = err.Error()
				} else {
					out["reachable"] = true
					out["teamName"] = name
				}
			}
			return writeOut(cmd, app, out)
		},
	}
}
