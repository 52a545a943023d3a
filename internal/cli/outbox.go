package cli

import (
	"errors"
	"log/slog"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/store"

	"github.com/spf13/cobra"
)

// retryable reports whether a failed mutation is worth keeping for `outbox retry`:
// transport failures and 5xx responses. Rejections (4xx, auth) would fail again.
func retryable(err error) (api.Request, bool) {
	req, ok := api.FailedRequest(err)
	if !ok || errors.Is(err, api.ErrUnauthorized) {
		return api.Request{}, false
	}
	var herr *api.HTTPError
	if errors.As(err, &herr) && herr.Status < 500 {
		return api.Request{}, false
	}
	return req, true
}

// failMutation reports err and, when it can be replayed, records the request in the outbox.
func failMutation(cmd *cobra.Command, client *api.Client, err error) error {
	req, ok := retryable(err)
	if !ok {
		return writeErr(cmd, err)
	}
	ob, oerr := store.OpenDefaultOutbox(cmd.Context())
	if oerr != nil {
		slog.Warn("open outbox", "err", oerr)
		return writeErr(cmd, err)
	}
	defer ob.Close()
	m, rerr := ob.Record(cmd.Context(), store.Mutation{
		TeamID:    client.TeamID(),
		Method:    req.Method,
		Path:      req.Path,
		Body:      req.Body,
		LastError: err.Error(),
	})
	if rerr != nil {
		slog.Warn("record outbox entry", "err", rerr)
		return writeErr(cmd, err)
	}
	slog.Info("mutation saved to outbox", "id", m.ID, "method", m.Method, "path", m.Path)
	return writeErr(cmd, &queuedError{err: err, id: m.ID})
}

type queuedError struct {
	err error
	id  string
}

func (e *queuedError) Error() string {
	return e.err.Error() + " (saved to outbox as " + e.id + "; run `retroquest outbox retry`)"
}

func (e *queuedError) Unwrap() error { return e.err }

func newOutboxCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Failed changes saved for a later retry",
	}

	cmd.AddCommand(newOutboxListCmd(app))
	cmd.AddCommand(newOutboxRetryCmd(app))
	cmd.AddCommand(newOutboxClearCmd(app))

	return cmd
}

// openTeamOutbox resolves the team (no login needed) and opens the default outbox.
func openTeamOutbox(cmd *cobra.Command, app *App) (*store.Outbox, string, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, "", err
	}
	_, team := resolveTarget(app, cfg)
	if team == "" {
		return nil, "", errNotConfigured
	}
	ob, err := store.OpenDefaultOutbox(cmd.Context())
	if err != nil {
		return nil, "", err
	}
	return ob, team, nil
}

func newOutboxListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved mutations for the team (oldest first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ob, team, err := openTeamOutbox(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ob.Close()
			list, err := ob.List(cmd.Context(), team)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, append(mutationListing{}, list...))
		},
	}
}

type retryResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func newOutboxRetryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [mutation-id...]",
		Short: "Replay saved mutations (all of them when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ob, err := store.OpenDefaultOutbox(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ob.Close()

			list, err := ob.List(cmd.Context(), client.TeamID())
			if err != nil {
				return writeErr(cmd, err)
			}
			byID := map[string]store.Mutation{}
			for _, m := range list {
				byID[m.ID] = m
			}
			todo := list
			if len(args) > 0 {
				todo = nil
				for _, id := range args {
					m, ok := byID[id]
					if !ok {
						return writeErr(cmd, errNotFound("outbox entry", id))
					}
					todo = append(todo, m)
				}
			}

			results := []retryResult{}
			failed := 0
			for _, m := range todo {
				err := client.Send(cmd.Context(), api.Request{Method: m.Method, Path: m.Path, Body: m.Body}, nil)
				if err != nil {
					failed++
					if errors.Is(err, api.ErrUnauthorized) {
						return writeErr(cmd, errNotLoggedIn)
					}
					if merr := ob.MarkFailed(cmd.Context(), m.ID, err.Error()); merr != nil {
						slog.Warn("mark outbox entry failed", "id", m.ID, "err", merr)
					}
					results = append(results, retryResult{ID: m.ID, Error: err.Error()})
					continue
				}
				if derr := ob.Delete(cmd.Context(), m.ID); derr != nil && !errors.Is(derr, store.ErrMutationNotFound) {
					slog.Warn("delete outbox entry", "id", m.ID, "err", derr)
				}
				results = append(results, retryResult{ID: m.ID, OK: true})
			}
			if err := writeOut(cmd, app, map[string]any{"results": results, "failed": failed}); err != nil {
				return err
			}
			if failed > 0 {
				return writeErr(cmd, errors.New("some mutations failed again; they stay in the outbox"))
			}
			return nil
		},
	}
}

func newOutboxClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every saved mutation for the team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ob, team, err := openTeamOutbox(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ob.Close()
			n, err := ob.Clear(cmd.Context(), team)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"cleared": n})
		},
	}
}
