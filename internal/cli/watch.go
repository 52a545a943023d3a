package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/realtime"
	"retroquest-cli/internal/state"

	"github.com/spf13/cobra"
)

type columnCount struct {
	Title    string `json:"title"`
	Active   int    `json:"active"`
	Resolved int    `json:"resolved"`
}

type watchLine struct {
	Type    string                      `json:"type"`
	Action  string                      `json:"action"`
	ID      int64                       `json:"id,omitempty"`
	Columns map[model.Topic]columnCount `json:"columns"`
}

func newWatchCmd(app *App) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream the team's board changes as JSON lines",
		Long: `Stream the team's board changes as JSON lines.

The first line is the loaded board ("type": "loaded"); every pushed change
follows with the column counts after it was applied. Runs until interrupted
or until --duration elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			board := state.NewStore()
			loaded, err := loadBoard(ctx, client)
			if err != nil {
				return writeErr(cmd, err)
			}
			board.Dispatch(loaded)
			if err := writeOut(cmd, app, summarize(board.Snapshot(), "loaded", "", 0)); err != nil {
				return err
			}

			url, err := client.SocketURL()
			if err != nil {
				return writeErr(cmd, err)
			}
			sub := realtime.New(url, client.AuthHeader())
			sub.Logger = slog.Default()
			events := make(chan realtime.Event, 16)
			done := make(chan error, 1)
			go func() { done <- sub.Run(ctx, events) }()
			stopAndDrain := func() {
				cancel()
				for range events {
				}
			}

			for ev := range events {
				action, ok := state.FromEvent(ev)
				if !ok {
					continue
				}
				board.Dispatch(action)
				if err := writeOut(cmd, app, summarize(board.Snapshot(), string(ev.Kind), string(ev.Action), eventID(ev))); err != nil {
					stopAndDrain()
					return err
				}
			}
			if err := <-done; err != nil && !errors.Is(err, realtime.ErrStopped) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = until interrupted)")

	return cmd
}

func summarize(st state.State, typ, action string, id int64) watchLine {
	line := watchLine{Type: typ, Action: action, ID: id, Columns: map[model.Topic]columnCount{}}
	for _, t := range model.BoardTopics {
		active, resolved := st.Counts(t)
		line.Columns[t] = columnCount{Title: st.ColumnTitle(t), Active: active, Resolved: resolved}
	}
	return line
}

func eventID(ev realtime.Event) int64 {
	switch {
	case ev.Thought != nil:
		return ev.Thought.ID
	case ev.ActionItem != nil:
		return ev.ActionItem.ID
	case ev.Column != nil:
		return ev.Column.ID
	}
	return 0
}

func loadBoard(ctx context.Context, client *api.Client) (state.Loaded, error) {
	name, err := client.TeamName(ctx)
	if err != nil {
		return state.Loaded{}, err
	}
	thoughts, err := client.Thoughts(ctx)
	if err != nil {
		return state.Loaded{}, err
	}
	items, err := client.ActionItems(ctx, false)
	if err != nil {
		return state.Loaded{}, err
	}
	cols, err := client.Columns(ctx)
	if err != nil {
		return state.Loaded{}, err
	}
	return state.Loaded{TeamName: name, Thoughts: thoughts, ActionItems: items, Columns: cols}, nil
}
