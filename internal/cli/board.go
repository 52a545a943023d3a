package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newColumnsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Board columns and their titles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cols, err := client.Columns(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, append(columnListing{}, cols...))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <topic|column-id> <title...>",
		Short: "Change a column's title",
		Example: strings.TrimSpace(`
  retroquest columns rename happy "Yay!"
`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, err := requireText("title", strings.Join(args[1:], " "), model.MaxColumnTitleLength)
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cols, err := client.Columns(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			col, ok := findColumn(cols, args[0])
			if !ok {
				return writeErr(cmd, errNotFound("column", args[0]))
			}
			out, err := client.RenameColumn(cmd.Context(), col.ID, title)
			if err != nil {
				return failMutation(cmd, client, err)
			}
			return writeOut(cmd, app, out)
		},
	})

	return cmd
}

// findColumn matches a topic name (happy, sad, ...) or a numeric column id.
func findColumn(cols []model.Column, ref string) (model.Column, bool) {
	if topic, ok := model.ParseTopic(ref); ok {
		for _, c := range cols {
			if c.Topic == topic {
				return c, true
			}
		}
		return model.Column{}, false
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64); err == nil {
		for _, c := range cols {
			if c.ID == id {
				return c, true
			}
		}
	}
	return model.Column{}, false
}

func newRetroCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retro",
		Short: "Retro lifecycle",
	}

	var yes bool
	end := &cobra.Command{
		Use:   "end",
		Short: "End the retro: archive thoughts into a board and archive completed action items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("ending the retro archives every thought; pass --yes to confirm"))
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := client.EndRetro(cmd.Context()); err != nil {
				return failMutation(cmd, client, err)
			}
			return writeOut(cmd, app, map[string]any{"ended": true})
		},
	}
	end.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm ending the retro")
	cmd.AddCommand(end)

	return cmd
}

func newArchivesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "archives",
		Aliases: []string{"boards"},
		Short:   "Archived retros",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived retros, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			boards, err := client.Boards(cmd.Context(), page, size)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, append(boardListing{}, boards...))
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Page index (0-based)")
	list.Flags().IntVar(&size, "size", 30, "Page size")
	cmd.AddCommand(list)

	var markdown bool
	show := &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show an archived retro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("board", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := findBoard(cmd.Context(), client, id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if markdown {
				_, err := fmt.Fprint(cmd.OutOrStdout(), tui.RenderMarkdown(boardMarkdown(b), 80))
				return err
			}
			return writeOut(cmd, app, b)
		},
	}
	show.Flags().BoolVar(&markdown, "markdown", false, "Render for the terminal instead of JSON")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <board-id>",
		Short: "Delete an archived retro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("board", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := client.DeleteBoard(cmd.Context(), id); err != nil {
				return failMutation(cmd, client, notFoundOr(err, "board", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"deleted": id})
		},
	})

	return cmd
}

const boardPageSize = 100

// findBoard pages through the archive until it finds id.
func findBoard(ctx context.Context, client *api.Client, id int64) (model.Board, error) {
	for i := 0; ; i++ {
		boards, err := client.Boards(ctx, i, boardPageSize)
		if err != nil {
			return model.Board{}, err
		}
		for _, b := range boards {
			if b.ID == id {
				return b, nil
			}
		}
		if len(boards) < boardPageSize {
			return model.Board{}, errNotFound("board", strconv.FormatInt(id, 10))
		}
	}
}

// boardMarkdown lays out an archived retro by column, discussed thoughts struck through.
func boardMarkdown(b model.Board) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Retro %s\n", b.DateCreated)
	for _, topic := range model.ThoughtTopics {
		var col []model.Thought
		for _, th := range b.Thoughts {
			if th.Topic == topic {
				col = append(col, th)
			}
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", topic.DefaultTitle())
		if len(col) == 0 {
			sb.WriteString("_No thoughts._\n")
			continue
		}
		for _, th := range model.SortByVotes(col) {
			msg := th.Message
			if th.Discussed {
				msg = "~~" + msg + "~~"
			}
			fmt.Fprintf(&sb, "- %s (%d ♥)\n", msg, th.Hearts)
		}
	}
	return sb.String()
}
