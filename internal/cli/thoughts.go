package cli

import (
	"strings"

	"retroquest-cli/internal/model"

	"github.com/spf13/cobra"
)

func newThoughtsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "thoughts",
		Aliases: []string{"thought"},
		Short:   "Thoughts in the happy, confused and unhappy columns",
	}

	cmd.AddCommand(newThoughtsListCmd(app))
	cmd.AddCommand(newThoughtsAddCmd(app))
	cmd.AddCommand(newThoughtsEditCmd(app))
	cmd.AddCommand(newThoughtsHeartCmd(app))
	cmd.AddCommand(newThoughtsDiscussCmd(app))
	cmd.AddCommand(newThoughtsDeleteCmd(app))

	return cmd
}

func newThoughtsListCmd(app *App) *cobra.Command {
	var topic string
	var byVotes bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List thoughts (active first, then discussed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var only model.Topic
			if topic != "" {
				if only, err = parseTopic(topic); err != nil {
					return writeErr(cmd, err)
				}
			}
			all, err := client.Thoughts(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			out := thoughtListing{}
			for _, t := range model.ThoughtTopics {
				if only != "" && t != only {
					continue
				}
				var col []model.Thought
				for _, th := range all {
					if th.Topic == t {
						col = append(col, th)
					}
				}
				if byVotes {
					col = model.SortByVotes(col)
				} else {
					col = model.Partition(col)
				}
				out = append(out, col...)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Only this column (happy|confused|unhappy)")
	cmd.Flags().BoolVar(&byVotes, "by-votes", false, "Order each column by hearts")

	return cmd
}

func newThoughtsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic> <message...>",
		Short: "Add a thought to a column",
		Example: strings.TrimSpace(`
  retroquest thoughts add happy "Pairing went great"
  retroquest thoughts add sad The build was red all week
`),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := parseTopic(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if topic == model.TopicAction {
				return writeErr(cmd, errActionTopic)
			}
			msg, err := requireText("message", strings.Join(args[1:], " "), model.MaxMessageLength)
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			th, err := client.CreateThought(cmd.Context(), topic, msg)
			if err != nil {
				return failMutation(cmd, client, err)
			}
			return writeOut(cmd, app, th)
		},
	}
}

func newThoughtsEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <thought-id> <message...>",
		Short: "Replace a thought's message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thought", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			msg, err := requireText("message", strings.Join(args[1:], " "), model.MaxMessageLength)
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			th, err := client.EditThought(cmd.Context(), id, msg)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "thought", args[0]))
			}
			return writeOut(cmd, app, th)
		},
	}
}

func newThoughtsHeartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "heart <thought-id>",
		Short: "Upvote a thought",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thought", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			th, err := client.HeartThought(cmd.Context(), id)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "thought", args[0]))
			}
			return writeOut(cmd, app, th)
		},
	}
}

func newThoughtsDiscussCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "discuss <thought-id>",
		Short: "Mark a thought as discussed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thought", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			th, err := client.DiscussThought(cmd.Context(), id, !undo)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "thought", args[0]))
			}
			return writeOut(cmd, app, th)
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark as not discussed")

	return cmd
}

func newThoughtsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <thought-id>",
		Short: "Delete a thought",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("thought", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := client.DeleteThought(cmd.Context(), id); err != nil {
				return failMutation(cmd, client, notFoundOr(err, "thought", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"deleted": id})
		},
	}
}
