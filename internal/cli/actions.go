package cli

import (
	"strings"

	"retroquest-cli/internal/model"

	"github.com/spf13/cobra"
)

func newActionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "actions",
		Aliases: []string{"action-items", "action"},
		Short:   "Action items (the fourth column)",
	}

	cmd.AddCommand(newActionsListCmd(app))
	cmd.AddCommand(newActionsAddCmd(app))
	cmd.AddCommand(newActionsEditCmd(app))
	cmd.AddCommand(newActionsAssignCmd(app))
	cmd.AddCommand(newActionsCompleteCmd(app))
	cmd.AddCommand(newActionsArchiveCmd(app))
	cmd.AddCommand(newActionsDeleteCmd(app))

	return cmd
}

func newActionsListCmd(app *App) *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List action items (active first, then completed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := client.ActionItems(cmd.Context(), archived)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, append(actionItemListing{}, model.Partition(items)...))
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "List archived action items instead")

	return cmd
}

func newActionsAddCmd(app *App) *cobra.Command {
	var assignee string

	cmd := &cobra.Command{
		Use:   "add <task...>",
		Short: "Add an action item; @name words become the assignee",
		Example: strings.TrimSpace(`
  retroquest actions add "Increase Code Coverage @Bob"
  retroquest actions add Pair on CI @Bob @Alice
  retroquest actions add "Update the wiki" --assignee Carol
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, parsed := model.ParseActionItemInput(strings.Join(args, " "))
			task, err := requireText("task", task, model.MaxMessageLength)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(assignee) != "" {
				parsed = model.TruncateRunes(strings.TrimSpace(assignee), model.MaxAssigneeLength)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			item, err := client.CreateActionItem(cmd.Context(), task, parsed)
			if err != nil {
				return failMutation(cmd, client, err)
			}
			return writeOut(cmd, app, item)
		},
	}

	cmd.Flags().StringVar(&assignee, "assignee", "", "Assignee (overrides @name words)")

	return cmd
}

func newActionsEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <action-item-id> <task...>",
		Short: "Replace an action item's task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("action item", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			task, err := requireText("task", strings.Join(args[1:], " "), model.MaxMessageLength)
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			item, err := client.EditActionItemTask(cmd.Context(), id, task)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "action item", args[0]))
			}
			return writeOut(cmd, app, item)
		},
	}
}

func newActionsAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <action-item-id> [assignee...]",
		Short: "Set (or clear, with no name) an action item's assignee",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("action item", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if n := len([]rune(name)); n > model.MaxAssigneeLength {
				return writeErr(cmd, &model.FieldError{Field: "assignee", Message: "is too long"})
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			item, err := client.AssignActionItem(cmd.Context(), id, name)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "action item", args[0]))
			}
			return writeOut(cmd, app, item)
		},
	}
}

func newActionsCompleteCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "complete <action-item-id>",
		Short: "Mark an action item as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("action item", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			item, err := client.CompleteActionItem(cmd.Context(), id, !undo)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "action item", args[0]))
			}
			return writeOut(cmd, app, item)
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Mark as not completed")

	return cmd
}

func newActionsArchiveCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "archive <action-item-id>",
		Short: "Archive an action item (removes it from the board)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("action item", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			item, err := client.ArchiveActionItem(cmd.Context(), id, !undo)
			if err != nil {
				return failMutation(cmd, client, notFoundOr(err, "action item", args[0]))
			}
			return writeOut(cmd, app, item)
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Restore an archived action item")

	return cmd
}

func newActionsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <action-item-id>",
		Short: "Delete an action item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("action item", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			client, err := teamClient(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := client.DeleteActionItem(cmd.Context(), id); err != nil {
				return failMutation(cmd, client, notFoundOr(err, "action item", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"deleted": id})
		},
	}
}
