package api

import (
	"context"
	"net/http"
	"strconv"

	"retroquest-cli/internal/model"
)

// ActionItems lists the team's action items; archived selects the archived set instead
// of the active board.
func (c *Client) ActionItems(ctx context.Context, archived bool) ([]model.ActionItem, error) {
	var out []model.ActionItem
	path := c.teamPath("/action-item") + "?archived=" + strconv.FormatBool(archived)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateActionItem(ctx context.Context, task, assignee string) (model.ActionItem, error) {
	var out model.ActionItem
	err := c.call(ctx, http.MethodPost, c.teamPath("/action-item"), model.ActionItem{
		Task:        task,
		Assignee:    assignee,
		DateCreated: model.NewDate(c.clock()),
	}, &out)
	return out, err
}

func (c *Client) CompleteActionItem(ctx context.Context, id int64, completed bool) (model.ActionItem, error) {
	var out model.ActionItem
	err := c.call(ctx, http.MethodPut, c.teamPath("/action-item/%d/completed", id), map[string]bool{"completed": completed}, &out)
	return out, err
}

func (c *Client) EditActionItemTask(ctx context.Context, id int64, task string) (model.ActionItem, error) {
	var out model.ActionItem
	err := c.call(ctx, http.MethodPut, c.teamPath("/action-item/%d/task", id), map[string]string{"task": task}, &out)
	return out, err
}

func (c *Client) AssignActionItem(ctx context.Context, id int64, assignee string) (model.ActionItem, error) {
	var out model.ActionItem
	err := c.call(ctx, http.MethodPut, c.teamPath("/action-item/%d/assignee", id), map[string]string{"assignee": assignee}, &out)
	return out, err
}

func (c *Client) ArchiveActionItem(ctx context.Context, id int64, archived bool) (model.ActionItem, error) {
	var out model.ActionItem
	err := c.call(ctx, http.MethodPut, c.teamPath("/action-item/%d/archived", id), map[string]bool{"archived": archived}, &out)
	return out, err
}

func (c *Client) DeleteActionItem(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, c.teamPath("/action-item/%d", id), nil, nil)
}
