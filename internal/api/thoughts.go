package api

import (
	"context"
	"net/http"

	"retroquest-cli/internal/model"
)

func (c *Client) Thoughts(ctx context.Context) ([]model.Thought, error) {
	var out []model.Thought
	if err := c.call(ctx, http.MethodGet, c.teamPath("/thoughts"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateThought(ctx context.Context, topic model.Topic, message string) (model.Thought, error) {
	var out model.Thought
	err := c.call(ctx, http.MethodPost, c.teamPath("/thought"), map[string]any{
		"message":   message,
		"topic":     topic,
		"hearts":    0,
		"discussed": false,
	}, &out)
	return out, err
}

func (c *Client) HeartThought(ctx context.Context, id int64) (model.Thought, error) {
	var out model.Thought
	err := c.call(ctx, http.MethodPut, c.teamPath("/thought/%d/heart", id), nil, &out)
	return out, err
}

func (c *Client) DiscussThought(ctx context.Context, id int64, discussed bool) (model.Thought, error) {
	var out model.Thought
	err := c.call(ctx, http.MethodPut, c.teamPath("/thought/%d/discuss", id), map[string]bool{"discussed": discussed}, &out)
	return out, err
}

func (c *Client) EditThought(ctx context.Context, id int64, message string) (model.Thought, error) {
	var out model.Thought
	err := c.call(ctx, http.MethodPut, c.teamPath("/thought/%d/message", id), map[string]string{"message": message}, &out)
	return out, err
}

func (c *Client) DeleteThought(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, c.teamPath("/thought/%d", id), nil, nil)
}
