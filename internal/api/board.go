package api

import (
	"context"
	"fmt"
	"net/http"

	"retroquest-cli/internal/model"
)

func (c *Client) Columns(ctx context.Context) ([]model.Column, error) {
	var out []model.Column
	if err := c.call(ctx, http.MethodGet, c.teamPath("/columns"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RenameColumn(ctx context.Context, id int64, title string) (model.Column, error) {
	var out model.Column
	err := c.call(ctx, http.MethodPut, c.teamPath("/column/%d/title", id), map[string]string{"title": title}, &out)
	return out, err
}

// EndRetro archives the current retro: thoughts move into a board, completed action
// items are archived.
func (c *Client) EndRetro(ctx context.Context) error {
	return c.call(ctx, http.MethodPut, c.teamPath("/end-retro"), nil, nil)
}

// Boards pages through archived retros, newest first.
func (c *Client) Boards(ctx context.Context, pageIndex, pageSize int) ([]model.Board, error) {
	if pageSize <= 0 {
		pageSize = 30
	}
	var out []model.Board
	path := c.teamPath("/boards") + fmt.Sprintf("?pageIndex=%d&pageSize=%d", pageIndex, pageSize)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteBoard(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, c.teamPath("/board/%d", id), nil, nil)
}

// CSV downloads the server-generated export of the current board, byte for byte.
func (c *Client) CSV(ctx context.Context) ([]byte, error) {
	req, err := newRequest(http.MethodGet, c.teamPath("/csv"), nil)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, req, "text/csv")
}
