package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"retroquest-cli/internal/model"
)

// Login exchanges team credentials for a token. Bad credentials come back as a
// *model.FieldError on the password field so forms can show them inline.
func (c *Client) Login(ctx context.Context, name, password string) (string, error) {
	if err := model.ValidateTeamName(name); err != nil {
		return "", err
	}
	if err := model.ValidatePassword(password); err != nil {
		return "", err
	}

	anon := &Client{
		BaseURL: c.BaseURL,
		HTTP:    c.HTTP,
		Logger:  c.Logger,
		now:     c.now,
		teamID:  c.TeamID(),
	}

	req, err := newRequest(http.MethodPost, "/api/team/login", map[string]string{
		"name":     strings.TrimSpace(name),
		"password": password,
	})
	if err != nil {
		return "", err
	}
	b, err := anon.roundTrip(ctx, req, "text/plain, application/json")
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", &model.FieldError{Field: "password", Message: "Incorrect team name or password. Please try again."}
		}
		return "", err
	}
	return decodeToken(b), nil
}

// decodeToken accepts a bare token, a JSON string, or {"token": "..."}.
func decodeToken(b []byte) string {
	s := strings.TrimSpace(string(b))
	var obj struct {
		Token string `json:"token"`
	}
	if strings.HasPrefix(s, "{") && json.Unmarshal([]byte(s), &obj) == nil {
		return strings.TrimSpace(obj.Token)
	}
	var str string
	if strings.HasPrefix(s, `"`) && json.Unmarshal([]byte(s), &str) == nil {
		return strings.TrimSpace(str)
	}
	return s
}

// TeamName returns the display name of the client's team.
func (c *Client) TeamName(ctx context.Context) (string, error) {
	req, err := newRequest(http.MethodGet, c.teamPath("/name"), nil)
	if err != nil {
		return "", err
	}
	b, err := c.roundTrip(ctx, req, "text/plain, application/json")
	if err != nil {
		return "", err
	}
	return decodeToken(b), nil
}

// SocketURL is the WebSocket endpoint for push updates.
func (c *Client) SocketURL() (string, error) {
	u, err := url.Parse(c.BaseURL + c.teamPath("/socket"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// AuthHeader returns the headers used to authenticate a request (also for the socket).
func (c *Client) AuthHeader() http.Header {
	h := http.Header{}
	if token := c.Token(); token != "" {
		h.Set("Authorization", "Bearer "+token)
		h.Set("Cookie", (&http.Cookie{Name: "token", Value: token}).String())
	}
	return h
}
