package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/api/apitest"
	"retroquest-cli/internal/model"
)

func newTeamClient(t *testing.T) (*apitest.Server, *api.Client, string) {
	t.Helper()
	srv := apitest.New(t)
	teamID := srv.AddTeam("Team Awesome", "password1")
	c := api.New(srv.URL, teamID, srv.Token(teamID))
	return srv, c, teamID
}

func TestLogin_ReturnsTokenForValidCredentials(t *testing.T) {
	srv := apitest.New(t)
	teamID := srv.AddTeam("Team Awesome", "password1")

	c := api.New(srv.URL, teamID, "")
	tok, err := c.Login(context.Background(), "Team Awesome", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	info, err := api.InspectToken(tok)
	if err != nil {
		t.Fatalf("InspectToken: %v", err)
	}
	if info.Subject != teamID {
		t.Fatalf("expected subject %q, got %q", teamID, info.Subject)
	}
	if info.ExpiresAt.IsZero() {
		t.Fatalf("expected token to carry an expiry")
	}
}

func TestLogin_BadPasswordIsFieldError(t *testing.T) {
	srv := apitest.New(t)
	teamID := srv.AddTeam("Team Awesome", "password1")

	called := false
	c := api.New(srv.URL, teamID, "")
	c.OnUnauthorized = func() { called = true }

	_, err := c.Login(context.Background(), "Team Awesome", "nope")
	var fe *model.FieldError
	if !errors.As(err, &fe) || fe.Field != "password" {
		t.Fatalf("expected password field error, got %v", err)
	}
	if called {
		t.Fatalf("expected login failures not to trigger OnUnauthorized")
	}

	_, err = c.Login(context.Background(), "", "x")
	if !errors.As(err, &fe) || fe.Field != "name" {
		t.Fatalf("expected name field error before any request, got %v", err)
	}
}

func TestThoughtLifecycle(t *testing.T) {
	srv, c, teamID := newTeamClient(t)
	ctx := context.Background()

	th, err := c.CreateThought(ctx, model.TopicHappy, "message1")
	if err != nil {
		t.Fatalf("CreateThought: %v", err)
	}
	if th.ID == 0 || th.Message != "message1" || th.Topic != model.TopicHappy {
		t.Fatalf("unexpected thought: %#v", th)
	}

	if th, err = c.HeartThought(ctx, th.ID); err != nil || th.Hearts != 1 {
		t.Fatalf("HeartThought: hearts=%d err=%v", th.Hearts, err)
	}
	if th, err = c.DiscussThought(ctx, th.ID, true); err != nil || !th.Discussed {
		t.Fatalf("DiscussThought: %#v err=%v", th, err)
	}
	if th, err = c.EditThought(ctx, th.ID, "edited"); err != nil || th.Message != "edited" {
		t.Fatalf("EditThought: %#v err=%v", th, err)
	}

	list, err := c.Thoughts(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("Thoughts: %v (len=%d)", err, len(list))
	}

	if err := c.DeleteThought(ctx, th.ID); err != nil {
		t.Fatalf("DeleteThought: %v", err)
	}
	if got := srv.Thoughts(teamID); len(got) != 0 {
		t.Fatalf("expected no thoughts on server, got %d", len(got))
	}
}

func TestActionItemFromParsedInput(t *testing.T) {
	srv, c, teamID := newTeamClient(t)
	ctx := context.Background()

	task, assignee := model.ParseActionItemInput("Increase Code Coverage @Bob")
	a, err := c.CreateActionItem(ctx, task, assignee)
	if err != nil {
		t.Fatalf("CreateActionItem: %v", err)
	}
	if a.Task != "Increase Code Coverage" || a.Assignee != "Bob" {
		t.Fatalf("unexpected action item: %#v", a)
	}
	if a.DateCreated.IsZero() {
		t.Fatalf("expected dateCreated to be set")
	}

	if a, err = c.CompleteActionItem(ctx, a.ID, true); err != nil || !a.Completed {
		t.Fatalf("CompleteActionItem: %#v err=%v", a, err)
	}
	if a, err = c.AssignActionItem(ctx, a.ID, "Alice"); err != nil || a.Assignee != "Alice" {
		t.Fatalf("AssignActionItem: %#v err=%v", a, err)
	}
	if a, err = c.EditActionItemTask(ctx, a.ID, "Raise coverage"); err != nil || a.Task != "Raise coverage" {
		t.Fatalf("EditActionItemTask: %#v err=%v", a, err)
	}
	if _, err = c.ArchiveActionItem(ctx, a.ID, true); err != nil {
		t.Fatalf("ArchiveActionItem: %v", err)
	}

	active, err := c.ActionItems(ctx, false)
	if err != nil || len(active) != 0 {
		t.Fatalf("expected no active items, got %d (err=%v)", len(active), err)
	}
	archived, err := c.ActionItems(ctx, true)
	if err != nil || len(archived) != 1 {
		t.Fatalf("expected one archived item, got %d (err=%v)", len(archived), err)
	}
	if got := srv.ActionItems(teamID); len(got) != 1 {
		t.Fatalf("expected server to keep the item, got %d", len(got))
	}
}

func TestEndRetroArchivesBoard(t *testing.T) {
	srv, c, teamID := newTeamClient(t)
	ctx := context.Background()

	if _, err := c.CreateThought(ctx, model.TopicConfused, "why?"); err != nil {
		t.Fatalf("CreateThought: %v", err)
	}
	done := srv.SeedActionItem(teamID, model.ActionItem{Task: "ship", Completed: true})

	if err := c.EndRetro(ctx); err != nil {
		t.Fatalf("EndRetro: %v", err)
	}
	boards, err := c.Boards(ctx, 0, 10)
	if err != nil {
		t.Fatalf("Boards: %v", err)
	}
	if len(boards) != 1 || len(boards[0].Thoughts) != 1 {
		t.Fatalf("expected one board with one thought, got %#v", boards)
	}
	archived, _ := c.ActionItems(ctx, true)
	if len(archived) != 1 || archived[0].ID != done.ID {
		t.Fatalf("expected completed item to be archived, got %#v", archived)
	}
	if err := c.DeleteBoard(ctx, boards[0].ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if got := srv.Boards(teamID); len(got) != 0 {
		t.Fatalf("expected board deleted, got %d", len(got))
	}
}

func TestCSV_EmptyTeamIsHeaderOnly(t *testing.T) {
	_, c, _ := newTeamClient(t)
	b, err := c.CSV(context.Background())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if string(b) != "Column,Message,Likes,Completed,Assigned To\r\n" {
		t.Fatalf("unexpected csv: %q", string(b))
	}
}

func TestColumnsAndRename(t *testing.T) {
	_, c, _ := newTeamClient(t)
	ctx := context.Background()
	cols, err := c.Columns(ctx)
	if err != nil || len(cols) != 4 {
		t.Fatalf("Columns: %v (len=%d)", err, len(cols))
	}
	col, err := c.RenameColumn(ctx, cols[0].ID, "Yay")
	if err != nil || col.Title != "Yay" {
		t.Fatalf("RenameColumn: %#v err=%v", col, err)
	}
	name, err := c.TeamName(ctx)
	if err != nil || name != "Team Awesome" {
		t.Fatalf("TeamName: %q err=%v", name, err)
	}
}

func TestUnauthorizedCallsHook(t *testing.T) {
	srv, c, teamID := newTeamClient(t)

	calls := 0
	c.OnUnauthorized = func() { calls++ }

	srv.FailNext(http.MethodGet, "/api/team/"+teamID+"/thoughts", http.StatusForbidden)
	if _, err := c.Thoughts(context.Background()); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected hook once, got %d", calls)
	}

	// Expired tokens are rejected before any request is made.
	c.SetAuth(teamID, srv.ExpiredToken(teamID))
	before := len(srv.Requests())
	if _, err := c.Columns(context.Background()); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
	if len(srv.Requests()) != before {
		t.Fatalf("expected no request for an expired token")
	}
	if calls != 2 {
		t.Fatalf("expected hook twice, got %d", calls)
	}
}

func TestMutationFailureCarriesReplayableRequest(t *testing.T) {
	srv, c, teamID := newTeamClient(t)
	ctx := context.Background()
	th, err := c.CreateThought(ctx, model.TopicHappy, "hi")
	if err != nil {
		t.Fatalf("CreateThought: %v", err)
	}

	srv.FailNext(http.MethodPut, "/api/team/"+teamID+"/thought/", http.StatusInternalServerError)
	_, err = c.EditThought(ctx, th.ID, "changed")
	var herr *api.HTTPError
	if !errors.As(err, &herr) || herr.Status != http.StatusInternalServerError {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
	req, ok := api.FailedRequest(err)
	if !ok {
		t.Fatalf("expected failed request to be attached")
	}
	if req.Method != http.MethodPut || !strings.HasSuffix(req.Path, "/message") {
		t.Fatalf("unexpected request: %#v", req)
	}

	var replayed model.Thought
	if err := c.Send(ctx, req, &replayed); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Message != "changed" {
		t.Fatalf("expected replay to apply, got %#v", replayed)
	}

	// Reads are not wrapped.
	srv.FailNext(http.MethodGet, "/api/team/"+teamID+"/columns", http.StatusBadGateway)
	if _, err := c.Columns(ctx); err == nil {
		t.Fatalf("expected error")
	} else if _, ok := api.FailedRequest(err); ok {
		t.Fatalf("expected GET failures not to be replayable")
	}
}

func TestSocketURL(t *testing.T) {
	c := api.New("https://retro.example.com/", "team-a", "")
	u, err := c.SocketURL()
	if err != nil {
		t.Fatalf("SocketURL: %v", err)
	}
	if u != "wss://retro.example.com/api/team/team-a/socket" {
		t.Fatalf("unexpected socket url %q", u)
	}
}

func TestSetAuthWhileRequestsInFlight(t *testing.T) {
	srv, c, teamID := newTeamClient(t)
	token := c.Token()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Thoughts(context.Background())
		}()
	}
	for i := 0; i < 20; i++ {
		c.ClearToken()
		c.SetAuth(teamID, token)
	}
	wg.Wait()

	if c.TeamID() != teamID || c.Token() != token {
		t.Fatalf("unexpected credentials after swaps: %q", c.TeamID())
	}
	if h := c.AuthHeader().Get("Authorization"); h != "Bearer "+token {
		t.Fatalf("unexpected auth header %q", h)
	}
	if len(srv.Requests()) == 0 {
		t.Fatalf("expected requests to reach the server")
	}
}
