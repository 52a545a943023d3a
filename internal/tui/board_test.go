package tui

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/api/apitest"
	"retroquest-cli/internal/logging"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/realtime"
	"retroquest-cli/internal/state"
	"retroquest-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type boardHarness struct {
	t      *testing.T
	srv    *apitest.Server
	teamID string
	s      *session
	m      boardModel
}

func newBoardHarness(t *testing.T, outbox *store.Outbox) *boardHarness {
	t.Helper()
	t.Setenv("RETROQUEST_CONFIG_DIR", t.TempDir())

	srv := apitest.New(t)
	teamID := srv.AddTeam("Team Awesome", "password1")
	client := api.New(srv.URL, teamID, srv.Token(teamID))
	client.Logger = logging.Discard()

	s := newSession(context.Background(), Options{
		Client:      client,
		Outbox:      outbox,
		DownloadDir: t.TempDir(),
		Logger:      logging.Discard(),
	})
	h := &boardHarness{t: t, srv: srv, teamID: teamID, s: s, m: newBoardModel(s)}
	h.send(tea.WindowSizeMsg{Width: 160, Height: 40})
	h.run(s.load())
	if h.m.view != viewBoard {
		h.t.Fatalf("expected board view after load, got %v", h.m.view)
	}
	return h
}

// send feeds msg to the board and runs the resulting commands to completion.
func (h *boardHarness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(boardModel)
	h.run(cmd)
}

// run executes cmd synchronously. Commands that block (cursor blinks, channel
// listeners) are abandoned after a short wait.
func (h *boardHarness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(300 * time.Millisecond):
		return
	}
	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	default:
		h.send(msg)
	}
}

func (h *boardHarness) keys(ks ...tea.KeyMsg) {
	for _, k := range ks {
		h.send(k)
	}
}

func (h *boardHarness) happy() column { return h.m.columns[0] }

func TestBoard_CreateThenDiscussThought(t *testing.T) {
	h := newBoardHarness(t, nil)

	h.keys(runes("n"), runes("message1"), keyEnter, keyEsc)
	if got := h.happy().active; got != 1 {
		t.Fatalf("expected 1 active thought, got %d", got)
	}

	h.keys(keySpace)
	c := h.happy()
	if c.active != 0 || c.resolved != 1 {
		t.Fatalf("expected 0 active / 1 resolved, got %d/%d", c.active, c.resolved)
	}
	if th := h.srv.Thoughts(h.teamID); len(th) != 1 || !th[0].Discussed {
		t.Fatalf("expected server thought discussed, got %+v", th)
	}

	h.keys(runes("n"), runes("message2"), keyEnter, keyEsc)
	c = h.happy()
	last := c.items[len(c.items)-1].entry
	if last.EntryText() != "message1" {
		t.Fatalf("expected discussed thought at the end, got %q", last.EntryText())
	}
}

func TestBoard_ActionItemInputParsesAssignee(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.keys(runes("l"), runes("l"), runes("l"))
	if h.m.focusedTopic() != model.TopicAction {
		t.Fatalf("expected action column focused, got %s", h.m.focusedTopic())
	}
	h.keys(runes("n"), runes("Increase Code Coverage @Bob"), keyEnter, keyEsc)

	items := h.srv.ActionItems(h.teamID)
	if len(items) != 1 || items[0].Task != "Increase Code Coverage" || items[0].Assignee != "Bob" {
		t.Fatalf("unexpected action items %+v", items)
	}
	if got := h.m.columns[3].active; got != 1 {
		t.Fatalf("expected 1 active action item, got %d", got)
	}
}

func TestBoard_ActionItemWithoutTaskFlashes(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.keys(runes("l"), runes("l"), runes("l"))
	h.keys(runes("n"), runes("@Bob"), keyEnter, keyEsc)

	if items := h.srv.ActionItems(h.teamID); len(items) != 0 {
		t.Fatalf("expected nothing created, got %+v", items)
	}
	if !h.m.flashErr || !strings.Contains(h.m.flash, "task required") {
		t.Fatalf("expected task required flash, got %q", h.m.flash)
	}
}

func TestBoard_FailureGoesToBannerAndOutbox(t *testing.T) {
	ctx := context.Background()
	outbox, err := store.OpenOutbox(ctx, filepath.Join(t.TempDir(), "outbox.sqlite"))
	if err != nil {
		t.Fatalf("OpenOutbox: %v", err)
	}
	t.Cleanup(func() { _ = outbox.Close() })

	h := newBoardHarness(t, outbox)
	h.srv.SeedThought(h.teamID, model.Thought{Message: "flaky", Topic: model.TopicHappy})
	h.run(h.s.load())

	h.srv.FailNext(http.MethodPut, "/api/team/"+h.teamID+"/thought", http.StatusInternalServerError)
	h.keys(keySpace)

	st := h.s.store.Snapshot()
	if len(st.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", st.Failures)
	}
	if st.Failures[0].OutboxID == "" {
		t.Fatalf("expected failure persisted to the outbox")
	}
	if pending, _ := outbox.List(ctx, h.teamID); len(pending) != 1 {
		t.Fatalf("expected 1 outbox entry, got %d", len(pending))
	}

	h.keys(runes("r"))
	if st := h.s.store.Snapshot(); len(st.Failures) != 0 {
		t.Fatalf("expected failure cleared after retry, got %+v", st.Failures)
	}
	if pending, _ := outbox.List(ctx, h.teamID); len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d", len(pending))
	}
	if th := h.srv.Thoughts(h.teamID); !th[0].Discussed {
		t.Fatalf("expected retry to reach the server")
	}
}

func TestBoard_UnauthorizedShowsLogin(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.srv.FailNext(http.MethodPost, "/api/team/"+h.teamID+"/thought", http.StatusUnauthorized)
	h.keys(runes("n"), runes("hello"), keyEnter)
	if h.m.view != viewLogin {
		t.Fatalf("expected login view, got %v", h.m.view)
	}
	if name, _ := h.m.login.Values(); name != "team awesome" {
		t.Fatalf("expected team name pre-filled, got %q", name)
	}
}

// Run with -race: commands read the credentials while the update loop swaps them.
func TestBoard_ReloginWhileLoading(t *testing.T) {
	h := newBoardHarness(t, nil)
	token := h.srv.Token(h.teamID)

	load := h.s.load()
	done := make(chan tea.Msg, 1)
	go func() { done <- load() }()
	h.m.toLogin()
	if h.s.client.Token() != "" {
		t.Fatalf("expected token cleared on logout")
	}
	h.m.s.client.SetAuth(h.teamID, token)
	<-done

	if got := h.s.client.TeamID(); got != h.teamID {
		t.Fatalf("expected team %q, got %q", h.teamID, got)
	}
	if h.m.view != viewLogin {
		t.Fatalf("expected login view, got %v", h.m.view)
	}
}

func TestBoard_LoginFieldError(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.m.toLogin()
	h.keys(runes("wrong"), keyEnter)
	if h.m.login.passwordErr == "" {
		t.Fatalf("expected password field error")
	}
	if h.m.view != viewLogin {
		t.Fatalf("expected to stay on login")
	}
}

func TestBoard_EntryModalDisablesAndResets(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.srv.SeedThought(h.teamID, model.Thought{Message: "look at me", Topic: model.TopicHappy})
	h.srv.SeedThought(h.teamID, model.Thought{Message: "other", Topic: model.TopicHappy})
	h.run(h.s.load())

	// Leave the second entry mid-edit, then open the first.
	h.keys(runes("j"), runes("e"))
	mustView[editingView](t, h.happy().items[1])
	h.send(modalOpenMsg{key: model.EntryKey(h.happy().items[0].entry)})
	if h.m.overlay != overlayEntry || !h.s.store.Snapshot().ModalOpen() {
		t.Fatalf("expected entry modal")
	}
	for _, it := range h.happy().items {
		if !it.disabled || !it.Idle() {
			t.Fatalf("expected every entry disabled and idle while the modal is open")
		}
	}

	h.keys(keyEsc)
	if h.m.overlay != overlayNone || h.s.store.Snapshot().ModalOpen() {
		t.Fatalf("expected modal closed")
	}
	if h.happy().items[0].disabled {
		t.Fatalf("expected entries enabled again")
	}
}

func TestBoard_EndRetroAsksFirst(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.srv.SeedThought(h.teamID, model.Thought{Message: "gone soon", Topic: model.TopicHappy})
	h.run(h.s.load())

	h.keys(runes("E"), keyEnter)
	if len(h.srv.Boards(h.teamID)) != 0 {
		t.Fatalf("default button must cancel")
	}
	h.keys(runes("E"), runes("y"))
	if len(h.srv.Boards(h.teamID)) != 1 {
		t.Fatalf("expected the retro archived")
	}
	if got := len(h.s.store.Snapshot().Thoughts); got != 0 {
		t.Fatalf("expected board cleared, got %d thoughts", got)
	}
}

func TestBoard_PushedEventsUpdateColumns(t *testing.T) {
	h := newBoardHarness(t, nil)
	th := model.Thought{ID: 42, Message: "from another laptop", Topic: model.TopicUnhappy}
	h.send(realtimeMsg{
		ev:  realtime.Event{Kind: realtime.KindThought, Action: realtime.ActionPut, Thought: &th},
		gen: h.s.realtimeGen(),
	})
	if got := h.m.columns[2].active; got != 1 {
		t.Fatalf("expected pushed thought in unhappy column, got %d", got)
	}

	// Events from a replaced subscription are dropped.
	stale := model.Thought{ID: 43, Message: "stale", Topic: model.TopicUnhappy}
	h.send(realtimeMsg{
		ev:  realtime.Event{Kind: realtime.KindThought, Action: realtime.ActionPut, Thought: &stale},
		gen: h.s.realtimeGen() - 1,
	})
	if _, ok := h.s.store.Snapshot().Thought(43); ok {
		t.Fatalf("expected stale event ignored")
	}
}

func TestBoard_SortToggleIsPersisted(t *testing.T) {
	h := newBoardHarness(t, nil)
	h.keys(runes("s"))
	if !h.s.store.Snapshot().SortByVotes[model.TopicHappy] {
		t.Fatalf("expected happy column sorted by votes")
	}
	ts, err := h.s.team.LoadTUIState()
	if err != nil {
		t.Fatalf("LoadTUIState: %v", err)
	}
	if !ts.SortByVotes[string(model.TopicHappy)] {
		t.Fatalf("expected sort persisted, got %+v", ts)
	}

	// A fresh board restores it.
	h.s.store.Dispatch(state.SortRestored{SortByVotes: map[model.Topic]bool{}})
	h.run(h.s.restoreTUIState())
	if !h.s.store.Snapshot().SortByVotes[model.TopicHappy] {
		t.Fatalf("expected sort restored")
	}
}
