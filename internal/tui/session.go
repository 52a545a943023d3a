package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/realtime"
	"retroquest-cli/internal/state"
	"retroquest-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type loadedMsg struct {
	loaded state.Loaded
	err    error
}

type mutationMsg struct {
	what    string
	actions []state.Action
	err     error
}

type failureRecordedMsg struct {
	failureID string
	outboxID  string
}

type retryDoneMsg struct {
	failure state.Failure
	err     error
}

// realtimeMsg carries its subscription generation so events from a replaced
// subscription are dropped.
type realtimeMsg struct {
	ev     realtime.Event
	events <-chan realtime.Event
	gen    int
}

type realtimeClosedMsg struct{ gen int }

type configMsg struct{ cfg *store.Config }

type loginMsg struct {
	teamID string
	token  string
	err    error
}

type flashMsg struct {
	text string
	err  error
}

type modalOpenMsg struct{ key string }

type sortToggleMsg struct{ topic model.Topic }

type tuiStateMsg struct{ st *store.TUIState }

// session is the board's shared, pointer-stable context. Commands close over it.
type session struct {
	ctx    context.Context
	client *api.Client
	store  *state.Store
	outbox *store.Outbox
	team   store.Store
	log    *slog.Logger

	downloadDir string
	realtime    bool
	watchConfig bool
	now         func() time.Time

	mu       sync.Mutex
	subGen   int
	subStop  context.CancelFunc
	configCh <-chan *store.Config
}

func (s *session) logger() *slog.Logger {
	if s.log == nil {
		return slog.Default()
	}
	return s.log
}

func (s *session) mutate(what string, fn func(ctx context.Context) ([]state.Action, error)) tea.Cmd {
	return func() tea.Msg {
		actions, err := fn(s.ctx)
		if err != nil {
			return mutationMsg{what: what, err: err}
		}
		return mutationMsg{what: what, actions: actions}
	}
}

func (s *session) load() tea.Cmd {
	return func() tea.Msg {
		ctx := s.ctx
		name, err := s.client.TeamName(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		thoughts, err := s.client.Thoughts(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		items, err := s.client.ActionItems(ctx, false)
		if err != nil {
			return loadedMsg{err: err}
		}
		cols, err := s.client.Columns(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{loaded: state.Loaded{TeamName: name, Thoughts: thoughts, ActionItems: items, Columns: cols}}
	}
}

func (s *session) login(name, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := s.client.Login(s.ctx, name, password)
		if err != nil {
			return loginMsg{err: err}
		}
		teamID := model.TeamID(name)
		if _, err := store.UpdateConfig(func(cfg *store.Config) {
			cfg.Team = teamID
			cfg.Token = token
			if cfg.Server == "" {
				cfg.Server = s.client.BaseURL
			}
		}); err != nil {
			s.logger().Warn("save config after login", "err", err)
		}
		return loginMsg{teamID: teamID, token: token}
	}
}

func (s *session) restoreTUIState() tea.Cmd {
	team := s.team
	return func() tea.Msg {
		st, err := team.LoadTUIState()
		if err != nil {
			s.logger().Debug("load tui state", "err", err)
			return nil
		}
		return tuiStateMsg{st: st}
	}
}

func (s *session) saveTUIState(st state.State, focused model.Topic) tea.Cmd {
	team := s.team
	return func() tea.Msg {
		ts := &store.TUIState{Version: 1, FocusedColumn: string(focused), SortByVotes: map[string]bool{}}
		for topic, on := range st.SortByVotes {
			if on {
				ts.SortByVotes[string(topic)] = true
			}
		}
		if err := team.SaveTUIState(ts); err != nil {
			s.logger().Warn("save tui state", "err", err)
		}
		return nil
	}
}

// recordFailure persists a failed mutation to the outbox.
func (s *session) recordFailure(f state.Failure) tea.Cmd {
	if s.outbox == nil || f.Request == nil {
		return nil
	}
	teamID := s.client.TeamID()
	return func() tea.Msg {
		m, err := s.outbox.Record(s.ctx, store.Mutation{
			TeamID:    teamID,
			Method:    f.Request.Method,
			Path:      f.Request.Path,
			Body:      f.Request.Body,
			LastError: f.Message,
		})
		if err != nil {
			s.logger().Warn("record failed mutation", "err", err)
			return nil
		}
		return failureRecordedMsg{failureID: f.ID, outboxID: m.ID}
	}
}

func (s *session) retry(f state.Failure) tea.Cmd {
	if f.Request == nil {
		return nil
	}
	return func() tea.Msg {
		err := s.client.Send(s.ctx, *f.Request, nil)
		if s.outbox != nil && f.OutboxID != "" {
			if err == nil {
				if derr := s.outbox.Delete(s.ctx, f.OutboxID); derr != nil && !errors.Is(derr, store.ErrMutationNotFound) {
					s.logger().Warn("delete outbox entry", "id", f.OutboxID, "err", derr)
				}
			} else if merr := s.outbox.MarkFailed(s.ctx, f.OutboxID, err.Error()); merr != nil {
				s.logger().Warn("mark outbox entry failed", "id", f.OutboxID, "err", merr)
			}
		}
		return retryDoneMsg{failure: f, err: err}
	}
}

func (s *session) endRetro() tea.Cmd {
	return s.mutate("end retro", func(ctx context.Context) ([]state.Action, error) {
		if err := s.client.EndRetro(ctx); err != nil {
			return nil, err
		}
		return []state.Action{state.RetroEnded{}}, nil
	})
}

func (s *session) downloadCSV() tea.Cmd {
	return func() tea.Msg {
		b, err := s.client.CSV(s.ctx)
		if err != nil {
			return mutationMsg{what: "download csv", err: err}
		}
		name := fmt.Sprintf("retroquest-%s-%s.csv", s.client.TeamID(), s.now().Format("2006-01-02"))
		path := filepath.Join(s.downloadDir, name)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return flashMsg{err: fmt.Errorf("write csv: %w", err)}
		}
		return flashMsg{text: "Saved " + path}
	}
}

// startRealtime (re)starts the push subscription and returns the command draining it.
func (s *session) startRealtime() tea.Cmd {
	if !s.realtime {
		return nil
	}
	url, err := s.client.SocketURL()
	if err != nil {
		s.logger().Warn("realtime url", "err", err)
		return nil
	}

	s.mu.Lock()
	if s.subStop != nil {
		s.subStop()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.subStop = cancel
	s.subGen++
	gen := s.subGen
	s.mu.Unlock()

	sub := realtime.New(url, s.client.AuthHeader())
	sub.Logger = s.logger()
	events := make(chan realtime.Event, 16)
	go func() {
		if err := sub.Run(ctx, events); err != nil && !errors.Is(err, realtime.ErrStopped) {
			s.logger().Warn("realtime stopped", "err", err)
		}
	}()
	return listenRealtime(events, gen)
}

func (s *session) stopRealtime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subStop != nil {
		s.subStop()
		s.subStop = nil
	}
	s.subGen++
}

func (s *session) realtimeGen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subGen
}

func listenRealtime(events <-chan realtime.Event, gen int) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return realtimeClosedMsg{gen: gen}
		}
		return realtimeMsg{ev: ev, events: events, gen: gen}
	}
}

func (s *session) startConfigWatch() tea.Cmd {
	if !s.watchConfig {
		return nil
	}
	ch, err := store.WatchConfig(s.ctx)
	if err != nil {
		s.logger().Warn("watch config", "err", err)
		return nil
	}
	s.configCh = ch
	return s.listenConfig()
}

func (s *session) listenConfig() tea.Cmd {
	ch := s.configCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg{cfg: cfg}
	}
}

// EntryActions implements columnHost.
func (s *session) EntryActions(e model.ColumnEntry) EntryActions {
	switch v := e.(type) {
	case model.Thought:
		return thoughtActions{s: s, th: v}
	case model.ActionItem:
		return actionItemActions{s: s, item: v}
	}
	return nil
}

func (s *session) Create(topic model.Topic, text string) tea.Cmd {
	if topic == model.TopicAction {
		task, assignee := model.ParseActionItemInput(text)
		if strings.TrimSpace(task) == "" {
			return func() tea.Msg {
				return flashMsg{err: errors.New("add action item: task required (only @assignee given)")}
			}
		}
		return s.mutate("add action item", func(ctx context.Context) ([]state.Action, error) {
			it, err := s.client.CreateActionItem(ctx, task, assignee)
			return []state.Action{state.ActionItemSaved{ActionItem: it}}, err
		})
	}
	return s.mutate("add thought", func(ctx context.Context) ([]state.Action, error) {
		th, err := s.client.CreateThought(ctx, topic, text)
		return []state.Action{state.ThoughtSaved{Thought: th}}, err
	})
}

func (s *session) Retitle(topic model.Topic, title string) tea.Cmd {
	col, ok := s.store.Snapshot().Columns[topic]
	if !ok {
		return func() tea.Msg {
			return flashMsg{err: fmt.Errorf("rename column: %s column not loaded", topic)}
		}
	}
	return s.mutate("rename column", func(ctx context.Context) ([]state.Action, error) {
		c, err := s.client.RenameColumn(ctx, col.ID, title)
		return []state.Action{state.ColumnRetitled{Column: c}}, err
	})
}

func (s *session) ToggleSort(topic model.Topic) tea.Cmd {
	return func() tea.Msg { return sortToggleMsg{topic: topic} }
}

func (s *session) Heart(th model.Thought) tea.Cmd {
	return s.mutate("heart thought", func(ctx context.Context) ([]state.Action, error) {
		out, err := s.client.HeartThought(ctx, th.ID)
		return []state.Action{state.ThoughtUpdated{Thought: out}}, err
	})
}

func (s *session) Copy(e model.ColumnEntry) tea.Cmd {
	if e == nil {
		return nil
	}
	text := e.EntryText()
	return func() tea.Msg {
		if err := copyToClipboard(text); err != nil {
			return flashMsg{err: fmt.Errorf("copy: %w", err)}
		}
		return flashMsg{text: "Copied"}
	}
}

type thoughtActions struct {
	s  *session
	th model.Thought
}

func (a thoughtActions) Edit(text string) tea.Cmd {
	return a.s.mutate("edit thought", func(ctx context.Context) ([]state.Action, error) {
		th, err := a.s.client.EditThought(ctx, a.th.ID, text)
		return []state.Action{state.ThoughtUpdated{Thought: th}}, err
	})
}

func (a thoughtActions) Delete() tea.Cmd {
	return a.s.mutate("delete thought", func(ctx context.Context) ([]state.Action, error) {
		return []state.Action{state.ThoughtRemoved{ID: a.th.ID}}, a.s.client.DeleteThought(ctx, a.th.ID)
	})
}

func (a thoughtActions) ToggleCheck() tea.Cmd {
	return a.s.mutate("mark thought discussed", func(ctx context.Context) ([]state.Action, error) {
		th, err := a.s.client.DiscussThought(ctx, a.th.ID, !a.th.Discussed)
		return []state.Action{state.ThoughtUpdated{Thought: th}}, err
	})
}

func (a thoughtActions) Select() tea.Cmd {
	key := model.EntryKey(a.th)
	return func() tea.Msg { return modalOpenMsg{key: key} }
}

type actionItemActions struct {
	s    *session
	item model.ActionItem
}

func (a actionItemActions) Edit(text string) tea.Cmd {
	return a.s.mutate("edit action item", func(ctx context.Context) ([]state.Action, error) {
		it, err := a.s.client.EditActionItemTask(ctx, a.item.ID, text)
		return []state.Action{state.ActionItemUpdated{ActionItem: it}}, err
	})
}

func (a actionItemActions) Assign(name string) tea.Cmd {
	return a.s.mutate("assign action item", func(ctx context.Context) ([]state.Action, error) {
		it, err := a.s.client.AssignActionItem(ctx, a.item.ID, model.TruncateRunes(name, model.MaxAssigneeLength))
		return []state.Action{state.ActionItemUpdated{ActionItem: it}}, err
	})
}

func (a actionItemActions) Delete() tea.Cmd {
	return a.s.mutate("delete action item", func(ctx context.Context) ([]state.Action, error) {
		return []state.Action{state.ActionItemRemoved{ID: a.item.ID}}, a.s.client.DeleteActionItem(ctx, a.item.ID)
	})
}

func (a actionItemActions) ToggleCheck() tea.Cmd {
	return a.s.mutate("complete action item", func(ctx context.Context) ([]state.Action, error) {
		it, err := a.s.client.CompleteActionItem(ctx, a.item.ID, !a.item.Completed)
		return []state.Action{state.ActionItemUpdated{ActionItem: it}}, err
	})
}

func (a actionItemActions) Select() tea.Cmd {
	key := model.EntryKey(a.item)
	return func() tea.Msg { return modalOpenMsg{key: key} }
}
