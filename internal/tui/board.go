package tui

import (
	"errors"
	"strconv"
	"strings"

	"retroquest-cli/internal/api"
	"retroquest-cli/internal/docs"
	"retroquest-cli/internal/model"
	"retroquest-cli/internal/state"
	"retroquest-cli/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

type view int

const (
	viewLoading view = iota
	viewLogin
	viewBoard
)

type overlay int

const (
	overlayNone overlay = iota
	overlayEntry
	overlayEndRetro
	overlayHelp
)

type boardModel struct {
	s *session

	view    view
	overlay overlay
	confirm confirmModalFocus

	columns []column
	focus   int

	// modalOpen mirrors state.ModalOpen so transitions can reset every entry.
	modalOpen bool

	login   loginForm
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	flash    string
	flashErr bool
}

func newBoardModel(s *session) boardModel {
	m := boardModel{
		s:       s,
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		confirm: confirmFocusCancel,
	}
	for _, topic := range model.BoardTopics {
		m.columns = append(m.columns, newColumn(topic, s))
	}
	m.columns[0].Focus()
	if strings.TrimSpace(s.client.Token()) == "" {
		m.view = viewLogin
		m.login = newLoginForm(model.TeamNameFromID(s.client.TeamID()))
	} else {
		m.view = viewLoading
	}
	return m
}

func (m boardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.s.startConfigWatch()}
	if m.view == viewLoading {
		cmds = append(cmds, m.spinner.Tick, m.s.load(), m.s.restoreTUIState(), m.s.startRealtime())
	}
	return tea.Batch(cmds...)
}

func (m boardModel) focusedTopic() model.Topic {
	return m.columns[m.focus].topic
}

// sync rebinds every column to the current state.
func (m *boardModel) sync() {
	st := m.s.store.Snapshot()
	if open := st.ModalOpen(); open != m.modalOpen {
		for i := range m.columns {
			m.columns[i].ResetItems()
		}
		m.modalOpen = open
		if open {
			m.overlay = overlayEntry
		} else if m.overlay == overlayEntry {
			m.overlay = overlayNone
		}
	}
	for i := range m.columns {
		m.columns[i].Sync(st)
	}
	m.layout(st)
}

func (m *boardModel) layout(st state.State) {
	if m.width == 0 {
		return
	}
	colH := m.height - 2
	if len(st.Failures) > 0 || m.flash != "" {
		colH--
	}
	if colH < 6 {
		colH = 6
	}
	colW := m.width / len(m.columns)
	for i := range m.columns {
		w := colW
		if i == len(m.columns)-1 {
			w = m.width - colW*(len(m.columns)-1)
		}
		m.columns[i].SetSize(w, colH)
	}
	m.help.Width = m.width
}

func (m *boardModel) dispatch(actions ...state.Action) {
	m.s.store.Dispatch(actions...)
	m.sync()
}

func (m *boardModel) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

func (m *boardModel) toLogin() {
	m.s.stopRealtime()
	m.s.client.ClearToken()
	m.view = viewLogin
	m.overlay = overlayNone
	m.login = newLoginForm(model.TeamNameFromID(m.s.client.TeamID()))
}

// handleErr turns a failed command into the login view, a failure banner entry, or a
// flash message.
func (m *boardModel) handleErr(what string, err error) tea.Cmd {
	if errors.Is(err, api.ErrUnauthorized) {
		m.toLogin()
		return nil
	}
	m.s.logger().Warn("board request failed", "op", what, "err", err)
	req, ok := api.FailedRequest(err)
	if !ok {
		m.setFlash(what+": "+err.Error(), true)
		m.sync()
		return nil
	}
	f := state.Failure{ID: uuid.NewString(), Message: what + ": " + err.Error(), Request: &req}
	m.dispatch(state.FailureAdded{Failure: f})
	return m.s.recordFailure(f)
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout(m.s.store.Snapshot())
		return m, nil

	case spinner.TickMsg:
		if m.view != viewLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.toLogin()
				return m, nil
			}
			m.s.logger().Warn("load board", "err", msg.err)
			m.view = viewBoard
			m.setFlash("Couldn't load the board: "+msg.err.Error(), true)
			m.sync()
			return m, nil
		}
		m.view = viewBoard
		m.dispatch(msg.loaded)
		return m, nil

	case mutationMsg:
		if msg.err != nil {
			cmd := m.handleErr(msg.what, msg.err)
			return m, cmd
		}
		m.dispatch(msg.actions...)
		return m, nil

	case failureRecordedMsg:
		m.dispatch(state.FailurePersisted{ID: msg.failureID, OutboxID: msg.outboxID})
		return m, nil

	case retryDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.toLogin()
				return m, nil
			}
			m.setFlash("Retry failed: "+msg.err.Error(), true)
			m.sync()
			return m, nil
		}
		m.dispatch(state.FailureDismissed{ID: msg.failure.ID})
		m.setFlash("Retried", false)
		return m, m.s.load()

	case modalOpenMsg:
		m.dispatch(state.ModalOpened{Key: msg.key})
		return m, nil

	case sortToggleMsg:
		m.dispatch(state.SortToggled{Topic: msg.topic})
		return m, m.s.saveTUIState(m.s.store.Snapshot(), m.focusedTopic())

	case tuiStateMsg:
		restored := map[model.Topic]bool{}
		for k, on := range msg.st.SortByVotes {
			if t, ok := model.ParseTopic(k); ok && on {
				restored[t] = true
			}
		}
		if t, ok := model.ParseTopic(msg.st.FocusedColumn); ok {
			m.focusColumn(t)
		}
		m.dispatch(state.SortRestored{SortByVotes: restored})
		return m, nil

	case realtimeMsg:
		if msg.gen != m.s.realtimeGen() {
			return m, nil
		}
		if a, ok := state.FromEvent(msg.ev); ok {
			m.dispatch(a)
		}
		return m, listenRealtime(msg.events, msg.gen)

	case realtimeClosedMsg:
		return m, nil

	case configMsg:
		cmd := m.applyConfig(msg.cfg)
		return m, tea.Batch(cmd, m.s.listenConfig())

	case loginMsg:
		if msg.err != nil {
			m.login.SetError(msg.err)
			return m, nil
		}
		cmd := m.loggedIn(msg.teamID, msg.token)
		return m, cmd

	case flashMsg:
		if msg.err != nil {
			m.setFlash(msg.err.Error(), true)
		} else {
			m.setFlash(msg.text, false)
		}
		m.layout(m.s.store.Snapshot())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.s.stopRealtime()
			return m, tea.Quit
		}
		switch m.view {
		case viewLogin:
			return m.updateLogin(msg)
		case viewLoading:
			if key.Matches(msg, keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.updateBoard(msg)
	}

	// Cursor blinks and other widget messages go to whatever has focus.
	switch m.view {
	case viewLogin:
		var cmd tea.Cmd
		m.login, cmd, _ = m.login.Update(msg)
		return m, cmd
	case viewBoard:
		cmd, _ := m.columns[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *boardModel) loggedIn(teamID, token string) tea.Cmd {
	m.s.client.SetAuth(teamID, token)
	if team, err := store.ForTeam(teamID); err == nil {
		m.s.team = team
	}
	m.view = viewLoading
	return tea.Batch(m.spinner.Tick, m.s.load(), m.s.restoreTUIState(), m.s.startRealtime())
}

// applyConfig reacts to config.json changing on disk (login/logout in another shell).
func (m *boardModel) applyConfig(cfg *store.Config) tea.Cmd {
	if cfg == nil {
		return nil
	}
	token := strings.TrimSpace(cfg.Token)
	switch {
	case token == "" && m.s.client.Token() != "":
		m.toLogin()
		return nil
	case token != "" && token != m.s.client.Token():
		teamID := m.s.client.TeamID()
		if cfg.Team != "" {
			teamID = cfg.Team
		}
		return m.loggedIn(teamID, token)
	}
	return nil
}

func (m boardModel) updateLogin(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.Type == tea.KeyEsc {
		return m, tea.Quit
	}
	form, cmd, submit := m.login.Update(k)
	m.login = form
	if submit {
		name, pw := m.login.Values()
		return m, m.s.login(name, pw)
	}
	return m, cmd
}

func (m *boardModel) focusColumn(topic model.Topic) {
	for i := range m.columns {
		if m.columns[i].topic == topic {
			m.setFocus(i)
			return
		}
	}
}

func (m *boardModel) setFocus(i int) {
	if i < 0 || i >= len(m.columns) || i == m.focus {
		return
	}
	m.columns[m.focus].Blur()
	m.focus = i
	m.columns[m.focus].Focus()
}

func (m boardModel) updateBoard(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != overlayNone {
		return m.updateOverlay(k)
	}

	col := &m.columns[m.focus]
	if cmd, handled := col.Update(k); handled {
		return m, cmd
	}

	st := m.s.store.Snapshot()
	switch {
	case key.Matches(k, keys.Left):
		m.setFocus(m.focus - 1)
		return m, m.s.saveTUIState(st, m.focusedTopic())
	case key.Matches(k, keys.Right):
		m.setFocus(m.focus + 1)
		return m, m.s.saveTUIState(st, m.focusedTopic())
	case key.Matches(k, keys.EndRetro):
		m.overlay = overlayEndRetro
		m.confirm = confirmFocusCancel
		return m, nil
	case key.Matches(k, keys.Download):
		m.setFlash("Downloading CSV…", false)
		return m, m.s.downloadCSV()
	case key.Matches(k, keys.Retry):
		if n := len(st.Failures); n > 0 {
			return m, m.s.retry(st.Failures[n-1])
		}
		return m, nil
	case key.Matches(k, keys.Dismiss):
		if n := len(st.Failures); n > 0 {
			m.dispatch(state.FailureDismissed{ID: st.Failures[n-1].ID})
		} else if m.flash != "" {
			m.setFlash("", false)
			m.sync()
		}
		return m, nil
	case key.Matches(k, keys.Help):
		m.overlay = overlayHelp
		return m, nil
	case key.Matches(k, keys.Quit):
		m.s.stopRealtime()
		return m, tea.Quit
	}
	return m, nil
}

func (m boardModel) updateOverlay(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayEntry:
		switch {
		case key.Matches(k, keys.Cancel), key.Matches(k, keys.Select), key.Matches(k, keys.Quit):
			m.dispatch(state.ModalClosed{})
		case key.Matches(k, keys.Copy):
			if e, ok := m.s.store.Snapshot().ModalEntry(); ok {
				return m, m.s.Copy(e)
			}
		}
		return m, nil

	case overlayEndRetro:
		switch {
		case key.Matches(k, keys.FocusNext), key.Matches(k, keys.FocusPrev):
			m.confirm = m.confirm.toggle()
			return m, nil
		case key.Matches(k, keys.Yes):
			m.overlay = overlayNone
			return m, m.s.endRetro()
		case key.Matches(k, keys.No), key.Matches(k, keys.Cancel):
			m.overlay = overlayNone
			return m, nil
		case key.Matches(k, keys.Confirm):
			m.overlay = overlayNone
			if m.confirm == confirmFocusConfirm {
				return m, m.s.endRetro()
			}
			return m, nil
		}
		return m, nil

	case overlayHelp:
		if key.Matches(k, keys.Cancel) || key.Matches(k, keys.Help) || key.Matches(k, keys.Quit) {
			m.overlay = overlayNone
		}
		return m, nil
	}
	return m, nil
}

func (m boardModel) View() string {
	if m.width == 0 {
		return ""
	}
	switch m.view {
	case viewLogin:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.login.View(m.width))
	case viewLoading:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading board…")
	}

	st := m.s.store.Snapshot()
	switch m.overlay {
	case overlayEntry:
		if e, ok := st.ModalEntry(); ok {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderEntryModal(st, e))
		}
	case overlayEndRetro:
		modal := renderConfirmModal(m.width, "End retro",
			"Archive this retro? Thoughts and completed action items move to the archive.",
			"End retro", "Cancel", m.confirm)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	case overlayHelp:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderHelp())
	}

	title := st.TeamName
	if title == "" {
		title = model.TeamNameFromID(m.s.client.TeamID())
	}
	header := lipgloss.NewStyle().Bold(true).Render("RetroQuest") + styleMuted().Render("  "+title)

	lines := []string{normalizePane(header, m.width, 1)}
	if banner := m.renderBanner(st); banner != "" {
		lines = append(lines, banner)
	}
	cols := make([]string, len(m.columns))
	for i := range m.columns {
		cols[i] = m.columns[i].View()
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	lines = append(lines, m.help.View(keys))
	return strings.Join(lines, "\n")
}

func (m boardModel) renderBanner(st state.State) string {
	if n := len(st.Failures); n > 0 {
		f := st.Failures[n-1]
		text := "Couldn't save: " + f.Message
		if n > 1 {
			text += " (+" + strconv.Itoa(n-1) + " more)"
		}
		text += "   r: retry   X: dismiss"
		return lipgloss.NewStyle().
			Foreground(colorAccentFg).
			Background(colorErrorBg).
			Render(normalizePane(text, m.width, 1))
	}
	if m.flash == "" {
		return ""
	}
	if m.flashErr {
		return styleError().Render(normalizePane(m.flash, m.width, 1))
	}
	return styleMuted().Render(normalizePane(m.flash, m.width, 1))
}

func (m boardModel) renderEntryModal(st state.State, e model.ColumnEntry) string {
	bodyW := modalBodyWidth(m.width)
	var title, meta string
	switch v := e.(type) {
	case model.Thought:
		title = st.ColumnTitle(v.Topic)
		meta = glyphHeart() + " " + strconv.Itoa(v.Hearts)
	case model.ActionItem:
		title = st.ColumnTitle(model.TopicAction)
		parts := []string{}
		if v.Assignee != "" {
			parts = append(parts, "@"+v.Assignee)
		}
		if d := v.DateCreated.String(); d != "" {
			parts = append(parts, d)
		}
		meta = strings.Join(parts, " "+glyphBullet()+" ")
	}
	content := renderMarkdown(e.EntryText(), bodyW)
	if meta != "" {
		content += "\n\n" + styleMuted().Render(meta)
	}
	content += "\n\n" + styleMuted().Render("esc: close   y: copy")
	return renderModalBox(m.width, title, content)
}

func (m boardModel) renderHelp() string {
	md, _ := docs.Get("keys")
	content := renderMarkdown(md, modalBodyWidth(m.width)) + "\n\n" + styleMuted().Render("esc: close")
	return renderModalBox(m.width, "Help", content)
}
