package tui

import (
	"strconv"
	"strings"

	"retroquest-cli/internal/model"
	"retroquest-cli/internal/state"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// columnHost performs the column-level side effects. The board implements it.
type columnHost interface {
	EntryActions(e model.ColumnEntry) EntryActions
	Create(topic model.Topic, text string) tea.Cmd
	Retitle(topic model.Topic, title string) tea.Cmd
	ToggleSort(topic model.Topic) tea.Cmd
	Heart(th model.Thought) tea.Cmd
	Copy(e model.ColumnEntry) tea.Cmd
}

// column renders one topic: a header with the active count, the entries (active
// first), and the create input.
type column struct {
	topic model.Topic
	host  columnHost

	title       string
	active      int
	resolved    int
	sortByVotes bool
	disabled    bool

	items  []columnItem
	cursor int

	focused bool
	width   int
	height  int

	input       textinput.Model
	inputActive bool
	titleEditor *textEditor
}

func newColumn(topic model.Topic, host columnHost) column {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = model.MaxMessageLength
	in.Placeholder = inputPlaceholder(topic)
	return column{topic: topic, host: host, title: topic.DefaultTitle(), input: in}
}

func inputPlaceholder(topic model.Topic) string {
	switch topic {
	case model.TopicHappy:
		return "Something that went well"
	case model.TopicConfused:
		return "Something that confused you"
	case model.TopicUnhappy:
		return "Something that didn't go well"
	default:
		return "task @assignee"
	}
}

func (c *column) innerWidth() int {
	w := c.width - 4
	if w < 8 {
		w = 8
	}
	return w
}

func (c *column) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.input.Width = c.innerWidth() - 3
	for i := range c.items {
		c.items[i].SetWidth(c.innerWidth())
	}
	if c.titleEditor != nil {
		c.titleEditor.SetWidth(c.innerWidth())
	}
}

// Sync binds the column to st. Entries are bound by position; the cursor follows the
// entry it was on.
func (c *column) Sync(st state.State) {
	c.title = st.ColumnTitle(c.topic)
	c.active, c.resolved = st.Counts(c.topic)
	c.sortByVotes = st.SortByVotes[c.topic]
	c.disabled = st.ModalOpen()

	focusedKey := ""
	if it := c.current(); it != nil && it.entry != nil {
		focusedKey = model.EntryKey(it.entry)
	}

	entries := st.Entries(c.topic)
	for i, e := range entries {
		if i < len(c.items) {
			c.items[i].Bind(e, c.host.EntryActions(e))
		} else {
			c.items = append(c.items, newColumnItem(e, c.host.EntryActions(e), c.innerWidth()))
		}
		c.items[i].SetDisabled(c.disabled)
	}
	c.items = c.items[:len(entries)]

	if focusedKey != "" {
		for i, e := range entries {
			if model.EntryKey(e) == focusedKey {
				c.cursor = i
				break
			}
		}
	}
	c.clampCursor()
}

// ResetItems returns every entry to its default view.
func (c *column) ResetItems() {
	for i := range c.items {
		c.items[i].Reset()
	}
}

func (c *column) clampCursor() {
	if c.cursor >= len(c.items) {
		c.cursor = len(c.items) - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
}

func (c *column) current() *columnItem {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return nil
	}
	return &c.items[c.cursor]
}

// Capturing reports whether keys should go to a text field in this column.
func (c *column) Capturing() bool {
	if c.inputActive || c.titleEditor != nil {
		return true
	}
	it := c.current()
	return it != nil && it.Editing()
}

func (c *column) Focus() { c.focused = true }

func (c *column) Blur() {
	c.focused = false
	if it := c.current(); it != nil {
		it.Blur()
	}
}

func (c *column) move(delta int) {
	if it := c.current(); it != nil {
		it.Blur()
	}
	c.cursor += delta
	c.clampCursor()
}

// Update handles a key and reports whether the column consumed it.
func (c *column) Update(msg tea.Msg) (tea.Cmd, bool) {
	if c.titleEditor != nil {
		ed, outcome, cmd := c.titleEditor.Update(msg)
		switch outcome {
		case editorConfirmed:
			c.titleEditor = nil
			return c.host.Retitle(c.topic, strings.TrimSpace(ed.Value())), true
		case editorCancelled:
			c.titleEditor = nil
			return nil, true
		}
		c.titleEditor = &ed
		return cmd, true
	}

	if c.inputActive {
		return c.updateInput(msg)
	}

	if it := c.current(); it != nil {
		if handled, cmd := it.Update(msg); handled {
			return cmd, true
		}
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}
	switch {
	case key.Matches(k, keys.Up):
		c.move(-1)
		return nil, true
	case key.Matches(k, keys.Down):
		c.move(1)
		return nil, true
	}

	// Anything else moves attention away from a pending delete.
	if it := c.current(); it != nil {
		it.Blur()
	}

	switch {
	case key.Matches(k, keys.New):
		if c.disabled {
			return nil, true
		}
		c.inputActive = true
		return c.input.Focus(), true
	case key.Matches(k, keys.Title):
		if c.disabled {
			return nil, true
		}
		ed := newTextEditor(c.title, model.MaxColumnTitleLength, model.TitleWarnThreshold, c.innerWidth())
		c.titleEditor = &ed
		return nil, true
	case key.Matches(k, keys.Sort):
		if c.topic == model.TopicAction {
			return nil, false
		}
		return c.host.ToggleSort(c.topic), true
	case key.Matches(k, keys.Heart):
		it := c.current()
		if it == nil || c.disabled {
			return nil, true
		}
		if th, ok := it.entry.(model.Thought); ok {
			return c.host.Heart(th), true
		}
		return nil, true
	case key.Matches(k, keys.Copy):
		if it := c.current(); it != nil {
			return c.host.Copy(it.entry), true
		}
		return nil, true
	}
	return nil, false
}

func (c *column) updateInput(msg tea.Msg) (tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Cancel):
			c.inputActive = false
			c.input.Reset()
			c.input.Blur()
			return nil, true
		case k.Type == tea.KeyEnter:
			text := strings.TrimSpace(c.input.Value())
			c.input.Reset()
			if text == "" {
				return nil, true
			}
			return c.host.Create(c.topic, text), true
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd, true
}

func (c *column) topicColor() lipgloss.AdaptiveColor {
	switch c.topic {
	case model.TopicHappy:
		return colorTopicHappy
	case model.TopicConfused:
		return colorTopicConfused
	case model.TopicUnhappy:
		return colorTopicUnhappy
	default:
		return colorTopicAction
	}
}

func (c *column) renderHeader() string {
	w := c.innerWidth()
	if c.titleEditor != nil {
		return c.titleEditor.View()
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(c.topicColor()).Render(c.title)
	badge := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorAccentFg).
		Background(c.topicColor()).
		Render(strconv.Itoa(c.active))
	right := badge
	if c.sortByVotes {
		right = styleMuted().Render(glyphHeart()+glyphSortDown()) + " " + badge
	}
	gap := w - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

func (c *column) renderFooter() string {
	if c.inputActive {
		return renderInputLine(c.innerWidth(), c.input.View())
	}
	hint := "n: add a thought"
	if c.topic == model.TopicAction {
		hint = "n: add an action item"
	}
	return styleMuted().Render(hint)
}

func (c *column) View() string {
	w := c.innerWidth()
	header := c.renderHeader()
	rule := styleMuted().Render(strings.Repeat(glyphHRule(), w))
	footer := c.renderFooter()

	avail := c.height - 2 - lipgloss.Height(header) - 1 - lipgloss.Height(footer) - 1
	if avail < 1 {
		avail = 1
	}

	blocks := make([]string, len(c.items))
	for i := range c.items {
		blocks[i] = c.items[i].View(c.focused && i == c.cursor)
	}
	var body string
	if len(blocks) == 0 {
		body = styleMuted().Render("(empty)")
	} else {
		body = strings.Join(visibleBlocks(blocks, c.cursor, avail), "\n\n")
	}

	content := header + "\n" + rule + "\n" + normalizePane(body, w, avail) + "\n" + footer

	border := colorCardBorder
	if c.focused {
		border = colorFocusBorder
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(normalizePane(content, w, c.height-2))
}

// visibleBlocks drops leading blocks until the cursor block fits in height rows.
func visibleBlocks(blocks []string, cursor, height int) []string {
	if cursor >= len(blocks) {
		cursor = len(blocks) - 1
	}
	start := 0
	for start < cursor {
		used := 0
		for i := start; i <= cursor; i++ {
			used += lipgloss.Height(blocks[i]) + 1
		}
		if used-1 <= height {
			break
		}
		start++
	}
	return blocks[start:]
}
