package tui

import (
	"strconv"
	"strings"

	"retroquest-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EntryActions performs the side effects of one entry. Each call returns the command
// that talks to the server; results come back to the board as messages.
type EntryActions interface {
	Edit(text string) tea.Cmd
	Delete() tea.Cmd
	ToggleCheck() tea.Cmd
	Select() tea.Cmd
}

// Assigner is implemented by actions of entries that carry an assignee.
type Assigner interface {
	Assign(name string) tea.Cmd
}

// itemView is the entry's view state. Exactly one variant is active at a time.
type itemView interface{ isItemView() }

type defaultView struct{}

type editField int

const (
	editText editField = iota
	editAssignee
)

type editingView struct {
	field  editField
	editor textEditor
}

type deletingView struct {
	confirm deleteConfirm
}

func (defaultView) isItemView()  {}
func (editingView) isItemView()  {}
func (deletingView) isItemView() {}

// columnItem controls one entry of a column.
type columnItem struct {
	entry    model.ColumnEntry
	actions  EntryActions
	view     itemView
	disabled bool
	width    int
}

func newColumnItem(entry model.ColumnEntry, actions EntryActions, width int) columnItem {
	return columnItem{entry: entry, actions: actions, view: defaultView{}, width: width}
}

// Bind points the controller at entry. A different entry in the same slot resets the
// view state without firing anything.
func (c *columnItem) Bind(entry model.ColumnEntry, actions EntryActions) {
	if c.entry == nil || model.EntryKey(c.entry) != model.EntryKey(entry) {
		c.view = defaultView{}
	}
	c.entry = entry
	c.actions = actions
}

func (c *columnItem) SetDisabled(disabled bool) { c.disabled = disabled }

func (c *columnItem) SetWidth(width int) {
	c.width = width
	if v, ok := c.view.(editingView); ok {
		v.editor.SetWidth(width)
		c.view = v
	}
}

func (c *columnItem) Reset() { c.view = defaultView{} }

// Blur cancels a pending delete when focus moves elsewhere. Editing survives a blur.
func (c *columnItem) Blur() {
	if v, ok := c.view.(deletingView); ok && v.confirm.Blur() == confirmRejected {
		c.view = defaultView{}
	}
}

func (c columnItem) checked() bool { return c.entry != nil && c.entry.Resolved() }

// Editing reports whether the item captures text input.
func (c columnItem) Editing() bool {
	_, ok := c.view.(editingView)
	return ok
}

func (c columnItem) Idle() bool {
	_, ok := c.view.(defaultView)
	return ok
}

// Update handles k and reports whether the item consumed it.
func (c *columnItem) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch v := c.view.(type) {
	case editingView:
		ed, outcome, cmd := v.editor.Update(msg)
		v.editor = ed
		switch outcome {
		case editorConfirmed:
			c.view = defaultView{}
			return true, c.commitEdit(v.field, strings.TrimSpace(ed.Value()))
		case editorCancelled:
			c.view = defaultView{}
			return true, nil
		}
		c.view = v
		return true, cmd

	case deletingView:
		k, ok := msg.(tea.KeyMsg)
		if !ok {
			return false, nil
		}
		confirm, outcome := v.confirm.Update(k)
		switch outcome {
		case confirmAccepted:
			c.view = defaultView{}
			return true, c.actions.Delete()
		case confirmRejected:
			c.view = defaultView{}
			return true, nil
		case confirmPending:
			c.view = deletingView{confirm: confirm}
			return true, nil
		}
		return false, nil

	case defaultView:
		k, ok := msg.(tea.KeyMsg)
		if !ok || c.entry == nil {
			return false, nil
		}
		return c.updateDefault(k)
	}
	return false, nil
}

func (c *columnItem) updateDefault(k tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(k, keys.Edit):
		if c.checked() || c.disabled {
			return true, nil
		}
		c.view = editingView{
			field:  editText,
			editor: newTextEditor(c.entry.EntryText(), model.MaxMessageLength, model.MessageWarnThreshold, c.width),
		}
		return true, nil
	case key.Matches(k, keys.Assign):
		a, ok := c.entry.(model.ActionItem)
		if !ok || c.checked() || c.disabled {
			return false, nil
		}
		if _, ok := c.actions.(Assigner); !ok {
			return false, nil
		}
		c.view = editingView{
			field:  editAssignee,
			editor: newTextEditor(a.Assignee, model.MaxAssigneeLength, model.AssigneeWarnThreshold, c.width),
		}
		return true, nil
	case key.Matches(k, keys.Delete):
		if c.disabled {
			return true, nil
		}
		height := lipgloss.Height(c.renderDefault(false))
		c.view = deletingView{confirm: newDeleteConfirm(c.deletePrompt(), height, c.width)}
		return true, nil
	case key.Matches(k, keys.Check):
		if c.disabled {
			return true, nil
		}
		return true, c.actions.ToggleCheck()
	case key.Matches(k, keys.Select):
		if c.checked() || c.disabled {
			return true, nil
		}
		return true, c.actions.Select()
	}
	return false, nil
}

func (c *columnItem) commitEdit(field editField, value string) tea.Cmd {
	if field == editAssignee {
		if a, ok := c.actions.(Assigner); ok {
			return a.Assign(value)
		}
		return nil
	}
	return c.actions.Edit(value)
}

func (c columnItem) deletePrompt() string {
	if c.entry != nil && c.entry.Kind() == model.EntryActionItem {
		return "Delete this action item?"
	}
	return "Delete this thought?"
}

func (c columnItem) View(focused bool) string {
	switch v := c.view.(type) {
	case editingView:
		label := "Edit"
		if v.field == editAssignee {
			label = "Assignee"
		}
		return styleMuted().Render(label) + "\n" + v.editor.View()
	case deletingView:
		return v.confirm.View()
	default:
		return c.renderDefault(focused)
	}
}

func (c columnItem) renderDefault(focused bool) string {
	if c.entry == nil {
		return ""
	}
	textW := c.width - 3
	if textW < 4 {
		textW = 4
	}
	textStyle := lipgloss.NewStyle().Width(textW)
	if c.checked() {
		textStyle = faintIfDark(textStyle.Foreground(colorMuted).Strikethrough(true))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		glyphCheckbox(c.checked())+" ",
		textStyle.Render(c.entry.EntryText()),
	)

	meta := ""
	switch e := c.entry.(type) {
	case model.Thought:
		meta = glyphHeart() + " " + strconv.Itoa(e.Hearts)
	case model.ActionItem:
		parts := []string{}
		if e.Assignee != "" {
			parts = append(parts, "@"+e.Assignee)
		}
		if d := e.DateCreated.String(); d != "" {
			parts = append(parts, d)
		}
		meta = strings.Join(parts, " "+glyphBullet()+" ")
	}
	if meta != "" {
		body += "\n" + styleMuted().Render(meta)
	}

	st := lipgloss.NewStyle().Width(c.width)
	if focused {
		st = st.Background(colorSelectedBg).Foreground(colorSelectedFg)
	}
	return st.Render(body)
}
