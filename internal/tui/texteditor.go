package tui

import (
	"strconv"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type countdownState int

const (
	countdownNeutral countdownState = iota
	countdownWarning
	countdownError
)

// countdown returns the characters left before max and how urgently to show them:
// error at or past max, warning within threshold of it.
func countdown(length, max, threshold int) (int, countdownState) {
	remaining := max - length
	switch {
	case remaining <= 0:
		return remaining, countdownError
	case remaining < threshold:
		return remaining, countdownWarning
	default:
		return remaining, countdownNeutral
	}
}

type editorOutcome int

const (
	editorPending editorOutcome = iota
	editorConfirmed
	editorCancelled
)

type editorFocus int

const (
	editorFocusText editorFocus = iota
	editorFocusSave
	editorFocusCancel
)

const editorMaxRows = 8

// textEditor is an in-place multi-line editor with a remaining-character countdown
// and Save/Cancel buttons. The caller supplies the length limit.
type textEditor struct {
	area      textarea.Model
	max       int
	threshold int
	width     int
	focus     editorFocus
}

func newTextEditor(value string, max, threshold, width int) textEditor {
	ta := textarea.New()
	ta.Prompt = ""
	ta.Placeholder = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = max
	ta.MaxHeight = editorMaxRows
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Background(colorInputBg)
	ta.Focus()

	e := textEditor{area: ta, max: max, threshold: threshold}
	e.SetWidth(width)
	e.area.SetValue(value)
	e.fitHeight()
	return e
}

func (e *textEditor) SetWidth(width int) {
	if width < 4 {
		width = 4
	}
	e.width = width
	e.area.SetWidth(width)
	e.fitHeight()
}

// fitHeight grows and shrinks the textarea with its content.
func (e *textEditor) fitHeight() {
	rows := visualLines(e.area.Value(), e.width)
	if rows > editorMaxRows {
		rows = editorMaxRows
	}
	e.area.SetHeight(rows)
}

func (e textEditor) Value() string { return e.area.Value() }

func (e textEditor) Length() int { return utf8.RuneCountInString(e.area.Value()) }

func (e textEditor) Update(msg tea.Msg) (textEditor, editorOutcome, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		e.area, cmd = e.area.Update(msg)
		return e, editorPending, cmd
	}

	switch {
	case key.Matches(k, keys.Cancel):
		return e, editorCancelled, nil
	case key.Matches(k, keys.SaveAlt):
		return e, editorConfirmed, nil
	case key.Matches(k, keys.Newline):
		if e.focus == editorFocusText {
			e.area.InsertString("\n")
			e.fitHeight()
		}
		return e, editorPending, nil
	case key.Matches(k, keys.Confirm):
		if e.focus == editorFocusCancel {
			return e, editorCancelled, nil
		}
		return e, editorConfirmed, nil
	case key.Matches(k, keys.FocusNext):
		return e.setFocus((e.focus + 1) % 3), editorPending, nil
	case key.Matches(k, keys.FocusPrev):
		return e.setFocus((e.focus + 2) % 3), editorPending, nil
	}

	if e.focus != editorFocusText {
		return e, editorPending, nil
	}
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(k)
	e.fitHeight()
	return e, editorPending, cmd
}

func (e textEditor) setFocus(f editorFocus) textEditor {
	e.focus = f
	if f == editorFocusText {
		e.area.Focus()
	} else {
		e.area.Blur()
	}
	return e
}

func (e textEditor) View() string {
	remaining, st := countdown(e.Length(), e.max, e.threshold)
	count := styleMuted()
	switch st {
	case countdownWarning:
		count = lipgloss.NewStyle().Foreground(colorWarning)
	case countdownError:
		count = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	}

	focus := confirmFocusNone
	switch e.focus {
	case editorFocusSave:
		focus = confirmFocusConfirm
	case editorFocusCancel:
		focus = confirmFocusCancel
	}
	buttons := renderButtons("Save", "Cancel", focus)

	footer := lipgloss.JoinHorizontal(lipgloss.Top, count.Render(strconv.Itoa(remaining)), "  ", buttons)
	return e.area.View() + "\n" + footer
}
