package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type confirmOutcome int

const (
	confirmPending confirmOutcome = iota
	confirmAccepted
	confirmRejected
	// confirmIgnored means the key is not the prompt's; the caller may treat it as a
	// focus change, which blurs the prompt.
	confirmIgnored
)

// deleteConfirm is the inline Yes/No prompt shown in place of an entry. It renders at
// least as tall as the view it replaced so the column does not jump.
type deleteConfirm struct {
	prompt string
	height int
	width  int
	focus  confirmModalFocus
}

func newDeleteConfirm(prompt string, height, width int) deleteConfirm {
	return deleteConfirm{prompt: prompt, height: height, width: width, focus: confirmFocusCancel}
}

func (d deleteConfirm) Update(k tea.KeyMsg) (deleteConfirm, confirmOutcome) {
	switch {
	case key.Matches(k, keys.Yes):
		return d, confirmAccepted
	case key.Matches(k, keys.No), key.Matches(k, keys.Cancel):
		return d, confirmRejected
	case key.Matches(k, keys.FocusNext), key.Matches(k, keys.FocusPrev):
		d.focus = d.focus.toggle()
		return d, confirmPending
	case key.Matches(k, keys.Confirm):
		if d.focus == confirmFocusConfirm {
			return d, confirmAccepted
		}
		return d, confirmRejected
	}
	return d, confirmIgnored
}

// Blur is focus leaving the prompt; it always cancels.
func (d deleteConfirm) Blur() confirmOutcome { return confirmRejected }

func (d deleteConfirm) View() string {
	prompt := lipgloss.NewStyle().Bold(true).Width(d.width).Render(d.prompt)
	out := prompt + "\n" + renderButtons("Yes", "No", d.focus)
	return padHeight(out, d.height)
}
