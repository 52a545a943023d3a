package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyAltEnter  = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	keyEsc       = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab       = tea.KeyMsg{Type: tea.KeyTab}
	keyCtrlS     = tea.KeyMsg{Type: tea.KeyCtrlS}
	keySpace     = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
)

// fakeActions records calls instead of talking to a server.
type fakeActions struct{ r *actionLog }

type actionLog struct {
	edits   []string
	assigns []string
	deletes int
	checks  int
	selects int
}

func newFakeActions() (fakeActions, *actionLog) {
	r := &actionLog{}
	return fakeActions{r: r}, r
}

func (f fakeActions) Edit(text string) tea.Cmd   { f.r.edits = append(f.r.edits, text); return nil }
func (f fakeActions) Assign(name string) tea.Cmd { f.r.assigns = append(f.r.assigns, name); return nil }
func (f fakeActions) Delete() tea.Cmd            { f.r.deletes++; return nil }
func (f fakeActions) ToggleCheck() tea.Cmd       { f.r.checks++; return nil }
func (f fakeActions) Select() tea.Cmd            { f.r.selects++; return nil }

func (r *actionLog) total() int {
	return len(r.edits) + len(r.assigns) + r.deletes + r.checks + r.selects
}

func mustView[V itemView](t *testing.T, c columnItem) V {
	t.Helper()
	v, ok := c.view.(V)
	if !ok {
		var want V
		t.Fatalf("expected view %T, got %T", want, c.view)
	}
	return v
}
