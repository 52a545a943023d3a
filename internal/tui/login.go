package tui

import (
	"errors"
	"strings"

	"retroquest-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	loginFieldName = iota
	loginFieldPassword
)

type loginForm struct {
	name     textinput.Model
	password textinput.Model
	focus    int
	busy     bool

	nameErr     string
	passwordErr string
	formErr     string
}

func newLoginForm(teamName string) loginForm {
	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "Team name"
	name.SetValue(teamName)

	pw := textinput.New()
	pw.Prompt = ""
	pw.Placeholder = "Password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'

	f := loginForm{name: name, password: pw}
	if strings.TrimSpace(teamName) != "" {
		f.focus = loginFieldPassword
	}
	f.applyFocus()
	return f
}

func (f *loginForm) applyFocus() tea.Cmd {
	if f.focus == loginFieldName {
		f.password.Blur()
		return f.name.Focus()
	}
	f.name.Blur()
	return f.password.Focus()
}

// SetError places err next to the field it belongs to.
func (f *loginForm) SetError(err error) {
	f.busy = false
	f.nameErr, f.passwordErr, f.formErr = "", "", ""
	var fe *model.FieldError
	if errors.As(err, &fe) {
		switch fe.Field {
		case "name":
			f.nameErr = fe.Message
		default:
			f.passwordErr = fe.Message
		}
		return
	}
	if err != nil {
		f.formErr = err.Error()
	}
}

// Update returns submit=true when the user asked to log in with valid-looking input.
func (f loginForm) Update(msg tea.Msg) (loginForm, tea.Cmd, bool) {
	if f.busy {
		return f, nil, false
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.FocusNext), key.Matches(k, keys.FocusPrev), k.Type == tea.KeyUp, k.Type == tea.KeyDown:
			f.focus = 1 - f.focus
			return f, f.applyFocus(), false
		case key.Matches(k, keys.LoginSubmit):
			if f.focus == loginFieldName && f.password.Value() == "" {
				f.focus = loginFieldPassword
				return f, f.applyFocus(), false
			}
			f.SetError(nil)
			if err := model.ValidateTeamName(f.name.Value()); err != nil {
				f.SetError(err)
				return f, nil, false
			}
			if err := model.ValidatePassword(f.password.Value()); err != nil {
				f.SetError(err)
				return f, nil, false
			}
			f.busy = true
			return f, nil, true
		}
	}

	var cmd tea.Cmd
	if f.focus == loginFieldName {
		f.name, cmd = f.name.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd, false
}

func (f loginForm) Values() (string, string) {
	return strings.TrimSpace(f.name.Value()), f.password.Value()
}

func (f loginForm) View(width int) string {
	bodyW := modalBodyWidth(width)
	label := lipgloss.NewStyle().Bold(true)
	field := func(title string, in textinput.Model, errMsg string) string {
		out := label.Render(title) + "\n" + renderInputLine(bodyW, in.View())
		if errMsg != "" {
			out += "\n" + styleError().Width(bodyW).Render(errMsg)
		}
		return out
	}

	parts := []string{
		field("Team name", f.name, f.nameErr),
		"",
		field("Password", f.password, f.passwordErr),
	}
	if f.formErr != "" {
		parts = append(parts, "", styleError().Width(bodyW).Render(f.formErr))
	}
	hint := "tab: next field   enter: log in   ctrl+c: quit"
	if f.busy {
		hint = "Logging in…"
	}
	parts = append(parts, "", styleMuted().Render(hint))
	return renderModalBox(width, "Log in to RetroQuest", strings.Join(parts, "\n"))
}
