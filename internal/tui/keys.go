package tui

import "github.com/charmbracelet/bubbles/key"

type boardKeyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	New      key.Binding
	Title    key.Binding
	Sort     key.Binding
	EndRetro key.Binding
	Download key.Binding
	Retry    key.Binding
	Dismiss  key.Binding
	Help     key.Binding
	Quit     key.Binding

	Edit   key.Binding
	Assign key.Binding
	Delete key.Binding
	Check  key.Binding
	Select key.Binding
	Heart  key.Binding
	Copy   key.Binding

	Confirm     key.Binding
	SaveAlt     key.Binding
	Newline     key.Binding
	Cancel      key.Binding
	Yes         key.Binding
	No          key.Binding
	FocusNext   key.Binding
	FocusPrev   key.Binding
	LoginSubmit key.Binding
}

var keys = boardKeyMap{
	Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/l", "column")),
	Right:    key.NewBinding(key.WithKeys("l", "right")),
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "entry")),
	Down:     key.NewBinding(key.WithKeys("j", "down")),
	New:      key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
	Title:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "rename column")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort by votes")),
	EndRetro: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "end retro")),
	Download: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "download csv")),
	Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Dismiss:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "dismiss")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Assign: key.NewBinding(key.WithKeys("@"), key.WithHelp("@", "assign")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Check:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "discussed/done")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Heart:  key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "heart")),
	Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),

	Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	SaveAlt:     key.NewBinding(key.WithKeys("ctrl+s")),
	Newline:     key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "newline")),
	Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Yes:         key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:          key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	FocusNext:   key.NewBinding(key.WithKeys("tab")),
	FocusPrev:   key.NewBinding(key.WithKeys("shift+tab")),
	LoginSubmit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in")),
}

// ShortHelp and FullHelp feed the bubbles/help footer.
func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.New, k.Edit, k.Delete, k.Check, k.Heart, k.Help, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Up, k.New, k.Title, k.Sort},
		{k.Edit, k.Assign, k.Delete, k.Check, k.Select, k.Heart, k.Copy},
		{k.EndRetro, k.Download, k.Retry, k.Dismiss, k.Help, k.Quit},
	}
}
