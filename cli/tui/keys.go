package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines every key binding of the browser.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	Enter   key.Binding
	Parent  key.Binding
	Back    key.Binding
	Forward key.Binding
	GoTo    key.Binding
	Refresh key.Binding

	Select   key.Binding
	NewDir   key.Binding
	Delete   key.Binding
	Rename   key.Binding
	Copy     key.Binding
	Terminal key.Binding
	Login    key.Binding

	TogglePreview key.Binding
	Command       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),

		Enter:   key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter", "open")),
		Parent:  key.NewBinding(key.WithKeys("backspace", "h", "left"), key.WithHelp("h", "parent")),
		Back:    key.NewBinding(key.WithKeys("[", "alt+left"), key.WithHelp("[", "back")),
		Forward: key.NewBinding(key.WithKeys("]", "alt+right"), key.WithHelp("]", "forward")),
		GoTo:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "go to location")),
		Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),

		Select:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		NewDir:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new directory")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy location")),
		Terminal: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "terminal")),
		Login:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),

		TogglePreview: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Command:       key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Parent, k.Back, k.Forward, k.GoTo, k.Command, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Enter, k.Parent, k.Back, k.Forward, k.GoTo, k.Refresh},
		{k.Select, k.NewDir, k.Delete, k.Rename, k.Copy, k.Terminal, k.Login},
		{k.TogglePreview, k.Command, k.Help, k.Quit},
	}
}
