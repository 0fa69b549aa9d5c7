package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the preview screen.
type KeyMap struct {
	Package    key.Binding
	Reload     key.Binding
	Mapping    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp implements help.KeyMap
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Package, km.Reload, km.Help, km.Quit}
}

// FullHelp implements help.KeyMap
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.ScrollUp, km.ScrollDown},
		{km.Package, km.Reload, km.Mapping},
		{km.Help, km.Quit},
	}
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Package: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "package"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload files"),
		),
		Mapping: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "reload mapping"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
