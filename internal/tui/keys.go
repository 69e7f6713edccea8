package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard shortcuts shown in the help view.
type keyMap struct {
	Navigate   key.Binding
	Select     key.Binding
	SwitchView key.Binding
	Page       key.Binding
	OpenImage  key.Binding
	AddEvent   key.Binding
	MoveEvent  key.Binding
	Delete     key.Binding
	Refresh    key.Binding
	Logout     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Navigate: key.NewBinding(
			key.WithKeys("up", "down", "left", "right", "h", "j", "k", "l"),
			key.WithHelp("↑↓←→", "navigate"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open / confirm"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "boards / calendar"),
		),
		Page: key.NewBinding(
			key.WithKeys("[", "]"),
			key.WithHelp("[ ]", "page posts"),
		),
		OpenImage: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "open image"),
		),
		AddEvent: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add event"),
		),
		MoveEvent: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move event"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete post / event"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "sign out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Select, k.SwitchView, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Navigate, k.Select, k.SwitchView, k.Page},
		{k.OpenImage, k.AddEvent, k.MoveEvent, k.Delete},
		{k.Refresh, k.Logout, k.Help, k.Quit},
	}
}
