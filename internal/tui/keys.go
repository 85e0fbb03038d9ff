package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the normal-mode bindings
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Add        key.Binding
	Toggle     key.Binding
	Delete     key.Binding
	All        key.Binding
	Completed  key.Binding
	InProgress key.Binding
	Cycle      key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		Toggle:     key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space/c", "toggle done")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		All:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		Completed:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "completed")),
		InProgress: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "in progress")),
		Cycle:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next filter")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Cycle, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},
		{k.Add, k.Toggle, k.Delete},
		{k.All, k.Completed, k.InProgress, k.Cycle},
		{k.Help, k.Quit},
	}
}
