package tui

import "github.com/charmbracelet/bubbles/key"

// PickerKeyMap defines the key bindings of the level picker.
type PickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Stats  key.Binding
	Quit   key.Binding
}

// ShortHelp implements help.KeyMap.
func (k PickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Stats, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k PickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select}, {k.Stats, k.Quit}}
}

// DefaultPickerKeyMap returns the default picker bindings.
func DefaultPickerKeyMap() PickerKeyMap {
	return PickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play"),
		),
		Stats: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "stats"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// PlayKeyMap defines the key bindings of the play screen. Plain letters
// go to the editor, so every action uses a modifier.
type PlayKeyMap struct {
	Run      key.Binding
	Reset    key.Binding
	Solution key.Binding
	Next     key.Binding
	Focus    key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp implements help.KeyMap.
func (k PlayKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Reset, k.Solution, k.Next, k.Focus, k.Back}
}

// FullHelp implements help.KeyMap.
func (k PlayKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Reset, k.Solution},
		{k.Next, k.Focus, k.Back, k.Quit},
	}
}

// DefaultPlayKeyMap returns the default play bindings.
func DefaultPlayKeyMap() PlayKeyMap {
	return PlayKeyMap{
		Run: key.NewBinding(
			key.WithKeys("ctrl+r", "f5"),
			key.WithHelp("^r", "run"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "reset"),
		),
		Solution: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "solution"),
		),
		Next: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^n", "next level"),
			key.WithDisabled(),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "editor/console"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "levels"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^c", "quit"),
		),
	}
}

// StatsKeyMap defines the key bindings of the stats table.
type StatsKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Clear key.Binding
	Back  key.Binding
	Quit  key.Binding
}

// ShortHelp implements help.KeyMap.
func (k StatsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Clear, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k StatsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Clear, k.Back, k.Quit}}
}

// DefaultStatsKeyMap returns the default stats bindings.
func DefaultStatsKeyMap() StatsKeyMap {
	return StatsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear level history"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b", "tab"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
