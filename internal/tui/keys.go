package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the navigation-mode bindings.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	ViewPersonas key.Binding
	ViewMemory   key.Binding
	ViewSettings key.Binding
	CycleView    key.Binding

	Open       key.Binding
	NewSession key.Binding
	Continue   key.Binding
	Input      key.Binding
	LeaveInput key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	SelectTab  key.Binding
	CloseTab   key.Binding
	Expand     key.Binding
	Search     key.Binding
	Category   key.Binding
	Cancel     key.Binding
	Edit       key.Binding
	Save       key.Binding
	EditNote   key.Binding
	SaveNote   key.Binding
	Quit       key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	ViewPersonas: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "personas"),
	),
	ViewMemory: key.NewBinding(
		key.WithKeys("f2"),
		key.WithHelp("f2", "memory"),
	),
	ViewSettings: key.NewBinding(
		key.WithKeys("f3"),
		key.WithHelp("f3", "settings"),
	),
	CycleView: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "next view"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	NewSession: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new session"),
	),
	Continue: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "continue session"),
	),
	Input: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "type to agent"),
	),
	LeaveInput: key.NewBinding(
		key.WithKeys("ctrl+\\"),
		key.WithHelp("ctrl+\\", "leave input"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next tab"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev tab"),
	),
	SelectTab: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "go to tab"),
	),
	CloseTab: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "close tab"),
	),
	Expand: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "expand"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Category: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "memories/knowledgebase"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "edit"),
	),
	Save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save config"),
	),
	EditNote: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit note"),
	),
	SaveNote: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save note"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// bindings adapts a flat binding list to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k KeyMap) personasHelp() bindings {
	return bindings{k.Open, k.NewSession, k.Continue, k.Input, k.NextTab, k.CloseTab, k.Expand, k.CycleView, k.Quit}
}

func (k KeyMap) memoryHelp() bindings {
	return bindings{k.Search, k.Category, k.Up, k.Down, k.Open, k.EditNote, k.CycleView, k.Quit}
}

func (k KeyMap) noteHelp() bindings {
	return bindings{k.SaveNote, k.Cancel}
}

func (k KeyMap) settingsHelp() bindings {
	return bindings{k.Up, k.Down, k.Edit, k.Save, k.CycleView, k.Quit}
}

func (k KeyMap) inputHelp() bindings {
	return bindings{k.LeaveInput}
}
