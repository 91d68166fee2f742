package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	MoveLeft    key.Binding
	MoveRight   key.Binding
	Tab         key.Binding
	Enter       key.Binding
	Add         key.Binding
	Done        key.Binding
	Delete      key.Binding
	DoneAll     key.Binding
	ClearAll    key.Binding
	Search      key.Binding
	Select      key.Binding
	Notifs      key.Binding
	ReadAll     key.Binding
	DND         key.Binding
	Help        key.Binding
	Quit        key.Binding
	Escape      key.Binding
	Logout      key.Binding
	Refresh     key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	MoveLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
	MoveRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "board/invoices")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle/confirm")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Done:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	DoneAll:   key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "mark all done")),
	ClearAll:  key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear board")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search invoices")),
	Select:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select invoice")),
	Notifs:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
	ReadAll:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark all read")),
	DND:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "do not disturb")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Refresh:   key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("R", "refresh")),
}
