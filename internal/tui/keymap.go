package tui

import (
	"strings"

	"github.com/alkime/screentalk/internal/tui/style"
	"github.com/alkime/screentalk/pkg/collections"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the window-scoped key bindings. The global hotkey is
// registered separately with the operating system.
type KeyMap struct {
	Trigger   key.Binding
	Reset     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Trigger: key.NewBinding(
			key.WithKeys("t", "enter"),
			key.WithHelp("t/enter", "read screen"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r", "esc"),
			key.WithHelp("r", "reset"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Trigger, k.Reset, k.Quit}
}

// FullHelp returns all bindings with help text.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// helpLine renders "[key] desc" hints for the enabled bindings.
func helpLine(bindings ...key.Binding) string {
	enabled := collections.Filter(bindings, func(b key.Binding) bool {
		return b.Enabled() && b.Help().Key != ""
	})

	hints := collections.Apply(enabled, func(b key.Binding) string {
		return style.Help.Render("[") +
			style.Key.Render(b.Help().Key) +
			style.Help.Render("] "+b.Help().Desc)
	})

	return strings.Join(hints, "  ")
}
