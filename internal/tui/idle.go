package tui

import (
	"fmt"
	"strings"

	"github.com/alkime/screentalk/internal/controller"
	"github.com/alkime/screentalk/internal/tui/style"
	tea "github.com/charmbracelet/bubbletea"
)

// idleModel waits for a trigger and reports how the previous cycle ended.
type idleModel struct {
	hotkey string
	last   *controller.Transition
}

func newIdle(hotkey string, last *controller.Transition) *idleModel {
	return &idleModel{hotkey: hotkey, last: last}
}

func (m *idleModel) Init() tea.Cmd { return nil }

func (m *idleModel) Update(tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

func (m *idleModel) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Ready"))
	sb.WriteString("\n\n")

	if m.hotkey != "" {
		sb.WriteString(style.Subtitle.Render("Press "))
		sb.WriteString(style.Key.Render(m.hotkey))
		sb.WriteString(style.Subtitle.Render(" anywhere to read your screen and start talking about it."))
	} else {
		sb.WriteString(style.Subtitle.Render("Press t to read your screen and start talking about it."))
	}

	if m.last == nil {
		return sb.String()
	}

	sb.WriteString("\n\n")
	switch {
	case m.last.Err != nil:
		sb.WriteString(style.Error.Render(fmt.Sprintf("Last attempt failed (%s): %v", m.last.Cause, m.last.Err)))
	case m.last.Cause == controller.CauseSessionEnded:
		sb.WriteString(style.Muted.Render("Voice session ended."))
	case m.last.Cause == controller.CauseReset:
		sb.WriteString(style.Muted.Render("Reset."))
	}

	return sb.String()
}
