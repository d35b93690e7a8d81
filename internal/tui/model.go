// Package tui renders the application state in the terminal and forwards
// window-scoped key presses to the controller.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/alkime/screentalk/internal/controller"
	"github.com/alkime/screentalk/internal/tui/components/phases"
	"github.com/alkime/screentalk/internal/tui/style"
	"github.com/alkime/screentalk/pkg/uictl"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Config wires the TUI to the controller.
type Config struct {
	Cancel      context.CancelFunc
	Trigger     uictl.Button
	Reset       uictl.Button
	Phase       uictl.Gauge[controller.Phase]
	Transitions <-chan controller.Transition

	// Display only.
	Hotkey         string
	ControlAddr    string
	RequestTimeout time.Duration
}

// TransitionMsg delivers a controller transition to the program.
type TransitionMsg controller.Transition

type transitionsClosedMsg struct{}

type pressedMsg struct {
	action   string
	accepted bool
}

type model struct {
	config       Config
	keys         KeyMap
	phases       phases.Model[controller.Phase]
	notice       string
	windowWidth  int
	windowHeight int
}

// New creates the TUI model.
func New(config Config) tea.Model {
	initial := controller.Idle
	if config.Phase != nil {
		initial = config.Phase.Read()
	}

	m := &model{
		config:       config,
		keys:         DefaultKeyMap(),
		windowWidth:  80,
		windowHeight: 24,
	}

	m.phases = phases.New(initial, map[controller.Phase]phases.Phase{
		controller.Idle:    phases.NewPhase("Idle", newIdle(config.Hotkey, nil)),
		controller.Loading: phases.NewPhase("Loading", newLoading(config.RequestTimeout)),
		controller.Talking: phases.NewPhase("Talking", newTalking("", m.windowWidth, m.windowHeight)),
	})

	return m
}

// Init returns the initial command.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.phases.Init(), m.listen())
}

// Update handles all messages.
func (m *model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
			if m.config.Cancel != nil {
				m.config.Cancel()
			}

			return m, tea.Quit

		case key.Matches(msg, m.keys.Trigger):
			return m, press(m.config.Trigger, "trigger")

		case key.Matches(msg, m.keys.Reset):
			return m, press(m.config.Reset, "reset")
		}

	case pressedMsg:
		m.notice = ""
		if !msg.accepted {
			switch msg.action {
			case "trigger":
				m.notice = "Busy: the current cycle must finish or be reset first."
			case "reset":
				m.notice = "Nothing to reset."
			}
		}

		return m, nil

	case TransitionMsg:
		return m, m.enter(controller.Transition(msg))

	case transitionsClosedMsg:
		return m, nil
	}

	updatedPhases, cmd := m.phases.Update(teaMsg)
	m.phases = updatedPhases.(phases.Model[controller.Phase]) //nolint:forcetypeassert // phases.Model always returns phases.Model

	return m, cmd
}

// enter installs a fresh model for the phase being entered and makes it
// current.
func (m *model) enter(t controller.Transition) tea.Cmd {
	m.notice = ""

	var mdl tea.Model
	switch t.To {
	case controller.Idle:
		mdl = newIdle(m.config.Hotkey, &t)
	case controller.Loading:
		mdl = newLoading(m.config.RequestTimeout)
	case controller.Talking:
		mdl = newTalking(t.Text, m.windowWidth, m.windowHeight)
	default:
		return m.listen()
	}

	// Set synchronously so the view never lags the transition order.
	var cmd tea.Cmd
	m.phases, cmd = m.phases.Set(t.To, mdl)

	return tea.Batch(m.listen(), cmd)
}

// View renders the current UI.
func (m *model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Subtitle.Render("screentalk · Phase: " + m.phases.CurrentPhaseName()))
	if m.config.ControlAddr != "" {
		sb.WriteString(style.Muted.Render("  control: http://" + m.config.ControlAddr))
	}
	sb.WriteString("\n\n")

	sb.WriteString(m.phases.View())
	sb.WriteString("\n\n")

	if m.notice != "" {
		sb.WriteString(style.Warning.Render(m.notice))
		sb.WriteString("\n")
	}
	sb.WriteString(helpLine(m.keys.ShortHelp()...))

	return sb.String()
}

func (m *model) listen() tea.Cmd {
	ch := m.config.Transitions
	if ch == nil {
		return nil
	}

	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return transitionsClosedMsg{}
		}
		return TransitionMsg(t)
	}
}

// press runs the button off the update loop since the controller answers
// asynchronously.
func press(b uictl.Button, action string) tea.Cmd {
	if b == nil {
		return nil
	}

	return func() tea.Msg {
		return pressedMsg{action: action, accepted: b.Press()}
	}
}
