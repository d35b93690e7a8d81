package tui

import (
	"strings"

	"github.com/alkime/screentalk/internal/recognize"
	"github.com/alkime/screentalk/internal/tui/components/pulse"
	"github.com/alkime/screentalk/internal/tui/style"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Space reserved around the viewport: title, pulse, and spacing above;
// header and footer of the root view below.
const (
	talkingChrome = 10
	minViewport   = 5
)

// talkingModel animates while the voice session is live and shows the text
// the assistant was given.
type talkingModel struct {
	pulse    pulse.Model
	viewport viewport.Model
	sections recognize.Sections
}

func newTalking(text string, width, height int) *talkingModel {
	m := &talkingModel{
		pulse:    pulse.New(width - 4),
		sections: recognize.ParseSections(text),
	}
	m.viewport = viewport.New(width-4, max(height-talkingChrome, minViewport))
	m.viewport.SetContent(m.content(width - 4))

	return m
}

func (m *talkingModel) Init() tea.Cmd {
	return m.pulse.Init()
}

func (m *talkingModel) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if wsm, ok := teaMsg.(tea.WindowSizeMsg); ok {
		m.viewport.Width = wsm.Width - 4
		m.viewport.Height = max(wsm.Height-talkingChrome, minViewport)
		m.viewport.SetContent(m.content(m.viewport.Width))
	}

	var cmd tea.Cmd
	m.pulse, cmd = m.pulse.Update(teaMsg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(teaMsg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *talkingModel) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Talking"))
	sb.WriteString(" ")
	sb.WriteString(style.Subtitle.Render("voice session open in your browser"))
	sb.WriteString("\n\n")
	sb.WriteString(m.pulse.View())
	sb.WriteString("\n\n")
	sb.WriteString(style.Viewport.Render(m.viewport.View()))

	return sb.String()
}

func (m *talkingModel) content(width int) string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Summary:"))
	sb.WriteString("\n")
	sb.WriteString(wrapText(m.sections.Summary, width))

	if m.sections.OCR != "" {
		sb.WriteString("\n\n")
		sb.WriteString(style.Label.Render("Screen text:"))
		sb.WriteString("\n")
		sb.WriteString(wrapText(m.sections.OCR, width))
	}

	return sb.String()
}

// wrapText wraps text to fit within the given width using lipgloss.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	return lipgloss.NewStyle().Width(width).Render(text)
}
