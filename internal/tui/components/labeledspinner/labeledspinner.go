// Package labeledspinner renders a spinner with a title and subtitle, plus
// the time spent so far measured against a deadline.
package labeledspinner

import (
	"fmt"
	"strings"
	"time"

	"github.com/alkime/screentalk/internal/tui/style"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 100 * time.Millisecond
	barWidth     = 40
)

// Model is a bubbletea model for work that has a deadline.
type Model struct {
	spinner   spinner.Model
	stopwatch stopwatch.Model
	bar       progress.Model
	title     string
	subtitle  string
	deadline  time.Duration
}

// New creates a labeled spinner. A zero deadline shows elapsed time only.
func New(s spinner.Spinner, title, subtitle string, deadline time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		spinner:   sp,
		stopwatch: stopwatch.NewWithInterval(tickInterval),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		),
		title:    title,
		subtitle: subtitle,
		deadline: deadline,
	}
}

// Init starts the spinner and the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.stopwatch.Init())
}

// Update advances the spinner and the clock; both ignore ticks that are not
// their own.
func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	var spinCmd, clockCmd tea.Cmd
	m.spinner, spinCmd = m.spinner.Update(teaMsg)
	m.stopwatch, clockCmd = m.stopwatch.Update(teaMsg)

	return m, tea.Batch(spinCmd, clockCmd)
}

// Elapsed reports how long the spinner has been running.
func (m Model) Elapsed() time.Duration {
	return m.stopwatch.Elapsed()
}

// Spent is the fraction of the deadline used so far, capped at 1.
func (m Model) Spent() float64 {
	if m.deadline <= 0 {
		return 0
	}

	return min(float64(m.Elapsed())/float64(m.deadline), 1)
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(m.title))
	sb.WriteString("\n\n")

	sb.WriteString(style.Subtitle.Render(m.subtitle))
	sb.WriteString("\n\n")

	elapsed := m.Elapsed().Round(tickInterval)
	if m.deadline <= 0 {
		sb.WriteString(style.Help.Render(fmt.Sprintf("%s elapsed", elapsed)))
		return sb.String()
	}

	sb.WriteString(m.bar.ViewAs(m.Spent()))
	sb.WriteString("\n")
	sb.WriteString(style.Help.Render(fmt.Sprintf("%s elapsed of %s timeout", elapsed, m.deadline)))

	return sb.String()
}
