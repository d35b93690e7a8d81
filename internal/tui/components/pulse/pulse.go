// Package pulse provides a TUI component that breathes while a voice
// session is live.
package pulse

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alkime/screentalk/internal/tui/style"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// Period is the number of frames in one full pulse.
	Period = 200
	// BaseRadius and Amplitude describe the pulse curve:
	// radius = BaseRadius + Amplitude*(1+sin(frame*π/100)).
	BaseRadius = 120.0
	Amplitude  = 10.0

	// frameStep frames advance per tick; at 50ms ticks one period lasts 2s.
	frameStep    = 5
	tickInterval = 50 * time.Millisecond
)

// Block characters for the fractional tail of the bar (8 levels).
// Index 0 = empty (space), 1-8 = increasing fill levels.
const blockChars = " ▏▎▍▌▋▊▉█"

var lastID atomic.Int64

// TickMsg advances one pulse.
type TickMsg struct {
	id int
}

// Model renders a horizontal bar whose length follows the pulse radius.
type Model struct {
	id    int
	frame int
	width int
}

// New creates a pulse that spans at most width columns.
func New(width int) Model {
	return Model{
		id:    int(lastID.Add(1)),
		width: max(width, 4),
	}
}

// Init starts the animation.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update advances the frame on this pulse's ticks.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if msg.id != m.id {
			return m, nil
		}
		m.frame = (m.frame + frameStep) % Period
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 4)
	}

	return m, nil
}

// Read returns the current radius.
func (m Model) Read() float64 {
	return Radius(m.frame)
}

// Radius is the pulse curve at frame.
func Radius(frame int) float64 {
	return BaseRadius + Amplitude*(1+math.Sin(float64(frame)*math.Pi/100))
}

// Level maps the radius to [0, 1].
func (m Model) Level() float64 {
	return (m.Read() - BaseRadius) / (2 * Amplitude)
}

// View renders the bar centered in width, resting at half width and
// swelling to full width at the peak.
func (m Model) View() string {
	// length in eighths of a cell
	eighths := int(math.Round((0.5 + 0.5*m.Level()) * float64(m.width*8)))
	full, part := eighths/8, eighths%8

	runes := []rune(blockChars)

	var bar strings.Builder
	bar.WriteString(strings.Repeat(string(runes[8]), full))
	if part > 0 {
		bar.WriteRune(runes[part])
		full++
	}

	pad := max((m.width-full)/2, 0)

	return strings.Repeat(" ", pad) + style.Pulse.Render(bar.String())
}

func (m Model) tick() tea.Cmd {
	id := m.id
	return tea.Tick(tickInterval, func(_ time.Time) tea.Msg {
		return TickMsg{id: id}
	})
}
