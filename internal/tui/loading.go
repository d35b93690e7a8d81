package tui

import (
	"time"

	"github.com/alkime/screentalk/internal/tui/components/labeledspinner"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// newLoading shows capture and recognition progress against the request
// timeout.
func newLoading(timeout time.Duration) tea.Model {
	return labeledspinner.New(
		spinner.Dot,
		"Reading your screen...",
		"Capturing all displays and sending them for recognition",
		timeout,
	)
}
