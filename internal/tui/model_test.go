package tui_test

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alkime/screentalk/internal/controller"
	"github.com/alkime/screentalk/internal/tui"
	"github.com/alkime/screentalk/pkg/uictl"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type outputChecker struct {
	intervl, timeout time.Duration
}

func (o outputChecker) CheckString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	}, teatest.WithCheckInterval(o.intervl), teatest.WithDuration(o.timeout))
}

type fixture struct {
	tm          *teatest.TestModel
	transitions chan controller.Transition
	triggers    atomic.Int32
	resets      atomic.Int32
	accept      atomic.Bool
	cancelled   atomic.Bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{transitions: make(chan controller.Transition, 8)}
	f.accept.Store(true)

	m := tui.New(tui.Config{
		Cancel: func() { f.cancelled.Store(true) },
		Trigger: uictl.ButtonFunc(func() bool {
			f.triggers.Add(1)
			return f.accept.Load()
		}),
		Reset: uictl.ButtonFunc(func() bool {
			f.resets.Add(1)
			return f.accept.Load()
		}),
		Phase:          uictl.GaugeFunc[controller.Phase](func() controller.Phase { return controller.Idle }),
		Transitions:    f.transitions,
		Hotkey:         "ctrl+shift+o",
		ControlAddr:    "127.0.0.1:7878",
		RequestTimeout: 30 * time.Second,
	})

	f.tm = teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 40))

	return f
}

func TestTUI_FollowsTransitions(t *testing.T) {
	checker := outputChecker{intervl: 20 * time.Millisecond, timeout: 2 * time.Second}
	f := newFixture(t)

	checker.CheckString(t, f.tm, "ctrl+shift+o")

	f.transitions <- controller.Transition{From: controller.Idle, To: controller.Loading, Cause: controller.CauseTrigger}
	checker.CheckString(t, f.tm, "Reading your screen")

	f.transitions <- controller.Transition{
		From:  controller.Loading,
		To:    controller.Talking,
		Cause: controller.CauseRecognized,
		Text:  "SUMMARY: a cat photo\nOCR: Whiskers",
	}
	checker.CheckString(t, f.tm, "Whiskers")

	f.transitions <- controller.Transition{From: controller.Talking, To: controller.Idle, Cause: controller.CauseSessionEnded}
	checker.CheckString(t, f.tm, "Voice session ended")

	f.transitions <- controller.Transition{From: controller.Idle, To: controller.Loading, Cause: controller.CauseTrigger}
	f.transitions <- controller.Transition{
		From:  controller.Loading,
		To:    controller.Idle,
		Cause: controller.CauseCaptureFailed,
		Err:   errors.New("display not accessible"),
	}
	checker.CheckString(t, f.tm, "display not accessible")

	require.NoError(t, f.tm.Quit())

	final := f.tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second))
	assert.Contains(t, final.View(), "control: http://127.0.0.1:7878")
	assert.Contains(t, final.View(), "Phase: Idle")
}

func TestTUI_KeysDriveButtons(t *testing.T) {
	checker := outputChecker{intervl: 20 * time.Millisecond, timeout: 2 * time.Second}
	f := newFixture(t)
	checker.CheckString(t, f.tm, "Ready")

	f.tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.Eventually(t, func() bool { return f.triggers.Load() == 1 }, time.Second, 5*time.Millisecond)

	f.accept.Store(false)
	f.tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	checker.CheckString(t, f.tm, "Busy")
	assert.Equal(t, int32(2), f.triggers.Load())

	f.tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	checker.CheckString(t, f.tm, "Nothing to reset")
	assert.Equal(t, int32(1), f.resets.Load())

	f.tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	f.tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	assert.True(t, f.cancelled.Load())
}

func TestTUI_BackToBackTransitionsEndOnLastPhase(t *testing.T) {
	checker := outputChecker{intervl: 20 * time.Millisecond, timeout: 2 * time.Second}
	f := newFixture(t)
	checker.CheckString(t, f.tm, "Ready")

	// An instant capture failure: Loading and Idle arrive together.
	for range 3 {
		f.transitions <- controller.Transition{From: controller.Idle, To: controller.Loading, Cause: controller.CauseTrigger}
		f.transitions <- controller.Transition{
			From:  controller.Loading,
			To:    controller.Idle,
			Cause: controller.CauseCaptureFailed,
			Err:   errors.New("no displays"),
		}
	}
	checker.CheckString(t, f.tm, "no displays")

	require.NoError(t, f.tm.Quit())

	view := f.tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).View()
	assert.Contains(t, view, "Phase: Idle")
	assert.NotContains(t, view, "Reading your screen")
}

func TestTUI_TransitionsApplyInOrder(t *testing.T) {
	var m tea.Model = tui.New(tui.Config{Hotkey: "ctrl+shift+o", RequestTimeout: time.Second})

	m, _ = m.Update(tui.TransitionMsg{From: controller.Idle, To: controller.Loading, Cause: controller.CauseTrigger})
	assert.Contains(t, m.View(), "Phase: Loading")

	m, _ = m.Update(tui.TransitionMsg{From: controller.Loading, To: controller.Idle, Cause: controller.CauseReset})
	assert.Contains(t, m.View(), "Phase: Idle")
	assert.Contains(t, m.View(), "Reset.")
}
