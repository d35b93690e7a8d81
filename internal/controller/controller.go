// Package controller runs the capture → recognize → talk state machine.
//
// A single event loop owns the current phase. Triggers, resets, and the
// results of background work are all delivered to that loop as events, so
// phase changes never race and at most one cycle is in flight.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alkime/screentalk/internal/capture"
	"github.com/alkime/screentalk/internal/recognize"
	"github.com/alkime/screentalk/internal/voice"
	"github.com/alkime/screentalk/pkg/channels"
	"github.com/google/uuid"
)

// Deps are the collaborators a Controller drives.
type Deps struct {
	Capturer   capture.Capturer
	Recognizer recognize.Recognizer
	Session    voice.Session

	// Optional.
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Controller sequences one capture, recognition, and voice session per
// accepted trigger.
type Controller struct {
	deps   Deps
	logger *slog.Logger

	phase   atomic.Int32
	events  chan any
	done    chan struct{}
	running atomic.Bool
	bcast   *channels.Broadcaster[Transition]
	subs    int

	// owned by the loop goroutine
	publish     chan<- Transition
	cycle       string
	cycleCtx    context.Context //nolint:containedctx // scoped to one cycle, cancelled by endCycle
	cancelCycle context.CancelFunc
}

// New creates a controller in the Idle phase.
func New(deps Deps) (*Controller, error) {
	if deps.Capturer == nil || deps.Recognizer == nil || deps.Session == nil {
		return nil, errors.New("controller requires a capturer, a recognizer, and a voice session")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	return &Controller{
		deps:   deps,
		logger: deps.Logger,
		events: make(chan any),
		done:   make(chan struct{}),
		bcast:  channels.NewBroadcaster[Transition](),
	}, nil
}

// Subscribe registers ch to receive every transition without blocking the
// loop; a full channel misses transitions. Must be called before Run.
func (c *Controller) Subscribe(ch chan<- Transition) error {
	if err := c.bcast.Subscribe(ch); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.subs++
	return nil
}

// SubscribeWithTimeout registers ch with a bounded delivery wait. Must be
// called before Run.
func (c *Controller) SubscribeWithTimeout(ch chan<- Transition, timeout time.Duration) error {
	if err := c.bcast.SubscribeWithTimeout(ch, timeout); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	c.subs++
	return nil
}

// Phase returns the current phase. Safe for concurrent use.
func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

// Trigger asks for a new cycle. It reports false when the cycle was not
// started because one is already in flight or the controller is stopped.
// Calls block until Run is serving events.
func (c *Controller) Trigger() bool {
	return c.request(requestTrigger)
}

// Reset abandons the current cycle and returns to Idle. Loading work is
// cancelled and an open voice session is released. It reports false when
// already Idle.
func (c *Controller) Reset() bool {
	return c.request(requestReset)
}

func (c *Controller) request(kind requestKind) bool {
	reply := make(chan bool, 1)
	select {
	case c.events <- request{kind: kind, reply: reply}:
	case <-c.done:
		return false
	}

	select {
	case ok := <-reply:
		return ok
	case <-c.done:
		return false
	}
}

// Run serves events until ctx is cancelled. Cancelling ctx also cancels
// any in-flight capture, recognition, or voice session.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("controller already running")
	}
	defer close(c.done)

	// The broadcaster outlives the loop so no publish races its shutdown.
	bctx, stopBroadcast := context.WithCancel(context.Background())
	defer func() {
		stopBroadcast()
		c.bcast.Wait()
		c.logDrops()
	}()

	if c.subs > 0 {
		publish, err := c.bcast.Run(bctx)
		if err != nil {
			return fmt.Errorf("failed to start transition broadcaster: %w", err)
		}
		c.publish = publish
	}

	c.logger.Info("controller started", "phase", c.Phase())

	for {
		select {
		case <-ctx.Done():
			c.endCycle()
			c.logger.Info("controller stopped", "phase", c.Phase())
			return nil

		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev any) {
	if ce, ok := ev.(cycleEvent); ok && ce.cycleID() != c.cycle {
		c.logger.Debug("discarding result from stale cycle",
			"cycle", ce.cycleID(), "current", c.cycle, "event", fmt.Sprintf("%T", ev))
		if se, ok := ev.(sessionStarted); ok {
			se.call.End("stale")
		}
		return
	}

	switch ev := ev.(type) {
	case request:
		ev.reply <- c.handleRequest(ctx, ev.kind)

	case recognized:
		if c.Phase() != Loading {
			return
		}
		c.transition(Talking, CauseRecognized, nil, ev.text)
		c.goSession(ev.cycle, ev.text)

	case failed:
		if c.Phase() != ev.from {
			return
		}
		c.endCycle()
		c.transition(Idle, ev.cause, ev.err, "")

	case sessionStarted:
		if c.Phase() != Talking {
			ev.call.End("stale")
			return
		}
		c.goWatch(ev.cycle, ev.call)

	case sessionEnded:
		if c.Phase() != Talking {
			return
		}
		c.endCycle()
		c.transition(Idle, CauseSessionEnded, nil, "")
	}
}

func (c *Controller) handleRequest(ctx context.Context, kind requestKind) bool {
	switch kind {
	case requestTrigger:
		if p := c.Phase(); p != Idle {
			c.logger.Debug("trigger ignored while busy", "phase", p, "cycle", c.cycle)
			return false
		}
		c.startCycle(ctx)
		return true

	case requestReset:
		if c.Phase() == Idle {
			return false
		}
		c.endCycle()
		c.transition(Idle, CauseReset, nil, "")
		return true

	default:
		return false
	}
}

func (c *Controller) startCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithCancel(ctx)
	c.cycle = c.deps.NewID()
	c.cycleCtx = cycleCtx
	c.cancelCycle = cancel
	c.transition(Loading, CauseTrigger, nil, "")

	go c.runCycle(cycleCtx, c.cycle)
}

// endCycle cancels the current cycle's work, including a live voice session.
func (c *Controller) endCycle() {
	if c.cancelCycle != nil {
		c.cancelCycle()
		c.cancelCycle = nil
	}
}

// runCycle captures and recognizes, delivering exactly one result event.
func (c *Controller) runCycle(ctx context.Context, cycle string) {
	path, err := c.deps.Capturer.Capture(ctx)
	if err != nil {
		c.deliver(failed{cycle: cycle, from: Loading, cause: CauseCaptureFailed, err: err})
		return
	}

	text, err := c.deps.Recognizer.Recognize(ctx, path)
	if err != nil {
		c.deliver(failed{cycle: cycle, from: Loading, cause: CauseRecognitionFailed, err: err})
		return
	}

	c.deliver(recognized{cycle: cycle, text: text})
}

func (c *Controller) goSession(cycle, text string) {
	ctx := c.cycleCtx
	go func() {
		call, err := c.deps.Session.Start(ctx, text)
		if err != nil {
			c.deliver(failed{cycle: cycle, from: Talking, cause: CauseSessionFailed, err: err})
			return
		}
		c.deliver(sessionStarted{cycle: cycle, call: call})
	}()
}

func (c *Controller) goWatch(cycle string, call *voice.Call) {
	ctx := c.cycleCtx
	go func() {
		select {
		case <-call.Done():
			c.deliver(sessionEnded{cycle: cycle, reason: call.EndedReason()})
		case <-ctx.Done():
			call.End("cancelled")
		}
	}()
}

// logDrops reports subscribers that missed transitions. Indexes follow
// subscription order.
func (c *Controller) logDrops() {
	if c.subs == 0 {
		return
	}

	for i, st := range c.bcast.Stats() {
		if st.Dropped == 0 {
			continue
		}
		c.logger.Warn("subscriber missed transitions",
			"subscriber", i, "dropped", st.Dropped, "closed", st.Inactive)
	}
}

// deliver hands a background result to the loop, giving up once the loop
// has exited.
func (c *Controller) deliver(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// transition moves to the next phase, logs, and notifies subscribers.
// Entering Idle closes the cycle.
func (c *Controller) transition(to Phase, cause string, err error, text string) {
	from := c.Phase()
	if !allowed(from, to) {
		c.logger.Error("illegal phase change refused", "from", from, "to", to, "cause", cause, "cycle", c.cycle)
		return
	}

	c.phase.Store(int32(to))

	t := Transition{
		Cycle: c.cycle,
		From:  from,
		To:    to,
		Cause: cause,
		Err:   err,
		Text:  text,
		At:    c.deps.Now(),
	}

	attrs := []any{"from", from, "to", to, "cause", cause, "cycle", t.Cycle}
	if err != nil {
		c.logger.Warn("phase changed", append(attrs, "error", err)...)
	} else {
		c.logger.Info("phase changed", attrs...)
	}

	if c.publish != nil {
		c.publish <- t
	}

	if to == Idle {
		c.cycle = ""
		c.cycleCtx = nil
	}
}
