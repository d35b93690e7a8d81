package server

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/screentalk/internal/controller"
	"github.com/alkime/screentalk/pkg/channels"
	"github.com/gin-gonic/gin"
)

// clientBuffer bounds how far a slow stream client may fall behind before
// transitions are dropped for it.
const clientBuffer = 16

// transitionEvent is the wire form of a controller transition.
type transitionEvent struct {
	Cycle string           `json:"cycle"`
	From  controller.Phase `json:"from"`
	To    controller.Phase `json:"to"`
	Cause string           `json:"cause"`
	Error string           `json:"error,omitempty"`
	Text  string           `json:"text,omitempty"`
	At    time.Time        `json:"at"`
}

func newTransitionEvent(t controller.Transition) transitionEvent {
	ev := transitionEvent{
		Cycle: t.Cycle,
		From:  t.From,
		To:    t.To,
		Cause: t.Cause,
		Text:  t.Text,
		At:    t.At,
	}
	if t.Err != nil {
		ev.Error = t.Err.Error()
	}

	return ev
}

// hub fans transitions out to connected stream clients.
type hub struct {
	logger  *slog.Logger
	mu      sync.Mutex
	clients map[chan transitionEvent]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[chan transitionEvent]struct{}),
	}
}

func (h *hub) run(ctx context.Context, in <-chan controller.Transition) {
	if in == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-in:
			h.publish(newTransitionEvent(t))
		}
	}
}

func (h *hub) publish(ev transitionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		if err := channels.SendNonBlock(ch, ev); err != nil {
			h.logger.Warn("Dropped transition for stream client", "to", ev.To, "error", err)
		}
	}
}

func (h *hub) add() chan transitionEvent {
	ch := make(chan transitionEvent, clientBuffer)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *hub) remove(ch chan transitionEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// handleEvents streams transitions as server-sent events. The first event
// reports the phase at connect time.
func (s *Server) handleEvents(c *gin.Context) {
	ch := s.hub.add()
	defer s.hub.remove(ch)

	s.logger.Debug("Stream client connected", "clients", s.hub.count())

	c.Header("Cache-Control", "no-cache")
	c.SSEvent("phase", gin.H{"phase": s.ctrl.Phase()})
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case ev := <-ch:
			c.SSEvent("transition", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	s.logger.Debug("Stream client disconnected")
}
