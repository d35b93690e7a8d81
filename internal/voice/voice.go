// Package voice opens voice-assistant sessions primed with screen data.
package voice

import (
	"context"
	"fmt"
	"sync"
)

// ScreenDataVar is the assistant template variable carrying recognized text.
const ScreenDataVar = "screendata"

// Session opens one voice session per call to Start. Returning from Start
// means the session was opened, not that it is over; watch Call.Done for
// that.
type Session interface {
	Start(ctx context.Context, screenData string) (*Call, error)
}

// Error reports a session that could not be opened.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("voice session %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Call is a live voice session.
type Call struct {
	ID  string
	URL string

	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	reason string
}

// NewCall returns a call that is still in progress.
func NewCall(id, url string) *Call {
	return &Call{
		ID:   id,
		URL:  url,
		done: make(chan struct{}),
	}
}

// Done is closed once the session has ended.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// EndedReason reports why the session ended. It is empty until Done is
// closed.
func (c *Call) EndedReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// End marks the call as over. Only the first reason is kept.
func (c *Call) End(reason string) {
	c.once.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
}
