package channels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// subscriber holds a channel and its send timeout configuration.
type subscriber[T any] struct {
	ch       chan<- T
	timeout  *time.Duration // nil means non-blocking
	inactive atomic.Bool
	dropped  atomic.Int32
}

func (s *subscriber[T]) send(msg T) {
	if s.inactive.Load() {
		s.dropped.Add(1)
		return
	}
	var err error
	if s.timeout != nil {
		err = SendWithTimeout(s.ch, msg, *s.timeout)
	} else {
		err = SendNonBlock(s.ch, msg)
	}
	if err != nil {
		// a closed channel never recovers; full or slow ones might
		s.dropped.Add(1)
		if errors.Is(err, ErrChannelClosed) {
			s.inactive.Store(true)
		}
	}
}

// Broadcaster copies every value written to its input channel to each
// subscriber. Subscribers either receive without blocking (values are dropped
// when their buffer is full) or with a bounded wait.
//
// Cancelling the Run context closes the input channel; values already queued
// are still delivered before Wait returns.
type Broadcaster[T any] struct {
	subscribers []*subscriber[T]
	input       chan T
	started     atomic.Bool
	wg          sync.WaitGroup
}

// NewBroadcaster creates a new Broadcaster instance with subscribers for the given type T.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe registers ch for non-blocking delivery.
// Must be called before Run(). Not safe for concurrent use with Run().
func (f *Broadcaster[T]) Subscribe(ch chan<- T) error {
	return f.add(ch, nil)
}

// SubscribeWithTimeout registers ch for delivery that waits up to timeout
// per value before dropping it.
// Must be called before Run(). Not safe for concurrent use with Run().
func (f *Broadcaster[T]) SubscribeWithTimeout(ch chan<- T, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("subscriber timeout must be positive, got %s", timeout)
	}
	return f.add(ch, &timeout)
}

func (f *Broadcaster[T]) add(ch chan<- T, timeout *time.Duration) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}
	if f.started.Load() {
		return errors.New("cannot subscribe after broadcaster started")
	}

	f.subscribers = append(f.subscribers, &subscriber[T]{
		ch:      ch,
		timeout: timeout,
	})

	return nil
}

// Run starts the broadcaster and returns the input channel for sending messages.
//
// The returned channel is owned by Broadcaster and will be closed on context cancellation.
// After closure, all remaining messages are drained to subscribers.
//
// Returns error if already started or no subscribers exist.
func (f *Broadcaster[T]) Run(ctx context.Context) (chan<- T, error) {
	if f.started.Load() {
		return nil, fmt.Errorf("broadcaster already started")
	}

	if len(f.subscribers) == 0 {
		return nil, fmt.Errorf("no subscribers available")
	}

	f.input = make(chan T, len(f.subscribers)*2)

	f.wg.Go(func() {
		for msg := range f.input {
			for _, sub := range f.subscribers {
				sub.send(msg)
			}
		}
	})

	f.started.Store(true)

	go func() {
		<-ctx.Done()
		close(f.input)
		f.wg.Wait()
	}()

	return f.input, nil
}

// Wait blocks until all subscribers have finished processing messages.
// This is useful for waiting for graceful shutdown to complete after
// the context is cancelled. Multiple goroutines can safely call Wait().
func (f *Broadcaster[T]) Wait() {
	f.wg.Wait()
}

// SubscriberStats reports delivery health for one subscriber, in
// subscription order.
type SubscriberStats struct {
	Dropped  int
	Inactive bool
}

// Stats returns a snapshot of per-subscriber counters.
func (f *Broadcaster[T]) Stats() []SubscriberStats {
	stats := make([]SubscriberStats, 0, len(f.subscribers))
	for _, sub := range f.subscribers {
		stats = append(stats, SubscriberStats{
			Dropped:  int(sub.dropped.Load()),
			Inactive: sub.inactive.Load(),
		})
	}
	return stats
}
