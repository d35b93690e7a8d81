package channels

import "time"

// SendNonBlock offers msg to ch without waiting. It returns ErrChannelFull
// when ch has no room and ErrChannelClosed when ch is closed.
func SendNonBlock[T any](ch chan<- T, msg T) error {
	return offer(ch, msg, nil)
}

// SendWithTimeout waits up to timeout for ch to accept msg. It returns
// ErrChannelTimeout when the wait runs out and ErrChannelClosed when ch is
// closed.
func SendWithTimeout[T any](ch chan<- T, msg T, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	return offer(ch, msg, timer.C)
}

// offer sends msg unless expired fires first; a nil expired gives up at once.
// Sending on a closed channel panics, which is reported as ErrChannelClosed.
func offer[T any](ch chan<- T, msg T, expired <-chan time.Time) (err error) {
	defer func() {
		if recover() != nil {
			err = ErrChannelClosed
		}
	}()

	if expired == nil {
		select {
		case ch <- msg:
			return nil
		default:
			return ErrChannelFull
		}
	}

	select {
	case ch <- msg:
		return nil
	case <-expired:
		return ErrChannelTimeout
	}
}
