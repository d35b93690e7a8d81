// Package channels holds small generic helpers for fanning typed values out
// to many readers without letting a slow reader stall the writer.
package channels

import (
	"errors"
)

var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrChannelTimeout = errors.New("send timeout")
	ErrChannelFull    = errors.New("channel full")
)
