package controller

import "github.com/alkime/screentalk/internal/voice"

type requestKind int

const (
	requestTrigger requestKind = iota
	requestReset
)

// request is a caller asking the loop to act; the loop answers on reply.
type request struct {
	kind  requestKind
	reply chan bool
}

// cycleEvent carries the cycle id so results from a cancelled cycle can be
// told apart from the current one.
type cycleEvent interface {
	cycleID() string
}

type recognized struct {
	cycle string
	text  string
}

type failed struct {
	cycle string
	from  Phase
	cause string
	err   error
}

type sessionStarted struct {
	cycle string
	call  *voice.Call
}

type sessionEnded struct {
	cycle  string
	reason string
}

func (e recognized) cycleID() string     { return e.cycle }
func (e failed) cycleID() string         { return e.cycle }
func (e sessionStarted) cycleID() string { return e.cycle }
func (e sessionEnded) cycleID() string   { return e.cycle }
