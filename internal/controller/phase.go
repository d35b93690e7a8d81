package controller

import "time"

// Phase is the application's position in the capture, recognize, talk cycle.
type Phase int

const (
	// Idle waits for a trigger.
	Idle Phase = iota
	// Loading captures the screen and recognizes its contents.
	Loading
	// Talking has a voice session open.
	Talking
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Talking:
		return "talking"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON and logs.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Transition causes.
const (
	CauseTrigger           = "trigger"
	CauseRecognized        = "recognized"
	CauseCaptureFailed     = "capture failed"
	CauseRecognitionFailed = "recognition failed"
	CauseSessionFailed     = "session failed"
	CauseSessionEnded      = "session ended"
	CauseReset             = "reset"
)

// Transition describes one phase change.
type Transition struct {
	Cycle string
	From  Phase
	To    Phase
	Cause string
	Err   error
	// Text is the recognition result; set only on the transition into Talking.
	Text string
	At   time.Time
}

// allowed reports whether from→to is a legal edge.
func allowed(from, to Phase) bool {
	switch from {
	case Idle:
		return to == Loading
	case Loading:
		return to == Talking || to == Idle
	case Talking:
		return to == Idle
	default:
		return false
	}
}
