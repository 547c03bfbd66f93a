package player

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPlaybackBlocked means the output refused to start. The source stays loaded and paused.
	ErrPlaybackBlocked = errors.New("playback blocked by audio output")
	// ErrNoSource is returned when playback is requested before anything was loaded.
	ErrNoSource = errors.New("no media loaded")
)

type EventKind int

const (
	EventTimeUpdate EventKind = iota
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a Media element while it plays.
type Event struct {
	Kind     EventKind
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Media is a single playable element. Implementations must not block when emitting events.
type Media interface {
	Load(ctx context.Context, src string) error
	Play() error
	Pause()
	Position() time.Duration
	SetPosition(d time.Duration) error
	// Duration returns false while the length is unknown.
	Duration() (time.Duration, bool)
	SetVolume(v float64)
	Events() <-chan Event
	Close() error
}
