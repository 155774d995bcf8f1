// internal/player/interface.go
package player

import (
	"io"
	"time"
)

// Interface defines the player contract for dependency injection and testing.
type Interface interface {
	Play(src io.ReadSeekCloser, format Format) error
	Stop()
	Pause()
	Resume()
	Toggle()
	State() State
	Position() time.Duration
	Duration() time.Duration
	Seek(delta time.Duration)
	SeekTo(pos time.Duration)
	SetVolume(level float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
	FinishedChan() <-chan struct{}
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
