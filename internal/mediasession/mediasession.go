// Package mediasession publishes now-playing metadata and transport
// controls to the host. On Linux this is MPRIS over D-Bus; elsewhere
// it is a no-op.
package mediasession

import (
	"context"
	"time"

	"github.com/acavaille/stanza/internal/playback"
	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/song"
)

// Controls is the slice of the playback controller the host surface
// drives.
type Controls interface {
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Pause()
	Resume()
	Toggle(ctx context.Context) error
	Stop()
	Seek(delta time.Duration)
	SeekTo(pos time.Duration)
	State() playback.State
	Current() (song.Song, bool)
	Position() time.Duration
	Duration() time.Duration
	RepeatMode() queue.RepeatMode
	SetRepeatMode(m queue.RepeatMode)
	Shuffle() bool
	SetShuffle(enabled bool)
	CurrentIndex() int
	QueueIDs() []string
	Subscribe() *playback.Subscription
}

// Verify the playback controller satisfies Controls at compile time.
var _ Controls = (*playback.Controller)(nil)

// Surface is a host integration that can be attached and torn down.
type Surface interface {
	Close() error
}
