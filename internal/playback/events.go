package playback

import (
	"time"

	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/song"
)

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when playback starts on a different song.
//
// Emitted when a load actually reaches the audio backend: direct
// plays, next/previous navigation, and automatic advance at track
// end. Loads superseded by a newer request never emit.
//
// Media session publishing, artwork, and any other track side
// effects should hang off this event.
type TrackChange struct {
	Previous      *song.Song
	Current       *song.Song
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	IDs   []string
	Index int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode queue.RepeatMode
	Shuffle    bool
}

// PositionChange is emitted when a seek occurs.
type PositionChange struct {
	Position time.Duration
}

// ErrorEvent is emitted when an error occurs during playback.
type ErrorEvent struct {
	Operation string // e.g., "play", "advance"
	SongID    string
	Err       error
}
