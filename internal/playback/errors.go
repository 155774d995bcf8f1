package playback

import "errors"

var (
	// ErrSourceUnavailable means the song has no usable source: no
	// binding at all, a file handle without permission, or an
	// unreachable URL.
	ErrSourceUnavailable = errors.New("playback: source unavailable")

	// ErrPlaybackRejected means the audio backend refused the source,
	// usually a decode failure.
	ErrPlaybackRejected = errors.New("playback: rejected by audio backend")

	// ErrStaleReference means a load finished after a newer play
	// request had already superseded it. The newer request wins and
	// the stale result is discarded.
	ErrStaleReference = errors.New("playback: superseded by newer request")

	// ErrUnknownSong means the requested id is not in the library.
	ErrUnknownSong = errors.New("playback: unknown song")
)
