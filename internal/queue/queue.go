// Package queue holds the ordered song-id sequence currently being
// traversed for playback, with a cursor and the repeat/advance state
// machine. Ids are resolved against the library at play time, never
// cached by value, so library edits show up without requeueing.
package queue

import (
	"errors"
	"math/rand/v2"
)

// ErrOutOfRange is returned for index requests beyond the sequence
// bounds. Callers should no-op or rebuild rather than treat it as
// fatal.
var ErrOutOfRange = errors.New("queue: index out of range")

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Cycle returns the next mode in the off -> all -> one -> off cycle.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Direction selects which way Advance moves.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Queue is an ordered sequence of song ids plus a cursor.
// It is a plain data structure: the owning controller serializes
// access.
type Queue struct {
	ids          []string
	currentIndex int // -1 if nothing playing
	rng          *rand.Rand
}

// New creates an empty queue. rng drives shuffling and may be nil, in
// which case a time-seeded source is used; tests inject a fixed seed.
func New(rng *rand.Rand) *Queue {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Queue{
		ids:          make([]string, 0),
		currentIndex: -1,
		rng:          rng,
	}
}

// Rebuild replaces the sequence with orderedIDs, shuffling a copy
// with an unbiased Fisher-Yates permutation when shuffle is set.
// The cursor is left untouched; callers relocate or reset it.
func (q *Queue) Rebuild(orderedIDs []string, shuffle bool) {
	q.ids = make([]string, len(orderedIDs))
	copy(q.ids, orderedIDs)
	if shuffle {
		for i := len(q.ids) - 1; i > 0; i-- {
			j := q.rng.IntN(i + 1)
			q.ids[i], q.ids[j] = q.ids[j], q.ids[i]
		}
	}
}

// PlayAt moves the cursor to index.
func (q *Queue) PlayAt(index int) error {
	if index < 0 || index >= len(q.ids) {
		return ErrOutOfRange
	}
	q.currentIndex = index
	return nil
}

// InsertAndFocus focuses id if already present; otherwise it prepends
// id and focuses index 0. Used to play a song outside the projected
// scope without rebuilding. Never introduces duplicates.
func (q *Queue) InsertAndFocus(id string) int {
	if i := q.IndexOf(id); i >= 0 {
		q.currentIndex = i
		return i
	}
	q.ids = append([]string{id}, q.ids...)
	q.currentIndex = 0
	return 0
}

// Advance returns the next index to play, without moving the cursor.
// The second return value is false when playback should stop (end of
// queue with repeat off, or no current position to advance from).
func (q *Queue) Advance(dir Direction, mode RepeatMode) (int, bool) {
	n := len(q.ids)
	if n == 0 || q.currentIndex < 0 {
		return -1, false
	}

	if dir == Backward {
		// Never wraps backward past the first track.
		i := q.currentIndex - 1
		if i < 0 {
			i = 0
		}
		return i, true
	}

	switch mode {
	case RepeatOne:
		return q.currentIndex, true
	case RepeatAll:
		return (q.currentIndex + 1) % n, true
	default:
		i := q.currentIndex + 1
		if i >= n {
			return -1, false
		}
		return i, true
	}
}

// RemoveID drops id from the sequence, adjusting the cursor. If the
// removed id was current, the cursor resets to -1: the caller decides
// what plays next.
func (q *Queue) RemoveID(id string) bool {
	i := q.IndexOf(id)
	if i < 0 {
		return false
	}
	q.ids = append(q.ids[:i], q.ids[i+1:]...)
	switch {
	case q.currentIndex == i:
		q.currentIndex = -1
	case q.currentIndex > i:
		q.currentIndex--
	}
	return true
}

// Clear empties the sequence and resets the cursor.
func (q *Queue) Clear() {
	q.ids = q.ids[:0]
	q.currentIndex = -1
}

// Current returns the focused id, or "" when idle.
func (q *Queue) Current() string {
	if q.currentIndex < 0 || q.currentIndex >= len(q.ids) {
		return ""
	}
	return q.ids[q.currentIndex]
}

// CurrentIndex returns the cursor (-1 when idle).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// SetCurrentIndex restores the cursor, clamping invalid values to -1.
func (q *Queue) SetCurrentIndex(i int) {
	if i < 0 || i >= len(q.ids) {
		q.currentIndex = -1
		return
	}
	q.currentIndex = i
}

// ResetCursor marks the queue idle without touching the sequence.
func (q *Queue) ResetCursor() {
	q.currentIndex = -1
}

// IndexOf returns the position of id, or -1.
func (q *Queue) IndexOf(id string) int {
	for i, qid := range q.ids {
		if qid == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is in the sequence.
func (q *Queue) Contains(id string) bool {
	return q.IndexOf(id) >= 0
}

// IDs returns a copy of the sequence.
func (q *Queue) IDs() []string {
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}

// Len returns the sequence length.
func (q *Queue) Len() int {
	return len(q.ids)
}

// IsEmpty reports whether the sequence is empty.
func (q *Queue) IsEmpty() bool {
	return len(q.ids) == 0
}

// HasNext reports whether a track follows the cursor.
func (q *Queue) HasNext() bool {
	return q.currentIndex >= 0 && q.currentIndex < len(q.ids)-1
}
