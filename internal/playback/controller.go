// Package playback drives the audio player from the playing queue:
// it resolves song sources, serializes racing play requests, applies
// repeat and shuffle modes, and fans out events to subscribers.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/acavaille/stanza/internal/player"
	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/song"
)

// DefaultRestartThreshold is how far into a track Previous restarts
// it instead of moving back.
const DefaultRestartThreshold = 3 * time.Second

// SongResolver looks up songs by id and persists lazily probed
// durations. *library.Library satisfies it.
type SongResolver interface {
	Get(id string) (song.Song, bool)
	SetDuration(id string, d time.Duration)
}

// Controller owns the playing queue and the audio player. All public
// methods are safe for concurrent use; blocking source resolution
// happens outside the lock, and a generation counter makes the most
// recent play request win any race.
type Controller struct {
	mu sync.Mutex

	player player.Interface
	queue  *queue.Queue
	songs  SongResolver
	log    *slog.Logger
	client *http.Client

	repeat  queue.RepeatMode
	shuffle bool

	restartThreshold time.Duration

	gen uint64 // bumped per play intent; stale loads are discarded

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// New creates a controller and starts its track-finished loop.
func New(p player.Interface, q *queue.Queue, songs SongResolver, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		player:           p,
		queue:            q,
		songs:            songs,
		log:              log,
		client:           &http.Client{Timeout: 30 * time.Second},
		restartThreshold: DefaultRestartThreshold,
		done:             make(chan struct{}),
	}
	c.wg.Add(1)
	go c.finishedLoop()
	return c
}

// SetRestartThreshold overrides how far into a track Previous
// restarts instead of going back.
func (c *Controller) SetRestartThreshold(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.restartThreshold = d
	}
}

// SetHTTPClient overrides the client used to fetch URL sources.
func (c *Controller) SetHTTPClient(client *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client != nil {
		c.client = client
	}
}

// Rebuild replaces the queue with orderedIDs, shuffling when shuffle
// mode is on. If the currently playing song is still present its
// position is preserved, so toggling shuffle never interrupts
// playback.
func (c *Controller) Rebuild(orderedIDs []string) {
	c.mu.Lock()
	current := c.queue.Current()
	c.queue.Rebuild(orderedIDs, c.shuffle)
	if current != "" {
		c.queue.SetCurrentIndex(c.queue.IndexOf(current))
	} else {
		c.queue.ResetCursor()
	}
	e := QueueChange{IDs: c.queue.IDs(), Index: c.queue.CurrentIndex()}
	c.mu.Unlock()

	c.broadcast(func(s *Subscription) { s.sendQueue(e) })
}

// PlayIndex starts playback at the given queue position.
func (c *Controller) PlayIndex(ctx context.Context, index int) error {
	c.mu.Lock()
	prev := c.currentSongLocked()
	prevIndex := c.queue.CurrentIndex()
	if err := c.queue.PlayAt(index); err != nil {
		c.mu.Unlock()
		return err
	}
	id := c.queue.Current()
	gen := c.nextGenLocked()
	c.mu.Unlock()

	return c.load(ctx, gen, id, prev, prevIndex)
}

// PlayID starts playback of id. If the song is not in the queue it is
// prepended, so playing from outside the current scope works without
// rebuilding.
func (c *Controller) PlayID(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.songs.Get(id); !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSong, id)
	}
	prev := c.currentSongLocked()
	prevIndex := c.queue.CurrentIndex()
	inserted := !c.queue.Contains(id)
	c.queue.InsertAndFocus(id)
	gen := c.nextGenLocked()
	var queueEvent *QueueChange
	if inserted {
		queueEvent = &QueueChange{IDs: c.queue.IDs(), Index: c.queue.CurrentIndex()}
	}
	c.mu.Unlock()

	if queueEvent != nil {
		c.broadcast(func(s *Subscription) { s.sendQueue(*queueEvent) })
	}
	return c.load(ctx, gen, id, prev, prevIndex)
}

// Next advances to the following track. Explicit navigation always
// moves; repeat-one only replays at natural track end.
func (c *Controller) Next(ctx context.Context) error {
	return c.advance(ctx, queue.Forward, true)
}

// Previous restarts the current track when more than the restart
// threshold has elapsed, otherwise moves to the preceding track.
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	threshold := c.restartThreshold
	c.mu.Unlock()

	if c.player.State().IsActive() && c.player.Position() > threshold {
		c.player.SeekTo(0)
		c.broadcast(func(s *Subscription) { s.sendPosition(0) })
		return nil
	}
	return c.advance(ctx, queue.Backward, true)
}

func (c *Controller) advance(ctx context.Context, dir queue.Direction, explicit bool) error {
	c.mu.Lock()
	prev := c.currentSongLocked()
	prevIndex := c.queue.CurrentIndex()
	mode := c.repeat
	if explicit && mode == queue.RepeatOne {
		mode = queue.RepeatOff
	}
	next, ok := c.queue.Advance(dir, mode)
	if !ok {
		c.mu.Unlock()
		// The queue ran out. The cursor stays on the last track and
		// the player pauses where it is.
		c.Pause()
		return nil
	}
	_ = c.queue.PlayAt(next)
	id := c.queue.Current()
	gen := c.nextGenLocked()
	c.mu.Unlock()

	return c.load(ctx, gen, id, prev, prevIndex)
}

// Pause pauses playback.
func (c *Controller) Pause() {
	before := c.State()
	c.player.Pause()
	c.emitStateChange(before)
}

// Resume resumes paused playback.
func (c *Controller) Resume() {
	before := c.State()
	c.player.Resume()
	c.emitStateChange(before)
}

// Toggle pauses or resumes. When stopped with a focused track it
// restarts that track; with an idle cursor it is a no-op and the
// caller decides what to play.
func (c *Controller) Toggle(ctx context.Context) error {
	switch c.player.State() {
	case player.Playing:
		c.Pause()
		return nil
	case player.Paused:
		c.Resume()
		return nil
	default:
		c.mu.Lock()
		index := c.queue.CurrentIndex()
		c.mu.Unlock()
		if index < 0 {
			return nil
		}
		return c.PlayIndex(ctx, index)
	}
}

// Stop halts playback, leaving the cursor in place.
func (c *Controller) Stop() {
	c.stopPlayer()
}

func (c *Controller) stopPlayer() {
	before := c.State()
	c.player.Stop()
	c.emitStateChange(before)
}

// Seek moves the position by delta.
func (c *Controller) Seek(delta time.Duration) {
	c.player.Seek(delta)
	pos := c.player.Position()
	c.broadcast(func(s *Subscription) { s.sendPosition(pos) })
}

// SeekTo moves the position to pos.
func (c *Controller) SeekTo(pos time.Duration) {
	c.player.SeekTo(pos)
	p := c.player.Position()
	c.broadcast(func(s *Subscription) { s.sendPosition(p) })
}

// RemoveID drops id from the queue. Removing the playing song stops
// playback and leaves the cursor idle.
func (c *Controller) RemoveID(id string) {
	c.mu.Lock()
	wasCurrent := c.queue.Current() == id
	removed := c.queue.RemoveID(id)
	var e QueueChange
	if removed {
		e = QueueChange{IDs: c.queue.IDs(), Index: c.queue.CurrentIndex()}
	}
	c.mu.Unlock()

	if !removed {
		return
	}
	if wasCurrent {
		c.stopPlayer()
	}
	c.broadcast(func(s *Subscription) { s.sendQueue(e) })
}

// State returns the playback state.
func (c *Controller) State() State {
	switch c.player.State() {
	case player.Playing:
		return StatePlaying
	case player.Paused:
		return StatePaused
	default:
		return StateStopped
	}
}

// Current returns the focused song, if any.
func (c *Controller) Current() (song.Song, bool) {
	c.mu.Lock()
	id := c.queue.Current()
	c.mu.Unlock()
	if id == "" {
		return song.Song{}, false
	}
	return c.songs.Get(id)
}

// CurrentIndex returns the queue cursor (-1 when idle).
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.CurrentIndex()
}

// QueueIDs returns a copy of the queued ids.
func (c *Controller) QueueIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.IDs()
}

// Position returns the playback position.
func (c *Controller) Position() time.Duration {
	return c.player.Position()
}

// Duration returns the current track length.
func (c *Controller) Duration() time.Duration {
	return c.player.Duration()
}

// RepeatMode returns the active repeat mode.
func (c *Controller) RepeatMode() queue.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repeat
}

// SetRepeatMode sets the repeat mode.
func (c *Controller) SetRepeatMode(m queue.RepeatMode) {
	c.mu.Lock()
	c.repeat = m
	e := ModeChange{RepeatMode: c.repeat, Shuffle: c.shuffle}
	c.mu.Unlock()
	c.broadcast(func(s *Subscription) { s.sendMode(e) })
}

// CycleRepeatMode advances off -> all -> one -> off and returns the
// new mode.
func (c *Controller) CycleRepeatMode() queue.RepeatMode {
	c.mu.Lock()
	c.repeat = c.repeat.Cycle()
	m := c.repeat
	e := ModeChange{RepeatMode: c.repeat, Shuffle: c.shuffle}
	c.mu.Unlock()
	c.broadcast(func(s *Subscription) { s.sendMode(e) })
	return m
}

// Shuffle returns whether shuffle mode is on.
func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffle
}

// SetShuffle sets shuffle mode. The caller rebuilds the queue from
// the active scope afterwards; the flag alone does not reorder.
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	c.shuffle = enabled
	e := ModeChange{RepeatMode: c.repeat, Shuffle: c.shuffle}
	c.mu.Unlock()
	c.broadcast(func(s *Subscription) { s.sendMode(e) })
}

// ToggleShuffle flips shuffle mode and returns the new value.
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	c.shuffle = !c.shuffle
	v := c.shuffle
	e := ModeChange{RepeatMode: c.repeat, Shuffle: c.shuffle}
	c.mu.Unlock()
	c.broadcast(func(s *Subscription) { s.sendMode(e) })
	return v
}

// Snapshot captures the queue and modes for persistence.
func (c *Controller) Snapshot() (ids []string, index int, repeat queue.RepeatMode, shuffle bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.IDs(), c.queue.CurrentIndex(), c.repeat, c.shuffle
}

// Restore reloads a persisted queue without starting playback.
// Ids no longer in the library are dropped; if the focused id
// survives, the cursor follows it.
func (c *Controller) Restore(ids []string, index int, repeat queue.RepeatMode, shuffle bool) {
	c.mu.Lock()
	var focused string
	if index >= 0 && index < len(ids) {
		focused = ids[index]
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := c.songs.Get(id); ok {
			kept = append(kept, id)
		}
	}
	c.queue.Rebuild(kept, false)
	if focused != "" {
		c.queue.SetCurrentIndex(c.queue.IndexOf(focused))
	}
	c.repeat = repeat
	c.shuffle = shuffle
	qe := QueueChange{IDs: c.queue.IDs(), Index: c.queue.CurrentIndex()}
	me := ModeChange{RepeatMode: c.repeat, Shuffle: c.shuffle}
	c.mu.Unlock()

	c.broadcast(func(s *Subscription) {
		s.sendQueue(qe)
		s.sendMode(me)
	})
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Close stops playback and shuts down the controller.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()
	c.player.Stop()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()

	return nil
}

// currentSongLocked requires c.mu held.
func (c *Controller) currentSongLocked() *song.Song {
	id := c.queue.Current()
	if id == "" {
		return nil
	}
	s, ok := c.songs.Get(id)
	if !ok {
		return nil
	}
	return &s
}

// nextGenLocked requires c.mu held.
func (c *Controller) nextGenLocked() uint64 {
	c.gen++
	return c.gen
}

// load resolves and plays id. gen identifies the play intent: if a
// newer intent arrives while this one is resolving, the result is
// discarded and ErrStaleReference returned.
func (c *Controller) load(ctx context.Context, gen uint64, id string, prev *song.Song, prevIndex int) error {
	s, ok := c.songs.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSong, id)
	}

	src, format, err := c.resolveSource(ctx, s)
	if err != nil {
		c.emitError("play", id, err)
		return err
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		src.Close()
		return fmt.Errorf("%w: %s", ErrStaleReference, id)
	}
	index := c.queue.CurrentIndex()
	c.mu.Unlock()

	before := c.State()
	if err := c.player.Play(src, format); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrPlaybackRejected, id, err)
		c.emitError("play", id, err)
		return err
	}

	if s.Duration == 0 {
		if d := c.player.Duration(); d > 0 {
			c.songs.SetDuration(id, d)
			s.Duration = d
		}
	}

	c.log.Debug("playing", "song", id, "format", string(format))

	cur := s
	te := TrackChange{Previous: prev, Current: &cur, PreviousIndex: prevIndex, Index: index}
	c.broadcast(func(sub *Subscription) { sub.sendTrack(te) })
	c.emitStateChange(before)
	return nil
}

// finishedLoop advances the queue when a track reaches its natural
// end.
func (c *Controller) finishedLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case <-c.player.FinishedChan():
			if err := c.advance(context.Background(), queue.Forward, false); err != nil && !errors.Is(err, ErrStaleReference) {
				c.log.Warn("auto-advance failed", "error", err)
			}
		}
	}
}

func (c *Controller) emitStateChange(before State) {
	after := c.State()
	if after == before {
		return
	}
	e := StateChange{Previous: before, Current: after}
	c.broadcast(func(s *Subscription) { s.sendState(e) })
}

func (c *Controller) emitError(op, id string, err error) {
	c.log.Warn("playback error", "op", op, "song", id, "error", err)
	e := ErrorEvent{Operation: op, SongID: id, Err: err}
	c.broadcast(func(s *Subscription) { s.sendError(e) })
}

func (c *Controller) broadcast(fn func(*Subscription)) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		fn(sub)
	}
}
