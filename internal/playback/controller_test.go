package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/acavaille/stanza/internal/fileaccess"
	"github.com/acavaille/stanza/internal/player"
	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/song"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubResolver is an in-memory SongResolver.
type stubResolver struct {
	mu        sync.Mutex
	songs     map[string]song.Song
	durations map[string]time.Duration
}

func newStubResolver(songs ...song.Song) *stubResolver {
	r := &stubResolver{
		songs:     make(map[string]song.Song),
		durations: make(map[string]time.Duration),
	}
	for _, s := range songs {
		r.songs[s.ID] = s
	}
	return r
}

func (r *stubResolver) Get(id string) (song.Song, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.songs[id]
	return s, ok
}

func (r *stubResolver) SetDuration(id string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[id] = d
	if s, ok := r.songs[id]; ok {
		s.Duration = d
		r.songs[id] = s
	}
}

func blobSong(id string) song.Song {
	return song.Song{
		ID:     id,
		Name:   song.TitleFromFilename(id),
		Origin: song.OriginBlob,
		Source: song.Source{Kind: song.SourceBlob, Data: []byte("audio")},
	}
}

func newTestController(t *testing.T, songs ...song.Song) (*Controller, *player.Mock, *stubResolver) {
	t.Helper()
	p := player.NewMock()
	r := newStubResolver(songs...)
	c := New(p, queue.New(nil), r, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c, p, r
}

func TestPlayIndexPlaysBlobSource(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})

	if err := c.PlayIndex(context.Background(), 1); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	if p.State() != player.Playing {
		t.Fatalf("player state = %v", p.State())
	}
	calls := p.PlayCalls()
	if len(calls) != 1 || calls[0] != player.FormatMP3 {
		t.Fatalf("play calls = %v", calls)
	}
	if got, _ := c.Current(); got.ID != b.ID {
		t.Fatalf("current = %q, want %q", got.ID, b.ID)
	}
}

func TestPlayIndexOutOfRange(t *testing.T) {
	c, _, _ := newTestController(t, blobSong("a.mp3|5|blob"))
	c.Rebuild([]string{"a.mp3|5|blob"})

	if err := c.PlayIndex(context.Background(), 3); !errors.Is(err, queue.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestPlayIDPrependsWhenMissing(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	z := blobSong("z.mp3|5|blob")
	c, _, _ := newTestController(t, a, z)
	c.Rebuild([]string{a.ID})

	if err := c.PlayID(context.Background(), z.ID); err != nil {
		t.Fatalf("PlayID: %v", err)
	}
	ids := c.QueueIDs()
	if len(ids) != 2 || ids[0] != z.ID {
		t.Fatalf("queue = %v", ids)
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("index = %d", c.CurrentIndex())
	}
}

func TestPlayIDUnknownSong(t *testing.T) {
	c, _, _ := newTestController(t)

	if err := c.PlayID(context.Background(), "ghost.mp3|1"); !errors.Is(err, ErrUnknownSong) {
		t.Fatalf("err = %v, want ErrUnknownSong", err)
	}
}

func TestFileSourcePermissionFlow(t *testing.T) {
	h := fileaccess.NewMockHandle("track.flac", []byte("flacdata"))
	h.Permission = fileaccess.Prompt
	h.GrantOnRequest = true
	s := song.Song{
		ID:     "track.flac|8",
		Name:   "track",
		Source: song.Source{Kind: song.SourceFile, Path: "/music/track.flac", Handle: h},
	}
	c, p, _ := newTestController(t, s)
	c.Rebuild([]string{s.ID})

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	if h.RequestCalls() != 1 {
		t.Fatalf("request calls = %d, want 1", h.RequestCalls())
	}
	if h.OpenCalls() != 1 {
		t.Fatalf("open calls = %d, want 1", h.OpenCalls())
	}
	calls := p.PlayCalls()
	if len(calls) != 1 || calls[0] != player.FormatFLAC {
		t.Fatalf("play calls = %v", calls)
	}
}

func TestFileSourcePermissionDenied(t *testing.T) {
	h := fileaccess.NewMockHandle("track.mp3", nil)
	h.Permission = fileaccess.Denied
	s := song.Song{
		ID:     "track.mp3|0",
		Source: song.Source{Kind: song.SourceFile, Path: "/music/track.mp3", Handle: h},
	}
	c, p, _ := newTestController(t, s)
	c.Rebuild([]string{s.ID})

	err := c.PlayIndex(context.Background(), 0)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if len(p.PlayCalls()) != 0 {
		t.Fatal("player should not have been called")
	}
}

func TestNoSourceBinding(t *testing.T) {
	s := song.Song{ID: "empty.mp3|0"}
	c, _, _ := newTestController(t, s)
	c.Rebuild([]string{s.ID})

	if err := c.PlayIndex(context.Background(), 0); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}

	// A load carrying a generation older than the latest intent must
	// not reach the player.
	stale := c.gen - 1
	err := c.load(context.Background(), stale, b.ID, nil, -1)
	if !errors.Is(err, ErrStaleReference) {
		t.Fatalf("err = %v, want ErrStaleReference", err)
	}
	if len(p.PlayCalls()) != 1 {
		t.Fatalf("play calls = %d, want 1", len(p.PlayCalls()))
	}
}

func TestDurationCachedOnFirstPlay(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	c, p, r := newTestController(t, a)
	c.Rebuild([]string{a.ID})
	p.SetDuration(3 * time.Minute)

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	if d := r.durations[a.ID]; d != 3*time.Minute {
		t.Fatalf("cached duration = %v, want 3m", d)
	}
}

func TestPreviousRestartsLateInTrack(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})

	if err := c.PlayIndex(context.Background(), 1); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	p.SetPosition(10 * time.Second)

	if err := c.Previous(context.Background()); err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if c.CurrentIndex() != 1 {
		t.Fatalf("index = %d, want 1 (restart, not navigate)", c.CurrentIndex())
	}
	if p.Position() != 0 {
		t.Fatalf("position = %v, want 0", p.Position())
	}
}

func TestPreviousNavigatesEarlyInTrack(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})

	if err := c.PlayIndex(context.Background(), 1); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	p.SetPosition(time.Second)

	if err := c.Previous(context.Background()); err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", c.CurrentIndex())
	}
}

func TestNextPausesAtEndWithRepeatOff(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	c, p, _ := newTestController(t, a)
	c.Rebuild([]string{a.ID})

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	p.SetPosition(90 * time.Second)
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.State() != player.Paused {
		t.Fatalf("player state = %v, want Paused", p.State())
	}
	if p.Position() != 90*time.Second {
		t.Fatalf("position = %v, want 90s", p.Position())
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("cursor moved to %d", c.CurrentIndex())
	}
}

func TestNextAdvancesWithRepeatOne(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, _, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})
	c.SetRepeatMode(queue.RepeatOne)

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if cur, ok := c.Current(); !ok || cur.ID != b.ID {
		t.Fatalf("current = %+v, want %s", cur, b.ID)
	}
}

func TestNextAtEndWithRepeatOnePauses(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	c, p, _ := newTestController(t, a)
	c.Rebuild([]string{a.ID})
	c.SetRepeatMode(queue.RepeatOne)

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if p.State() != player.Paused {
		t.Fatalf("player state = %v, want Paused", p.State())
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("cursor moved to %d", c.CurrentIndex())
	}
}

func TestPreviousNavigatesWithRepeatOne(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})
	c.SetRepeatMode(queue.RepeatOne)

	if err := c.PlayIndex(context.Background(), 1); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	p.SetPosition(time.Second)
	if err := c.Previous(context.Background()); err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", c.CurrentIndex())
	}
}

func TestNextWrapsWithRepeatAll(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, _, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})
	c.SetRepeatMode(queue.RepeatAll)

	if err := c.PlayIndex(context.Background(), 1); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	if err := c.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", c.CurrentIndex())
	}
}

func TestAutoAdvanceOnFinish(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})
	sub := c.Subscribe()

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	drainEvents(sub)

	p.SimulateFinished()

	tr := awaitTrackChange(t, sub)
	if tr.Current == nil || tr.Current.ID != b.ID {
		t.Fatalf("advanced to %+v, want %s", tr.Current, b.ID)
	}
}

func TestFinishReplaysWithRepeatOne(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})
	c.SetRepeatMode(queue.RepeatOne)
	sub := c.Subscribe()

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	drainEvents(sub)

	p.SimulateFinished()

	tr := awaitTrackChange(t, sub)
	if tr.Current == nil || tr.Current.ID != a.ID {
		t.Fatalf("replayed %+v, want %s", tr.Current, a.ID)
	}
	if c.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", c.CurrentIndex())
	}
}

func awaitTrackChange(t *testing.T, sub *Subscription) TrackChange {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-sub.Events:
			if e.Track != nil {
				return *e.Track
			}
		case <-deadline:
			t.Fatal("no track change before deadline")
		}
	}
}

func drainEvents(sub *Subscription) {
	for {
		select {
		case <-sub.Events:
		default:
			return
		}
	}
}

func TestRemoveCurrentStopsPlayback(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	c.RemoveID(a.ID)

	if p.State() != player.Stopped {
		t.Fatalf("player state = %v, want Stopped", p.State())
	}
	if c.CurrentIndex() != -1 {
		t.Fatalf("index = %d, want -1", c.CurrentIndex())
	}
}

func TestRemoveOtherKeepsPlaying(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)
	c.Rebuild([]string{a.ID, b.ID})

	if err := c.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	c.RemoveID(b.ID)

	if p.State() != player.Playing {
		t.Fatalf("player state = %v, want Playing", p.State())
	}
	if got, _ := c.Current(); got.ID != a.ID {
		t.Fatalf("current = %q", got.ID)
	}
}

func TestRebuildPreservesPlayingSong(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	ccc := blobSong("c.mp3|5|blob")
	c, _, _ := newTestController(t, a, b, ccc)
	c.Rebuild([]string{a.ID, b.ID, ccc.ID})

	if err := c.PlayIndex(context.Background(), 1); err != nil {
		t.Fatalf("PlayIndex: %v", err)
	}
	c.Rebuild([]string{ccc.ID, b.ID, a.ID})

	if got, _ := c.Current(); got.ID != b.ID {
		t.Fatalf("current = %q, want %q", got.ID, b.ID)
	}
	if c.CurrentIndex() != 1 {
		t.Fatalf("index = %d, want 1", c.CurrentIndex())
	}
}

func TestCycleRepeatMode(t *testing.T) {
	c, _, _ := newTestController(t)

	if m := c.CycleRepeatMode(); m != queue.RepeatAll {
		t.Fatalf("mode = %v, want all", m)
	}
	if m := c.CycleRepeatMode(); m != queue.RepeatOne {
		t.Fatalf("mode = %v, want one", m)
	}
	if m := c.CycleRepeatMode(); m != queue.RepeatOff {
		t.Fatalf("mode = %v, want off", m)
	}
}

func TestRestoreDropsUnknownIDs(t *testing.T) {
	a := blobSong("a.mp3|5|blob")
	b := blobSong("b.mp3|5|blob")
	c, p, _ := newTestController(t, a, b)

	c.Restore([]string{"gone.mp3|1", a.ID, b.ID}, 1, queue.RepeatAll, true)

	ids := c.QueueIDs()
	if len(ids) != 2 {
		t.Fatalf("queue = %v", ids)
	}
	if got, _ := c.Current(); got.ID != a.ID {
		t.Fatalf("current = %q, want %q (cursor follows the focused id)", got.ID, a.ID)
	}
	if c.RepeatMode() != queue.RepeatAll || !c.Shuffle() {
		t.Fatal("modes not restored")
	}
	if p.State() != player.Stopped {
		t.Fatal("restore must not start playback")
	}
}

func TestSubscriptionClosedOnClose(t *testing.T) {
	p := player.NewMock()
	c := New(p, queue.New(nil), newStubResolver(), nil)
	sub := c.Subscribe()

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-sub.Done:
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	// Second close is a no-op.
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
