package engine

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"

	"github.com/acavaille/stanza/internal/library"
	"github.com/acavaille/stanza/internal/playback"
	"github.com/acavaille/stanza/internal/player"
	"github.com/acavaille/stanza/internal/playlists"
	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/scope"
	"github.com/acavaille/stanza/internal/song"
	"github.com/acavaille/stanza/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	engine *Engine
	player *player.Mock
	store  *store.Mock
	lib    *library.Library
}

func testSong(filename, artist, album string) song.Song {
	data := []byte("audio-" + filename)
	return song.Song{
		ID:     song.MakeID(filename, int64(len(data)), song.OriginBlob),
		Name:   song.TitleFromFilename(filename),
		Artist: artist,
		Album:  album,
		Size:   int64(len(data)),
		Origin: song.OriginBlob,
		Source: song.Source{Kind: song.SourceBlob, Data: data},
	}
}

func newFixture(t *testing.T, songs ...song.Song) *fixture {
	t.Helper()
	st := store.NewMock()
	lib := library.New(st, nil)
	for _, s := range songs {
		if err := lib.Add(s); err != nil {
			t.Fatalf("add %s: %v", s.ID, err)
		}
	}
	pls, err := playlists.NewManager(st, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	favs, err := playlists.NewFavorites(st)
	if err != nil {
		t.Fatalf("NewFavorites: %v", err)
	}
	p := player.NewMock()
	ctrl := playback.New(p, queue.New(nil), lib, nil)
	t.Cleanup(func() { _ = ctrl.Close() })
	return &fixture{
		engine: New(lib, pls, favs, ctrl, st, nil),
		player: p,
		store:  st,
		lib:    lib,
	}
}

var (
	alpha = testSong("alpha.mp3", "Ann", "X")
	beta  = testSong("beta.mp3", "Ann", "X")
	gamma = testSong("gamma.mp3", "Cy", "Y")
)

func TestCurrentListAlbumScope(t *testing.T) {
	f := newFixture(t, alpha, beta, gamma)
	f.engine.SetScope(scope.Album("X"))

	list := f.engine.CurrentList()
	if len(list) != 2 || list[0].ID != alpha.ID || list[1].ID != beta.ID {
		t.Fatalf("list = %v", scope.IDs(list))
	}
}

func TestCurrentListPlaylistRefreshes(t *testing.T) {
	f := newFixture(t, alpha, beta)
	p, _ := f.engine.Playlists().Create("mix")
	f.engine.SetScope(scope.Playlist(p.ID, nil))

	if got := f.engine.CurrentList(); len(got) != 0 {
		t.Fatalf("list = %v", scope.IDs(got))
	}

	_ = f.engine.Playlists().AddSong(p.ID, beta.ID)
	got := f.engine.CurrentList()
	if len(got) != 1 || got[0].ID != beta.ID {
		t.Fatalf("list after add = %v", scope.IDs(got))
	}
}

func TestPlayByIDRebuildsFromList(t *testing.T) {
	f := newFixture(t, alpha, beta, gamma)
	f.engine.SetScope(scope.Album("X"))

	if err := f.engine.PlayByID(context.Background(), beta.ID); err != nil {
		t.Fatalf("PlayByID: %v", err)
	}
	ids := f.engine.Controller().QueueIDs()
	if len(ids) != 2 {
		t.Fatalf("queue = %v, want album scope only", ids)
	}
	if got, _ := f.engine.Controller().Current(); got.ID != beta.ID {
		t.Fatalf("current = %q", got.ID)
	}
}

func TestPlayByIDOutsideListPrepends(t *testing.T) {
	f := newFixture(t, alpha, beta, gamma)
	f.engine.SetScope(scope.Album("X"))

	if err := f.engine.PlayAll(context.Background()); err != nil {
		t.Fatalf("PlayAll: %v", err)
	}
	// gamma is album Y, outside the projected scope.
	if err := f.engine.PlayByID(context.Background(), gamma.ID); err != nil {
		t.Fatalf("PlayByID: %v", err)
	}
	ids := f.engine.Controller().QueueIDs()
	if len(ids) != 3 || ids[0] != gamma.ID {
		t.Fatalf("queue = %v, want gamma prepended", ids)
	}
}

func TestPlayIndexBounds(t *testing.T) {
	f := newFixture(t, alpha)

	if err := f.engine.PlayIndex(context.Background(), 5); !errors.Is(err, queue.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if err := f.engine.PlayIndex(context.Background(), 0); err != nil {
		t.Fatalf("PlayIndex(0): %v", err)
	}
}

func TestPlayAllEmptyListIsNoop(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.PlayAll(context.Background()); err != nil {
		t.Fatalf("PlayAll: %v", err)
	}
	if f.player.State() != player.Stopped {
		t.Fatal("player should stay stopped")
	}
}

func TestPlayPauseStates(t *testing.T) {
	f := newFixture(t, alpha, beta)

	// Idle queue: falls back to playing the whole list.
	if err := f.engine.PlayPause(context.Background()); err != nil {
		t.Fatalf("PlayPause: %v", err)
	}
	if f.player.State() != player.Playing {
		t.Fatalf("state = %v", f.player.State())
	}

	// Playing: pauses.
	if err := f.engine.PlayPause(context.Background()); err != nil {
		t.Fatalf("PlayPause: %v", err)
	}
	if f.player.State() != player.Paused {
		t.Fatalf("state = %v", f.player.State())
	}

	// Paused: resumes.
	if err := f.engine.PlayPause(context.Background()); err != nil {
		t.Fatalf("PlayPause: %v", err)
	}
	if f.player.State() != player.Playing {
		t.Fatalf("state = %v", f.player.State())
	}
}

func TestToggleShuffleKeepsCurrentSong(t *testing.T) {
	f := newFixture(t, alpha, beta, gamma)

	if err := f.engine.PlayByID(context.Background(), beta.ID); err != nil {
		t.Fatalf("PlayByID: %v", err)
	}
	if on := f.engine.ToggleShuffle(); !on {
		t.Fatal("shuffle should be on")
	}
	if got, _ := f.engine.Controller().Current(); got.ID != beta.ID {
		t.Fatalf("current = %q, want %q", got.ID, beta.ID)
	}
	if off := f.engine.ToggleShuffle(); off {
		t.Fatal("shuffle should be off")
	}
}

func TestDeleteSongEverywhere(t *testing.T) {
	f := newFixture(t, alpha, beta)
	p, _ := f.engine.Playlists().Create("mix")
	_ = f.engine.Playlists().AddSong(p.ID, alpha.ID)
	if _, err := f.engine.ToggleFavorite(alpha.ID); err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if err := f.engine.PlayByID(context.Background(), alpha.ID); err != nil {
		t.Fatalf("PlayByID: %v", err)
	}

	if err := f.engine.DeleteSong(alpha.ID); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}

	if f.lib.Has(alpha.ID) {
		t.Fatal("song still in library")
	}
	if f.engine.Favorites().Has(alpha.ID) {
		t.Fatal("song still favorited")
	}
	got, _ := f.engine.Playlists().Get(p.ID)
	if len(got.IDs) != 0 {
		t.Fatalf("playlist = %v", got.IDs)
	}
	if f.player.State() != player.Stopped {
		t.Fatal("playing deleted song not stopped")
	}
	if f.engine.Controller().CurrentIndex() != -1 {
		t.Fatal("cursor should be idle")
	}
}

func TestToggleFavoriteCurrent(t *testing.T) {
	f := newFixture(t, alpha)

	if _, err := f.engine.ToggleFavoriteCurrent(); err == nil {
		t.Fatal("expected error with nothing playing")
	}

	if err := f.engine.PlayByID(context.Background(), alpha.ID); err != nil {
		t.Fatalf("PlayByID: %v", err)
	}
	on, err := f.engine.ToggleFavoriteCurrent()
	if err != nil || !on {
		t.Fatalf("toggle = %v, %v", on, err)
	}
	if !f.engine.Favorites().Has(alpha.ID) {
		t.Fatal("song not favorited")
	}
}

func TestEditSongVisibleInProjection(t *testing.T) {
	f := newFixture(t, alpha)

	if err := f.engine.EditSong(alpha.ID, "renamed", "New Artist", "Z"); err != nil {
		t.Fatalf("EditSong: %v", err)
	}
	f.engine.SetScope(scope.Album("Z"))
	list := f.engine.CurrentList()
	if len(list) != 1 || list[0].Name != "renamed" {
		t.Fatalf("list = %+v", list)
	}

	if err := f.engine.EditSong("ghost", "x", "y", "z"); err == nil {
		t.Fatal("editing unknown song should fail")
	}
}

func TestSaveAndRestoreQueue(t *testing.T) {
	f := newFixture(t, alpha, beta)
	if err := f.engine.PlayByID(context.Background(), beta.ID); err != nil {
		t.Fatalf("PlayByID: %v", err)
	}
	f.engine.CycleRepeat()

	if err := f.engine.SaveQueue(); err != nil {
		t.Fatalf("SaveQueue: %v", err)
	}
	saved := f.store.SavedQueue()
	if saved == nil || len(saved.IDs) != 2 || saved.RepeatMode != int(queue.RepeatAll) {
		t.Fatalf("saved = %+v", saved)
	}

	// Fresh engine over the same store.
	f2 := newFixture(t, alpha, beta)
	_ = f2.store.SaveQueue(*saved)
	if err := f2.engine.RestoreQueue(); err != nil {
		t.Fatalf("RestoreQueue: %v", err)
	}
	if got, _ := f2.engine.Controller().Current(); got.ID != beta.ID {
		t.Fatalf("restored current = %q", got.ID)
	}
	if f2.engine.Controller().RepeatMode() != queue.RepeatAll {
		t.Fatal("repeat mode not restored")
	}
	if f2.player.State() != player.Stopped {
		t.Fatal("restore must not start playback")
	}
}

func TestSearchComposesWithScope(t *testing.T) {
	f := newFixture(t, alpha, beta, gamma)
	f.engine.SetScope(scope.Album("X"))
	f.engine.SetSearch("beta")

	list := f.engine.CurrentList()
	if len(list) != 1 || list[0].ID != beta.ID {
		t.Fatalf("list = %v", scope.IDs(list))
	}
}
