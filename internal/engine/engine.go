// Package engine is the application's command surface. It owns the
// active scope and search text, projects them into song lists, and
// translates user intents into library, playlist and playback
// operations.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acavaille/stanza/internal/errmsg"
	"github.com/acavaille/stanza/internal/importer"
	"github.com/acavaille/stanza/internal/library"
	"github.com/acavaille/stanza/internal/playback"
	"github.com/acavaille/stanza/internal/playlists"
	"github.com/acavaille/stanza/internal/queue"
	"github.com/acavaille/stanza/internal/scope"
	"github.com/acavaille/stanza/internal/song"
	"github.com/acavaille/stanza/internal/store"
)

// Engine coordinates the library, playlists, favorites and playback
// controller behind one API. Scope and search state live here; the
// playing queue lives in the controller and is only rebuilt by play
// actions, so browsing never interrupts playback.
type Engine struct {
	lib  *library.Library
	pls  *playlists.Manager
	favs *playlists.Favorites
	ctrl *playback.Controller
	st   store.Interface
	log  *slog.Logger

	imp *importer.Importer

	scope      scope.Scope
	search     string
	seekOffset time.Duration
}

// New creates an engine starting in the all-songs scope.
func New(lib *library.Library, pls *playlists.Manager, favs *playlists.Favorites, ctrl *playback.Controller, st store.Interface, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		lib:        lib,
		pls:        pls,
		favs:       favs,
		ctrl:       ctrl,
		st:         st,
		log:        log,
		scope:      scope.AllScope(),
		seekOffset: 10 * time.Second,
	}
}

// SetImporter attaches an importer so import intents can go through
// the engine.
func (e *Engine) SetImporter(imp *importer.Importer) {
	e.imp = imp
}

// ImportFiles imports the given paths into the library.
func (e *Engine) ImportFiles(ctx context.Context, paths []string) (importer.Report, error) {
	if e.imp == nil {
		return importer.Report{}, fmt.Errorf("%s: no importer attached", errmsg.OpImportFile)
	}
	return e.imp.ImportFiles(ctx, paths), nil
}

// ImportBlob imports an in-memory file into the library.
func (e *Engine) ImportBlob(ctx context.Context, filename string, data []byte) (song.Song, bool, error) {
	if e.imp == nil {
		return song.Song{}, false, fmt.Errorf("%s: no importer attached", errmsg.OpImportBlob)
	}
	return e.imp.ImportBlob(ctx, filename, data)
}

// RelinkSong rebinds a song to a file on disk, replacing its current
// source binding.
func (e *Engine) RelinkSong(ctx context.Context, id, path string) error {
	if e.imp == nil {
		return fmt.Errorf("%s: no importer attached", errmsg.OpImportRelink)
	}
	return e.imp.Relink(ctx, id, path)
}

// SetSeekOffset sets the step used by SeekForward and SeekBackward.
func (e *Engine) SetSeekOffset(d time.Duration) {
	if d > 0 {
		e.seekOffset = d
	}
}

// Scope returns the active scope.
func (e *Engine) Scope() scope.Scope { return e.scope }

// Search returns the active search text.
func (e *Engine) Search() string { return e.search }

// SetScope switches the active scope. The playing queue is untouched
// until the next play action.
func (e *Engine) SetScope(s scope.Scope) {
	e.scope = s
}

// SetSearch updates the search text filtering the current scope.
func (e *Engine) SetSearch(text string) {
	e.search = text
}

// CurrentList projects the active scope and search into an ordered
// song list. Playlist scopes re-read their membership on every call,
// so edits show up immediately.
func (e *Engine) CurrentList() []song.Song {
	s := e.scope
	if s.Kind == scope.PlaylistDetail {
		if p, ok := e.pls.Get(s.PlaylistID); ok {
			s.IDs = p.IDs
		} else {
			s.IDs = nil
		}
	}
	songs, dangling := scope.Project(s, e.lib.All(), e.favs.Set(), e.search)
	if len(dangling) > 0 {
		e.log.Debug("dangling ids dropped from projection", "scope", s.Kind, "count", len(dangling))
	}
	return songs
}

// PlayByID rebuilds the queue from the current list and plays id. If
// id is outside the list (played from another view) it is prepended
// to the existing queue instead.
func (e *Engine) PlayByID(ctx context.Context, id string) error {
	list := e.CurrentList()
	inList := false
	for _, s := range list {
		if s.ID == id {
			inList = true
			break
		}
	}
	if inList {
		e.ctrl.Rebuild(scope.IDs(list))
	}
	if err := e.ctrl.PlayID(ctx, id); err != nil {
		e.log.Error(errmsg.FormatWith(errmsg.OpPlaybackStart, id, err))
		return err
	}
	return nil
}

// PlayIndex plays the song at the given position of the current list.
func (e *Engine) PlayIndex(ctx context.Context, index int) error {
	list := e.CurrentList()
	if index < 0 || index >= len(list) {
		return queue.ErrOutOfRange
	}
	return e.PlayByID(ctx, list[index].ID)
}

// PlayAll rebuilds the queue from the current list and starts at the
// top. With shuffle on, "the top" is the top of the shuffled order.
func (e *Engine) PlayAll(ctx context.Context) error {
	list := e.CurrentList()
	if len(list) == 0 {
		return nil
	}
	e.ctrl.Rebuild(scope.IDs(list))
	if err := e.ctrl.PlayIndex(ctx, 0); err != nil {
		e.log.Error(errmsg.Format(errmsg.OpPlaybackStart, err))
		return err
	}
	return nil
}

// PlayPause is the transport play control: it toggles active
// playback, restarts a stopped queue at its cursor, and falls back to
// playing the whole current list when the queue is idle.
func (e *Engine) PlayPause(ctx context.Context) error {
	if e.ctrl.State().IsActive() || e.ctrl.CurrentIndex() >= 0 {
		return e.ctrl.Toggle(ctx)
	}
	return e.PlayAll(ctx)
}

// Next skips to the following song.
func (e *Engine) Next(ctx context.Context) error {
	if err := e.ctrl.Next(ctx); err != nil {
		e.log.Error(errmsg.Format(errmsg.OpPlaybackNext, err))
		return err
	}
	return nil
}

// Previous restarts or goes back, per the restart threshold.
func (e *Engine) Previous(ctx context.Context) error {
	if err := e.ctrl.Previous(ctx); err != nil {
		e.log.Error(errmsg.Format(errmsg.OpPlaybackPrev, err))
		return err
	}
	return nil
}

// SeekForward seeks ahead by the configured offset.
func (e *Engine) SeekForward() { e.ctrl.Seek(e.seekOffset) }

// SeekBackward seeks back by the configured offset.
func (e *Engine) SeekBackward() { e.ctrl.Seek(-e.seekOffset) }

// ToggleShuffle flips shuffle mode and rebuilds the queue from the
// current list in the new order. The playing song keeps playing.
func (e *Engine) ToggleShuffle() bool {
	on := e.ctrl.ToggleShuffle()
	if e.ctrl.CurrentIndex() >= 0 || len(e.ctrl.QueueIDs()) > 0 {
		e.ctrl.Rebuild(scope.IDs(e.CurrentList()))
	}
	return on
}

// CycleRepeat advances the repeat mode and returns the new one.
func (e *Engine) CycleRepeat() queue.RepeatMode {
	return e.ctrl.CycleRepeatMode()
}

// ToggleFavorite flips a song's favorite status.
func (e *Engine) ToggleFavorite(id string) (bool, error) {
	on, err := e.favs.Toggle(id)
	if err != nil {
		e.log.Error(errmsg.FormatWith(errmsg.OpFavoriteToggle, id, err))
		return on, err
	}
	return on, nil
}

// ToggleFavoriteCurrent flips the playing song's favorite status.
func (e *Engine) ToggleFavoriteCurrent() (bool, error) {
	s, ok := e.ctrl.Current()
	if !ok {
		return false, fmt.Errorf("%s: nothing playing", errmsg.OpFavoriteToggle)
	}
	return e.ToggleFavorite(s.ID)
}

// EditSong updates a song's metadata. Identity and source binding are
// untouched; use the importer to relink sources.
func (e *Engine) EditSong(id, name, artist, album string) error {
	s, ok := e.lib.Get(id)
	if !ok {
		return fmt.Errorf("%s: unknown song %s", errmsg.OpLibraryEdit, id)
	}
	s.Name = name
	s.Artist = artist
	s.Album = album
	if err := e.lib.Update(s); err != nil {
		e.log.Error(errmsg.FormatWith(errmsg.OpLibraryEdit, id, err))
		return err
	}
	return nil
}

// DeleteSong removes a song everywhere: playback queue first (so a
// playing song stops), then the library, favorites and playlists.
func (e *Engine) DeleteSong(id string) error {
	e.ctrl.RemoveID(id)
	if err := e.lib.Remove(id); err != nil {
		e.log.Error(errmsg.FormatWith(errmsg.OpLibraryDelete, id, err))
		return err
	}
	if err := e.favs.Remove(id); err != nil {
		return err
	}
	if err := e.pls.Prune(id); err != nil {
		return err
	}
	return nil
}

// SaveQueue persists the playing queue and modes.
func (e *Engine) SaveQueue() error {
	ids, index, repeat, shuffle := e.ctrl.Snapshot()
	err := e.st.SaveQueue(store.QueueState{
		CurrentIndex: index,
		RepeatMode:   int(repeat),
		Shuffle:      shuffle,
		IDs:          ids,
	})
	if err != nil {
		e.log.Error(errmsg.Format(errmsg.OpQueueSave, err))
	}
	return err
}

// RestoreQueue reloads the persisted queue without starting playback.
func (e *Engine) RestoreQueue() error {
	state, err := e.st.GetQueue()
	if err != nil {
		e.log.Error(errmsg.Format(errmsg.OpQueueLoad, err))
		return err
	}
	e.ctrl.Restore(state.IDs, state.CurrentIndex, queue.RepeatMode(state.RepeatMode), state.Shuffle)
	return nil
}

// Library exposes the song collection to the presentation layer.
func (e *Engine) Library() *library.Library { return e.lib }

// Playlists exposes playlist management to the presentation layer.
func (e *Engine) Playlists() *playlists.Manager { return e.pls }

// Favorites exposes the favorites set to the presentation layer.
func (e *Engine) Favorites() *playlists.Favorites { return e.favs }

// Controller exposes the playback controller to the presentation
// layer and host surfaces.
func (e *Engine) Controller() *playback.Controller { return e.ctrl }
