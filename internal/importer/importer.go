// Package importer adds audio files to the library. Metadata comes
// from embedded tags when readable, with filename fallbacks, and
// identity is the composite filename-size id so re-importing the same
// file is a no-op.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dhowden/tag"

	"github.com/acavaille/stanza/internal/fileaccess"
	"github.com/acavaille/stanza/internal/library"
	"github.com/acavaille/stanza/internal/player"
	"github.com/acavaille/stanza/internal/song"
)

// Importer imports songs into a library.
type Importer struct {
	lib      *library.Library
	provider fileaccess.Provider
	log      *slog.Logger
	probe    bool
}

// New creates an importer. provider resolves paths to file handles.
func New(lib *library.Library, provider fileaccess.Provider, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{lib: lib, provider: provider, log: log}
}

// SetProbeDurations makes imports decode each file to record its
// length up front instead of leaving it to the first play.
func (imp *Importer) SetProbeDurations(enabled bool) {
	imp.probe = enabled
}

// ImportFile imports the file at path through a file-system handle.
// Returns the resulting song and whether it was newly added; an
// already known id returns the existing record untouched.
func (imp *Importer) ImportFile(ctx context.Context, path string) (song.Song, bool, error) {
	h, err := imp.provider.Acquire(path)
	if err != nil {
		return song.Song{}, false, fmt.Errorf("acquire %s: %w", path, err)
	}

	perm := h.QueryPermission(ctx)
	if perm == fileaccess.Prompt {
		perm = h.RequestPermission(ctx)
	}
	if perm != fileaccess.Granted {
		return song.Song{}, false, fmt.Errorf("import %s: permission %s", path, perm)
	}

	id := song.MakeID(h.Name(), h.Size(), song.OriginHandle)
	if existing, ok := imp.lib.Get(id); ok {
		imp.log.Debug("import skipped, already known", "id", id)
		return existing, false, nil
	}

	rc, err := h.Open(ctx)
	if err != nil {
		return song.Song{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	s := imp.buildSong(rc, h.Name(), h.Size(), song.OriginHandle)
	rc.Close()

	s.Source = song.Source{Kind: song.SourceFile, Path: path, Handle: h}
	if err := imp.lib.Add(s); err != nil {
		return song.Song{}, false, err
	}

	if imp.probe {
		imp.probeHandle(ctx, s.ID, h)
	}
	return s, true, nil
}

// ImportBlob imports in-memory bytes under the given filename.
func (imp *Importer) ImportBlob(_ context.Context, filename string, data []byte) (song.Song, bool, error) {
	id := song.MakeID(filename, int64(len(data)), song.OriginBlob)
	if existing, ok := imp.lib.Get(id); ok {
		imp.log.Debug("import skipped, already known", "id", id)
		return existing, false, nil
	}

	s := imp.buildSong(bytes.NewReader(data), filename, int64(len(data)), song.OriginBlob)
	s.Source = song.Source{Kind: song.SourceBlob, Data: data}

	if imp.probe {
		if d, err := player.ProbeDuration(nopCloser{bytes.NewReader(data)}, player.FormatForFilename(filename)); err == nil {
			s.Duration = d
		}
	}

	if err := imp.lib.Add(s); err != nil {
		return song.Song{}, false, err
	}
	return s, true, nil
}

// Relink points an existing song at a new file, for recovering songs
// whose original source is gone. Identity does not change.
func (imp *Importer) Relink(ctx context.Context, id, path string) error {
	s, ok := imp.lib.Get(id)
	if !ok {
		return fmt.Errorf("relink: unknown song %s", id)
	}
	h, err := imp.provider.Acquire(path)
	if err != nil {
		return fmt.Errorf("relink %s: %w", id, err)
	}
	s.Source = song.Source{Kind: song.SourceFile, Path: path, Handle: h}
	return imp.lib.Update(s)
}

// buildSong reads embedded tags from r, falling back to the filename
// for the title when the tags are missing or unreadable.
func (imp *Importer) buildSong(r io.ReadSeeker, filename string, size int64, origin song.Origin) song.Song {
	s := song.Song{
		ID:     song.MakeID(filename, size, origin),
		Name:   song.TitleFromFilename(filename),
		Size:   size,
		Origin: origin,
	}

	meta, err := tag.ReadFrom(r)
	if err != nil {
		imp.log.Debug("no readable tags", "file", filename, "error", err)
		return s
	}
	if t := meta.Title(); t != "" {
		s.Name = t
	}
	s.Artist = meta.Artist()
	s.Album = meta.Album()
	if pic := meta.Picture(); pic != nil {
		s.Cover = pic.Data
	}
	return s
}

func (imp *Importer) probeHandle(ctx context.Context, id string, h fileaccess.Handle) {
	rc, err := h.Open(ctx)
	if err != nil {
		return
	}
	d, err := player.ProbeDuration(rc, player.FormatForFilename(h.Name()))
	if err != nil {
		imp.log.Debug("duration probe failed", "id", id, "error", err)
		return
	}
	imp.lib.SetDuration(id, d)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
