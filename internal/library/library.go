// Package library holds the in-memory mirror of the song collection.
// It is loaded once at startup from the store and is the source of
// truth for all scope projections. Mutations are written through to
// the store before the mirror is updated, so a successful return
// implies durability.
package library

import (
	"log/slog"
	"sort"
	"time"

	"github.com/acavaille/stanza/internal/fileaccess"
	"github.com/acavaille/stanza/internal/song"
	"github.com/acavaille/stanza/internal/store"
)

// Library mirrors the songs collection in insertion order.
type Library struct {
	st    store.Interface
	songs []song.Song
	byID  map[string]int
	log   *slog.Logger
}

// New creates an empty library over the given store.
func New(st store.Interface, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	return &Library{
		st:   st,
		byID: make(map[string]int),
		log:  log,
	}
}

// Load populates the mirror from the store. File-source songs are
// rebound to live handles through the provider; a failed rebind keeps
// the song (its source resolves as unavailable at play time).
func (l *Library) Load(provider fileaccess.Provider) error {
	songs, err := l.st.AllSongs()
	if err != nil {
		return err
	}

	l.songs = songs
	l.byID = make(map[string]int, len(songs))
	for i := range l.songs {
		s := &l.songs[i]
		l.byID[s.ID] = i
		if s.Source.Kind == song.SourceFile && provider != nil {
			h, err := provider.Acquire(s.Source.Path)
			if err != nil {
				l.log.Warn("could not reacquire file handle",
					"song", s.ID, "path", s.Source.Path, "error", err)
				continue
			}
			s.Source.Handle = h
		}
	}
	l.log.Info("library loaded", "songs", len(l.songs))
	return nil
}

// Get returns the song with the given id.
func (l *Library) Get(id string) (song.Song, bool) {
	i, ok := l.byID[id]
	if !ok {
		return song.Song{}, false
	}
	return l.songs[i], true
}

// Has reports whether id is a current member.
func (l *Library) Has(id string) bool {
	_, ok := l.byID[id]
	return ok
}

// All returns the songs in stable insertion order. The slice is a
// copy; the records share cover/data buffers with the mirror.
func (l *Library) All() []song.Song {
	out := make([]song.Song, len(l.songs))
	copy(out, l.songs)
	return out
}

// Len returns the number of songs.
func (l *Library) Len() int {
	return len(l.songs)
}

// Add persists a new song and appends it to the mirror. Adding an
// existing id updates the record in place instead.
func (l *Library) Add(s song.Song) error {
	if err := l.st.PutSong(s); err != nil {
		return err
	}
	if i, ok := l.byID[s.ID]; ok {
		l.songs[i] = s
		return nil
	}
	l.byID[s.ID] = len(l.songs)
	l.songs = append(l.songs, s)
	return nil
}

// Update persists an edited song and replaces the mirrored record,
// keeping its position.
func (l *Library) Update(s song.Song) error {
	i, ok := l.byID[s.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := l.st.PutSong(s); err != nil {
		return err
	}
	l.songs[i] = s
	return nil
}

// SetDuration caches a lazily probed duration on the record and
// persists it. Missing ids are ignored; by the time a probe finishes
// the song may already be deleted.
func (l *Library) SetDuration(id string, d time.Duration) {
	i, ok := l.byID[id]
	if !ok {
		return
	}
	l.songs[i].Duration = d
	if err := l.st.PutSong(l.songs[i]); err != nil {
		l.log.Warn("could not persist probed duration", "song", id, "error", err)
	}
}

// Remove deletes a song from the store and the mirror.
func (l *Library) Remove(id string) error {
	i, ok := l.byID[id]
	if !ok {
		return nil
	}
	if err := l.st.DeleteSong(id); err != nil {
		return err
	}
	l.songs = append(l.songs[:i], l.songs[i+1:]...)
	delete(l.byID, id)
	for j := i; j < len(l.songs); j++ {
		l.byID[l.songs[j].ID] = j
	}
	return nil
}

// AlbumGroup summarizes one album for grid views.
type AlbumGroup struct {
	Name   string // display name, NoAlbum sentinel for empty
	Artist string
	Count  int
	Cover  []byte // first cover found among members
}

// Albums groups songs by album, sorted by member count descending.
// Empty album names group under the NoAlbum sentinel.
func (l *Library) Albums() []AlbumGroup {
	order := make([]string, 0)
	groups := make(map[string]*AlbumGroup)
	for i := range l.songs {
		s := &l.songs[i]
		key := s.DisplayAlbum()
		g, ok := groups[key]
		if !ok {
			g = &AlbumGroup{Name: key, Artist: s.Artist}
			groups[key] = g
			order = append(order, key)
		}
		g.Count++
		if g.Cover == nil && s.Cover != nil {
			g.Cover = s.Cover
		}
	}

	out := make([]AlbumGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// ArtistGroup summarizes one artist.
type ArtistGroup struct {
	Name  string
	Count int
	Cover []byte
}

// Artists groups songs by artist, sorted by member count descending.
func (l *Library) Artists() []ArtistGroup {
	order := make([]string, 0)
	groups := make(map[string]*ArtistGroup)
	for i := range l.songs {
		s := &l.songs[i]
		key := s.DisplayArtist()
		g, ok := groups[key]
		if !ok {
			g = &ArtistGroup{Name: key}
			groups[key] = g
			order = append(order, key)
		}
		g.Count++
		if g.Cover == nil && s.Cover != nil {
			g.Cover = s.Cover
		}
	}

	out := make([]ArtistGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
