// Package playlists manages user playlists and the favorites set on
// top of the store. Mutations are write-through: the store write
// happens before the in-memory mirror is updated.
package playlists

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/acavaille/stanza/internal/store"
)

// ErrNotFound is returned when a playlist does not exist.
var ErrNotFound = errors.New("playlists: not found")

// Manager holds all playlists in memory, mirrored from the store.
type Manager struct {
	mu   sync.Mutex
	st   store.Interface
	byID map[string]store.Playlist
	log  *slog.Logger
}

// NewManager creates a manager and loads existing playlists.
func NewManager(st store.Interface, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		st:   st,
		byID: make(map[string]store.Playlist),
		log:  log,
	}
	existing, err := st.AllPlaylists()
	if err != nil {
		return nil, fmt.Errorf("load playlists: %w", err)
	}
	for _, p := range existing {
		m.byID[p.ID] = p
	}
	return m, nil
}

// Create makes a new empty playlist and returns it.
func (m *Manager) Create(name string) (store.Playlist, error) {
	p := store.Playlist{
		ID:   uuid.NewString(),
		Name: name,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.st.PutPlaylist(p); err != nil {
		return store.Playlist{}, err
	}
	m.byID[p.ID] = p
	m.log.Debug("playlist created", "id", p.ID, "name", name)
	return p, nil
}

// Get returns a playlist by id.
func (m *Manager) Get(id string) (store.Playlist, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	return clone(p), ok
}

// All returns every playlist sorted by name, case-insensitively.
func (m *Manager) All() []store.Playlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.Playlist, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Rename changes a playlist's name.
func (m *Manager) Rename(id, name string) error {
	return m.update(id, func(p *store.Playlist) { p.Name = name })
}

// SetImage replaces a playlist's cover image. A nil image clears it.
func (m *Manager) SetImage(id string, image []byte) error {
	return m.update(id, func(p *store.Playlist) { p.Image = image })
}

// Delete removes a playlist.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := m.st.DeletePlaylist(id); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

// AddSong appends songID to the playlist unless already present.
func (m *Manager) AddSong(id, songID string) error {
	return m.update(id, func(p *store.Playlist) {
		if lo.Contains(p.IDs, songID) {
			return
		}
		p.IDs = append(p.IDs, songID)
	})
}

// RemoveSong drops songID from the playlist.
func (m *Manager) RemoveSong(id, songID string) error {
	return m.update(id, func(p *store.Playlist) {
		p.IDs = lo.Without(p.IDs, songID)
	})
}

// MoveSong moves the entry at from to position to, clamping both to
// the membership bounds.
func (m *Manager) MoveSong(id string, from, to int) error {
	return m.update(id, func(p *store.Playlist) {
		n := len(p.IDs)
		if n == 0 {
			return
		}
		from = clamp(from, n)
		to = clamp(to, n)
		if from == to {
			return
		}
		moved := p.IDs[from]
		rest := append(append([]string{}, p.IDs[:from]...), p.IDs[from+1:]...)
		p.IDs = append(append(append([]string{}, rest[:to]...), moved), rest[to:]...)
	})
}

// Prune removes songID from every playlist that contains it. Called
// when a song is deleted from the library.
func (m *Manager) Prune(songID string) error {
	m.mu.Lock()
	ids := make([]string, 0)
	for id, p := range m.byID {
		if lo.Contains(p.IDs, songID) {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.RemoveSong(id, songID); err != nil {
			return err
		}
	}
	return nil
}

// update applies fn to a copy of the playlist, persists it, then
// swaps the mirror.
func (m *Manager) update(id string, fn func(*store.Playlist)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := clone(p)
	fn(&next)
	if err := m.st.PutPlaylist(next); err != nil {
		return err
	}
	m.byID[id] = next
	return nil
}

func clone(p store.Playlist) store.Playlist {
	p.IDs = append([]string(nil), p.IDs...)
	return p
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
