package store

import (
	"encoding/json"
	"sync"

	"github.com/acavaille/stanza/internal/song"
)

// Mock is an in-memory test double for the store.
type Mock struct {
	mu        sync.Mutex
	songs     []song.Song
	playlists []Playlist
	prefs     map[string]string
	queue     *QueueState
	closed    bool

	// FailPuts makes every write return this error when set.
	FailPuts error
}

// NewMock creates a new empty mock store.
func NewMock() *Mock {
	return &Mock{prefs: make(map[string]string)}
}

func (m *Mock) GetSong(id string) (*song.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.songs {
		if m.songs[i].ID == id {
			s := m.songs[i]
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) AllSongs() ([]song.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]song.Song, len(m.songs))
	copy(out, m.songs)
	return out, nil
}

func (m *Mock) PutSong(s song.Song) error {
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.songs {
		if m.songs[i].ID == s.ID {
			m.songs[i] = s
			return nil
		}
	}
	m.songs = append(m.songs, s)
	return nil
}

func (m *Mock) DeleteSong(id string) error {
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.songs {
		if m.songs[i].ID == id {
			m.songs = append(m.songs[:i], m.songs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Mock) GetPlaylist(id string) (*Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.playlists {
		if m.playlists[i].ID == id {
			p := m.playlists[i]
			p.IDs = append([]string(nil), p.IDs...)
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mock) AllPlaylists() ([]Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Playlist, len(m.playlists))
	copy(out, m.playlists)
	return out, nil
}

func (m *Mock) PutPlaylist(p Playlist) error {
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.playlists {
		if m.playlists[i].ID == p.ID {
			m.playlists[i] = p
			return nil
		}
	}
	m.playlists = append(m.playlists, p)
	return nil
}

func (m *Mock) DeletePlaylist(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.playlists {
		if m.playlists[i].ID == id {
			m.playlists = append(m.playlists[:i], m.playlists[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Mock) GetPref(key string, dest any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.prefs[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), dest)
}

func (m *Mock) PutPref(key string, value any) error {
	if m.FailPuts != nil {
		return m.FailPuts
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.prefs[key] = string(raw)
	m.mu.Unlock()
	return nil
}

func (m *Mock) GetQueue() (*QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queue == nil {
		return &QueueState{CurrentIndex: -1}, nil
	}
	state := *m.queue
	state.IDs = append([]string(nil), state.IDs...)
	return &state, nil
}

func (m *Mock) SaveQueue(state QueueState) error {
	if m.FailPuts != nil {
		return m.FailPuts
	}
	m.mu.Lock()
	m.queue = &state
	m.mu.Unlock()
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

// IsClosed reports whether Close was called.
func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SavedQueue returns the last saved queue snapshot, or nil.
func (m *Mock) SavedQueue() *QueueState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
