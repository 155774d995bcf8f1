// Package store provides durable persistence for the three library
// collections: songs, playlists and prefs. Each operation is atomic
// over one collection; writes are write-through with no batching.
package store

import (
	"errors"

	"github.com/acavaille/stanza/internal/song"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// FavoritesKey is the prefs key holding the favorites id set.
const FavoritesKey = "favorites"

// Playlist is a persisted playlist record. IDs is the ordered song
// membership; order is playback order when the playlist is the active
// scope.
type Playlist struct {
	ID    string
	Name  string
	Image []byte
	IDs   []string
}

// QueueState is the persisted playback queue snapshot.
type QueueState struct {
	CurrentIndex int
	RepeatMode   int
	Shuffle      bool
	IDs          []string
}

// Interface defines the store contract for dependency injection and testing.
type Interface interface {
	// songs collection
	GetSong(id string) (*song.Song, error)
	AllSongs() ([]song.Song, error)
	PutSong(s song.Song) error
	DeleteSong(id string) error

	// playlists collection
	GetPlaylist(id string) (*Playlist, error)
	AllPlaylists() ([]Playlist, error)
	PutPlaylist(p Playlist) error
	DeletePlaylist(id string) error

	// prefs collection (JSON values under string keys)
	GetPref(key string, dest any) (bool, error)
	PutPref(key string, value any) error

	// queue snapshot
	GetQueue() (*QueueState, error)
	SaveQueue(state QueueState) error

	Close() error
}
