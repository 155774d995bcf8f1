package playlists

import (
	"fmt"
	"sync"

	"github.com/acavaille/stanza/internal/store"
)

// Favorites is the persistent favorites id set, stored as a pref
// rather than a playlist so it cannot be renamed or deleted.
type Favorites struct {
	mu  sync.Mutex
	st  store.Interface
	ids map[string]struct{}
}

// NewFavorites loads the favorites set from the store.
func NewFavorites(st store.Interface) (*Favorites, error) {
	f := &Favorites{
		st:  st,
		ids: make(map[string]struct{}),
	}
	var stored []string
	if _, err := st.GetPref(store.FavoritesKey, &stored); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	for _, id := range stored {
		f.ids[id] = struct{}{}
	}
	return f, nil
}

// Has reports whether songID is favorited.
func (f *Favorites) Has(songID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[songID]
	return ok
}

// Toggle flips songID's favorite status and returns the new status.
func (f *Favorites) Toggle(songID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, had := f.ids[songID]
	next := make(map[string]struct{}, len(f.ids)+1)
	for id := range f.ids {
		next[id] = struct{}{}
	}
	if had {
		delete(next, songID)
	} else {
		next[songID] = struct{}{}
	}

	if err := f.persistLocked(next); err != nil {
		return had, err
	}
	f.ids = next
	return !had, nil
}

// Remove drops songID from the set. Called when a song leaves the
// library.
func (f *Favorites) Remove(songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.ids[songID]; !ok {
		return nil
	}
	next := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		if id != songID {
			next[id] = struct{}{}
		}
	}
	if err := f.persistLocked(next); err != nil {
		return err
	}
	f.ids = next
	return nil
}

// Set returns the favorites as a lookup set.
func (f *Favorites) Set() map[string]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		out[id] = struct{}{}
	}
	return out
}

// Len returns the number of favorited songs.
func (f *Favorites) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

// persistLocked requires f.mu held.
func (f *Favorites) persistLocked(ids map[string]struct{}) error {
	stored := make([]string, 0, len(ids))
	for id := range ids {
		stored = append(stored, id)
	}
	return f.st.PutPref(store.FavoritesKey, stored)
}
