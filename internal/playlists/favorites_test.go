package playlists

import (
	"errors"
	"testing"

	"github.com/acavaille/stanza/internal/store"
)

func TestToggleFavorite(t *testing.T) {
	st := store.NewMock()
	f, err := NewFavorites(st)
	if err != nil {
		t.Fatalf("NewFavorites: %v", err)
	}

	on, err := f.Toggle("a.mp3|1")
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v", on, err)
	}
	if !f.Has("a.mp3|1") {
		t.Fatal("Has = false after toggle on")
	}

	on, err = f.Toggle("a.mp3|1")
	if err != nil || on {
		t.Fatalf("second toggle = %v, %v", on, err)
	}
	if f.Has("a.mp3|1") {
		t.Fatal("Has = true after toggle off")
	}
}

func TestFavoritesPersistAcrossLoads(t *testing.T) {
	st := store.NewMock()
	f, _ := NewFavorites(st)
	_, _ = f.Toggle("a")
	_, _ = f.Toggle("b")

	reloaded, err := NewFavorites(st)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Has("a") || !reloaded.Has("b") || reloaded.Len() != 2 {
		t.Fatalf("reloaded set = %v", reloaded.Set())
	}
}

func TestFavoritesToggleWriteFailure(t *testing.T) {
	st := store.NewMock()
	f, _ := NewFavorites(st)
	_, _ = f.Toggle("a")

	st.FailPuts = errors.New("disk full")
	if _, err := f.Toggle("b"); err == nil {
		t.Fatal("expected write error")
	}
	st.FailPuts = nil

	if f.Has("b") {
		t.Fatal("failed toggle leaked into the set")
	}
	if !f.Has("a") {
		t.Fatal("existing favorite lost")
	}
}

func TestFavoritesRemove(t *testing.T) {
	st := store.NewMock()
	f, _ := NewFavorites(st)
	_, _ = f.Toggle("a")

	if err := f.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.Has("a") {
		t.Fatal("still favorited")
	}
	// Removing an absent id is a no-op.
	if err := f.Remove("ghost"); err != nil {
		t.Fatalf("Remove(ghost): %v", err)
	}
}
