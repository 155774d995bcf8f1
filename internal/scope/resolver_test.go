package scope

import (
	"testing"

	"github.com/acavaille/stanza/internal/song"
)

var testSongs = []song.Song{
	{ID: "a", Name: "Alpha", Artist: "Ann", Album: "X"},
	{ID: "b", Name: "Beta", Artist: "Ann", Album: "X"},
	{ID: "c", Name: "Gamma", Artist: "Cy", Album: "Y"},
	{ID: "d", Name: "Delta", Artist: "Cy", Album: ""},
}

func projectedIDs(t *testing.T, s Scope, favorites map[string]struct{}, search string) []string {
	t.Helper()
	list, _ := Project(s, testSongs, favorites, search)
	return IDs(list)
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestProject_All(t *testing.T) {
	assertIDs(t, projectedIDs(t, AllScope(), nil, ""), []string{"a", "b", "c", "d"})
}

func TestProject_Favorites(t *testing.T) {
	favs := map[string]struct{}{"b": {}, "d": {}}
	assertIDs(t, projectedIDs(t, FavoritesScope(), favs, ""), []string{"b", "d"})
}

func TestProject_AlbumDetail(t *testing.T) {
	assertIDs(t, projectedIDs(t, Album("X"), nil, ""), []string{"a", "b"})
}

func TestProject_AlbumDetail_CaseInsensitive(t *testing.T) {
	assertIDs(t, projectedIDs(t, Album("x"), nil, ""), []string{"a", "b"})
}

func TestProject_AlbumDetail_EmptyNameMatchesEmptyAlbum(t *testing.T) {
	assertIDs(t, projectedIDs(t, Album(""), nil, ""), []string{"d"})
}

func TestProject_ArtistDetail(t *testing.T) {
	assertIDs(t, projectedIDs(t, Artist("Cy"), nil, ""), []string{"c", "d"})
}

func TestProject_PlaylistDetail_PreservesPlaylistOrder(t *testing.T) {
	// Playlist order differs from library insertion order.
	s := Playlist("pl1", []string{"c", "a", "b"})
	assertIDs(t, projectedIDs(t, s, nil, ""), []string{"c", "a", "b"})
}

func TestProject_PlaylistDetail_DropsDanglingIDs(t *testing.T) {
	s := Playlist("pl1", []string{"c", "gone", "a"})

	list, dangling := Project(s, testSongs, nil, "")
	assertIDs(t, IDs(list), []string{"c", "a"})
	assertIDs(t, dangling, []string{"gone"})
}

func TestProject_SearchResults_SubstitutesMatchList(t *testing.T) {
	s := Search([]string{"d", "b"})
	// The free-text filter must not be re-applied to the dedicated
	// search scope.
	assertIDs(t, projectedIDs(t, s, nil, "zzz"), []string{"d", "b"})
}

func TestProject_SearchComposesWithScope(t *testing.T) {
	assertIDs(t, projectedIDs(t, Album("X"), nil, "B"), []string{"b"})
}

func TestProject_SearchMatchesArtistAndAlbum(t *testing.T) {
	assertIDs(t, projectedIDs(t, AllScope(), nil, "ann"), []string{"a", "b"})
	// "y" hits both album "Y" and artist "Cy".
	assertIDs(t, projectedIDs(t, AllScope(), nil, "y"), []string{"c", "d"})
}

func TestProject_SearchComposesWithPlaylist(t *testing.T) {
	s := Playlist("pl1", []string{"c", "a", "b"})
	assertIDs(t, projectedIDs(t, s, nil, "beta"), []string{"b"})
}

func TestProject_UnknownKindFallsBackToAll(t *testing.T) {
	s := Scope{Kind: Kind(99)}
	assertIDs(t, projectedIDs(t, s, nil, ""), []string{"a", "b", "c", "d"})
}

func TestProject_NoFabricatedEntries(t *testing.T) {
	scopes := []Scope{
		AllScope(),
		FavoritesScope(),
		Album("X"),
		Artist("Ann"),
		Search([]string{"a", "nope"}),
	}
	valid := map[string]bool{"a": true, "b": true, "c": true, "d": true}
	favs := map[string]struct{}{"a": {}}

	for _, s := range scopes {
		list, _ := Project(s, testSongs, favs, "")
		for _, sg := range list {
			if !valid[sg.ID] {
				t.Errorf("scope %v fabricated id %q", s.Kind, sg.ID)
			}
		}
	}
}

func TestProject_Deterministic(t *testing.T) {
	first := projectedIDs(t, Album("X"), nil, "")
	second := projectedIDs(t, Album("X"), nil, "")
	assertIDs(t, second, first)
}
