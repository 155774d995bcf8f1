// Package scope describes the active browsing context and projects it,
// together with the library and a free-text filter, onto an ordered
// song list. Exactly one scope is active at a time; the projection is
// the sole input to queue rebuilding.
package scope

// Kind tags the scope variant.
type Kind int

const (
	All Kind = iota
	Favorites
	AlbumDetail
	ArtistDetail
	PlaylistDetail
	SearchResults
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case All:
		return "all"
	case Favorites:
		return "favorites"
	case AlbumDetail:
		return "album"
	case ArtistDetail:
		return "artist"
	case PlaylistDetail:
		return "playlist"
	case SearchResults:
		return "search"
	default:
		return "unknown"
	}
}

// Scope is the tagged variant. Name carries the album or artist name
// for detail scopes; PlaylistID and IDs carry the playlist identity
// and its cached membership; IDs carries the precomputed match list
// for SearchResults.
type Scope struct {
	Kind       Kind
	Name       string
	PlaylistID string
	IDs        []string
}

// AllScope returns the default whole-library scope.
func AllScope() Scope {
	return Scope{Kind: All}
}

// FavoritesScope returns the favorites scope.
func FavoritesScope() Scope {
	return Scope{Kind: Favorites}
}

// Album returns a detail scope for one album name.
func Album(name string) Scope {
	return Scope{Kind: AlbumDetail, Name: name}
}

// Artist returns a detail scope for one artist name.
func Artist(name string) Scope {
	return Scope{Kind: ArtistDetail, Name: name}
}

// Playlist returns a detail scope for one playlist, with its
// membership cached at navigation time.
func Playlist(id string, ids []string) Scope {
	return Scope{Kind: PlaylistDetail, PlaylistID: id, IDs: ids}
}

// Search returns the dedicated global-search scope over a precomputed
// match list.
func Search(ids []string) Scope {
	return Scope{Kind: SearchResults, IDs: ids}
}
