package scope

import (
	"strings"

	"github.com/samber/lo"

	"github.com/acavaille/stanza/internal/song"
)

// Project maps (scope, library snapshot, search filter) to an ordered
// song list. The result is deterministic for a given input; shuffling
// is the queue's concern, never the projection's.
//
// The second return value lists playlist member ids that no longer
// resolve to a library song. They are dropped from the projection;
// callers should prune them from the stored playlist asynchronously.
func Project(s Scope, songs []song.Song, favorites map[string]struct{}, search string) ([]song.Song, []string) {
	var list []song.Song
	var dangling []string

	switch s.Kind {
	case Favorites:
		list = lo.Filter(songs, func(sg song.Song, _ int) bool {
			_, ok := favorites[sg.ID]
			return ok
		})
	case AlbumDetail:
		list = lo.Filter(songs, func(sg song.Song, _ int) bool {
			return strings.EqualFold(sg.Album, s.Name)
		})
	case ArtistDetail:
		list = lo.Filter(songs, func(sg song.Song, _ int) bool {
			return strings.EqualFold(sg.Artist, s.Name)
		})
	case PlaylistDetail:
		// The playlist's own order replaces library order entirely.
		byID := indexByID(songs)
		list = make([]song.Song, 0, len(s.IDs))
		for _, id := range s.IDs {
			if i, ok := byID[id]; ok {
				list = append(list, songs[i])
			} else {
				dangling = append(dangling, id)
			}
		}
	case SearchResults:
		byID := indexByID(songs)
		list = make([]song.Song, 0, len(s.IDs))
		for _, id := range s.IDs {
			if i, ok := byID[id]; ok {
				list = append(list, songs[i])
			}
		}
		return list, nil
	case All:
		list = songs
	default:
		// Malformed scope falls back to the whole library.
		list = songs
	}

	if search != "" {
		list = lo.Filter(list, func(sg song.Song, _ int) bool {
			return sg.MatchesSearch(search)
		})
	}
	return list, dangling
}

// IDs returns just the projected ids, in order.
func IDs(list []song.Song) []string {
	return lo.Map(list, func(sg song.Song, _ int) string { return sg.ID })
}

func indexByID(songs []song.Song) map[string]int {
	byID := make(map[string]int, len(songs))
	for i := range songs {
		byID[songs[i].ID] = i
	}
	return byID
}
