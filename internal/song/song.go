// Package song defines the library's core record: a song with metadata
// and exactly one source binding describing how its bytes are obtained.
package song

import (
	"fmt"
	"strings"
	"time"

	"github.com/acavaille/stanza/internal/fileaccess"
)

// Sentinels used when grouping songs with empty metadata. Detail scopes
// still match on the raw (empty) value, not on the sentinel.
const (
	NoAlbum  = "No album"
	NoArtist = "Unknown artist"
)

// Origin distinguishes the import pathway a song arrived through.
// It is part of the song's identity: the same physical file imported
// through a different pathway is a distinct record.
type Origin int

const (
	OriginHandle Origin = iota // imported as a file-system handle
	OriginBlob                 // imported as in-memory bytes
	OriginManual               // entered or relinked through the edit form
)

// String returns the origin tag used in composite IDs.
func (o Origin) String() string {
	switch o {
	case OriginHandle:
		return ""
	case OriginBlob:
		return "blob"
	case OriginManual:
		return "manual"
	default:
		return "unknown"
	}
}

// SourceKind identifies which binding variant is active.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceFile            // revocable file-system handle
	SourceBlob            // in-memory bytes
	SourceURL             // previously resolved locator
)

// String returns the kind name.
func (k SourceKind) String() string {
	switch k {
	case SourceNone:
		return "none"
	case SourceFile:
		return "file"
	case SourceBlob:
		return "blob"
	case SourceURL:
		return "url"
	default:
		return "unknown"
	}
}

// Source is the tagged binding union. Exactly one variant is populated
// per the active Kind; resolving playback requires it to be valid.
type Source struct {
	Kind SourceKind

	// Kind == SourceFile
	Path   string            // durable path, rebound to a handle each session
	Handle fileaccess.Handle // nil until rebound

	// Kind == SourceBlob
	Data []byte

	// Kind == SourceURL
	URL string
}

// IsZero reports whether no binding is present.
func (s Source) IsZero() bool {
	return s.Kind == SourceNone
}

// Song is a single library record.
type Song struct {
	ID       string
	Name     string
	Artist   string
	Album    string
	Duration time.Duration // 0 until lazily probed and cached
	Cover    []byte        // optional embedded image
	Size     int64
	Origin   Origin
	Source   Source
}

// MakeID derives the stable composite identity from filename, byte
// size and origin tag.
func MakeID(filename string, size int64, origin Origin) string {
	if tag := origin.String(); tag != "" {
		return fmt.Sprintf("%s|%d|%s", filename, size, tag)
	}
	return fmt.Sprintf("%s|%d", filename, size)
}

// Filename returns the original filename component of the composite ID.
func (s Song) Filename() string {
	if i := strings.Index(s.ID, "|"); i >= 0 {
		return s.ID[:i]
	}
	return s.ID
}

// DisplayAlbum returns the album name, or the NoAlbum sentinel when empty.
func (s Song) DisplayAlbum() string {
	if s.Album == "" {
		return NoAlbum
	}
	return s.Album
}

// DisplayArtist returns the artist name, or the NoArtist sentinel when empty.
func (s Song) DisplayArtist() string {
	if s.Artist == "" {
		return NoArtist
	}
	return s.Artist
}

// MatchesSearch reports whether the song matches a case-insensitive
// substring search over name, artist and album.
func (s Song) MatchesSearch(query string) bool {
	if query == "" {
		return true
	}
	haystack := strings.ToLower(s.Name + " " + s.Artist + " " + s.Album)
	return strings.Contains(haystack, strings.ToLower(query))
}

// TitleFromFilename strips the extension from a filename for use as a
// default song name.
func TitleFromFilename(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
