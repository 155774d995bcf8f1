package player

import (
	"path/filepath"
	"strings"
)

// Format identifies the codec of an audio source. Sources are decoded
// from a stream, not a path, so the caller names the format explicitly.
type Format string

const (
	FormatUnknown Format = ""
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatWAV     Format = "wav"
	FormatVorbis  Format = "ogg"
)

// FormatForFilename maps a file name to its audio format by extension.
func FormatForFilename(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return FormatMP3
	case ".flac":
		return FormatFLAC
	case ".wav", ".wave":
		return FormatWAV
	case ".ogg", ".oga":
		return FormatVorbis
	default:
		return FormatUnknown
	}
}

// FormatForMIME maps a MIME type to its audio format. Blob sources
// carry a MIME type instead of a file name.
func FormatForMIME(mime string) Format {
	// Strip parameters like "; codecs=..."
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mime)) {
	case "audio/mpeg", "audio/mp3":
		return FormatMP3
	case "audio/flac", "audio/x-flac":
		return FormatFLAC
	case "audio/wav", "audio/x-wav", "audio/wave":
		return FormatWAV
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return FormatVorbis
	default:
		return FormatUnknown
	}
}
