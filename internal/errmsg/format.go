// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryLoad   Op = "load library"
	OpLibraryEdit   Op = "edit song"
	OpLibraryDelete Op = "delete song from library"

	// Import operations
	OpImportFile   Op = "import file"
	OpImportBlob   Op = "import audio data"
	OpImportRelink Op = "relink song file"

	// Playlist operations
	OpPlaylistCreate  Op = "create playlist"
	OpPlaylistRename  Op = "rename playlist"
	OpPlaylistDelete  Op = "delete playlist"
	OpPlaylistAddSong Op = "add song to playlist"
	OpPlaylistRemove  Op = "remove song from playlist"
	OpPlaylistMove    Op = "move playlist entry"
	OpPlaylistImage   Op = "set playlist image"

	// Queue operations
	OpQueueLoad Op = "restore queue"
	OpQueueSave Op = "save queue"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackNext  Op = "skip to next song"
	OpPlaybackPrev  Op = "skip to previous song"
	OpPlaybackSeek  Op = "seek"

	// Favorites
	OpFavoriteToggle Op = "update favorites"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
