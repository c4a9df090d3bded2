// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog operations
	OpTrackLoad      Op = "load track"
	OpCollectionLoad Op = "load playlist"
	OpRadioLoad      Op = "load related tracks"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpSessionSave   Op = "save session"
	OpSessionLoad   Op = "restore session"

	// Library operations
	OpLikeToggle  Op = "update liked tracks"
	OpCacheRemove Op = "remove cached audio"
	OpCacheClear  Op = "clear audio cache"

	// Download operations
	OpDownloadTrack  Op = "download track"
	OpDownloadRemove Op = "remove download"

	// Equalizer
	OpEqualizerSave Op = "save equalizer"

	// Scrobbling
	OpScrobble   Op = "scrobble"
	OpNowPlaying Op = "update now playing"
	OpLastfmAuth Op = "authenticate with Last.fm"

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
