package playback

import (
	"github.com/llehouerou/vyra/internal/catalog"
)

// TrackChange is emitted when the transport begins playing a different
// track, and on restore.
type TrackChange struct {
	Previous *catalog.Track
	Current  *catalog.Track
	Index    int
}

// QueueChange is emitted when the queue contents or cursor change.
type QueueChange struct {
	Tracks []catalog.Track
	Index  int
}

// ModeChange is emitted when repeat, shuffle or autoplay changes.
type ModeChange struct {
	Repeat   RepeatMode
	Shuffle  bool
	Autoplay bool
}

// ErrorEvent is emitted when loading or playback fails.
type ErrorEvent struct {
	Kind  ErrorKind
	Track *catalog.Track
	Err   error
}
