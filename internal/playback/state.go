package playback

import "strings"

// State is the transport state.
type State int

const (
	StateIdle State = iota
	// StateReady has a current track but no loaded source, typically after
	// a session restore. TogglePlay resolves and resumes it.
	StateReady
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReady:
		return "Ready"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateEnded:
		return "Ended"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a source is loaded or loading.
func (s State) IsActive() bool {
	return s == StateLoading || s == StatePlaying || s == StatePaused
}

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the lowercase mode name, which is also its stored form.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// next returns the mode CycleRepeat moves to: off, all, one, off.
func (m RepeatMode) next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode parses a stored mode name. Unknown names are RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return RepeatAll
	case "one":
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ErrorKind classifies why loading or playback stopped.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorNotFound
	ErrorTimeout
	ErrorTransport
	ErrorPlaybackFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorNotFound:
		return "not_found"
	case ErrorTimeout:
		return "timeout"
	case ErrorTransport:
		return "transport"
	case ErrorPlaybackFailed:
		return "playback_failed"
	default:
		return "unknown"
	}
}

// Message returns the user-facing text for the error kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorNone:
		return ""
	case ErrorNotFound:
		return "This track is not available for playback."
	case ErrorTimeout:
		return "Loading the track took too long. Check your connection and try again."
	case ErrorTransport:
		return "Could not reach the music service."
	case ErrorPlaybackFailed:
		return "The audio stream could not be played."
	default:
		return "Playback error."
	}
}
