// Package playback is the transport: it owns what is audible, what plays
// next and how a track identifier becomes a loaded source.
package playback

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/player"
	"github.com/llehouerou/vyra/internal/session"
	"github.com/llehouerou/vyra/internal/stream"
)

// Defaults for Options fields left at zero.
const (
	DefaultLoadTimeout      = 10 * time.Second
	DefaultSaveInterval     = 5 * time.Second
	DefaultRestartThreshold = 3 * time.Second
)

var (
	// ErrClosed is returned by intents issued after Close.
	ErrClosed = errors.New("playback service closed")
	// ErrInvalidIndex is returned when a queue index is out of range.
	ErrInvalidIndex = errors.New("queue index out of range")
)

// SessionStore saves and restores the listening session.
type SessionStore interface {
	Save(snap session.Snapshot) error
	Load() (*session.Snapshot, error)
}

// Options configures a Service. Sink and Resolver are required.
type Options struct {
	Sink     player.Sink
	Resolver stream.Resolver
	Sessions SessionStore        // optional
	Radio    catalog.RadioSource // optional, used when autoplay is on
	Listener Listener            // optional
	Logger   *log.Logger

	// LoadTimeout bounds the time from sink.Load to DataReady.
	LoadTimeout time.Duration
	// SaveInterval is the session save period. Negative disables the ticker.
	SaveInterval time.Duration
	// RestartThreshold is the position past which Previous restarts the
	// current track instead of moving back.
	RestartThreshold time.Duration
	Autoplay         bool
	// Intn picks shuffle indices. Defaults to math/rand/v2.
	Intn func(n int) int
}

// Service defines the playback service contract.
type Service interface {
	// State queries
	Facts() Facts
	Queue() ([]catalog.Track, int)

	// Queue intents
	Play(track catalog.Track) error
	PlayQueue(tracks []catalog.Track, start int) error
	PlayAt(index int) error
	Enqueue(tracks ...catalog.Track) error
	ClearQueue() error

	// Queue history
	Undo() bool
	Redo() bool

	// Playback control
	TogglePlay() error
	Pause() error
	Resume() error
	Next() error
	Previous() error
	Seek(fraction float64) error
	SeekTo(position time.Duration) error
	SetVolume(v float64) error
	ClearError() error

	// Mode control
	ToggleShuffle() bool
	SetShuffle(enabled bool)
	CycleRepeat() RepeatMode
	SetRepeatMode(mode RepeatMode)
	SetAutoplay(enabled bool)

	// Session
	Restore() error
	SaveSession() error

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
