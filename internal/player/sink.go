// Package player adapts an audio output device to the playback engine.
//
// A Sink plays one remote source at a time. Every event it emits carries
// the generation of the Source it belongs to so the caller can discard
// events from a source it has already abandoned.
package player

import (
	"errors"
	"time"
)

// ErrUnsupportedFormat is returned when no decoder handles a source.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Source identifies a remote stream to load.
type Source struct {
	URL        string
	MimeType   string
	Generation uint64
}

// Band is one equalizer section. Gain is in dB.
type Band struct {
	Frequency float64
	Bandwidth float64
	Gain      float64
}

// EventKind enumerates sink events.
type EventKind int

const (
	DataReady EventKind = iota
	TimeProgressed
	Ended
	Failed
)

func (k EventKind) String() string {
	switch k {
	case DataReady:
		return "DataReady"
	case TimeProgressed:
		return "TimeProgressed"
	case Ended:
		return "Ended"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Event is emitted by a Sink.
type Event struct {
	Kind       EventKind
	Generation uint64
	Position   time.Duration
	Duration   time.Duration
	Err        error
}

// Sink is the audio output contract used by the transport.
// Load is asynchronous: it returns once buffering has started, and the
// outcome arrives later as DataReady or Failed. Sinks never retry.
type Sink interface {
	Load(src Source) error
	Play()
	Pause()
	Stop()
	SeekFraction(f float64)
	SeekTo(d time.Duration)
	SetVolume(v float64)
	SetEqualizer(bands []Band)
	Position() time.Duration
	Duration() time.Duration
	HasSource() bool
	Events() <-chan Event
	Close() error
}

var (
	_ Sink = (*BeepSink)(nil)
	_ Sink = (*Mock)(nil)
)
