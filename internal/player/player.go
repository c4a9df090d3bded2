package player

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerRate is the output sample rate. Sources at other rates are
// resampled.
const SpeakerRate beep.SampleRate = 44100

const (
	progressInterval = 250 * time.Millisecond
	eventBuffer      = 64
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(SpeakerRate, SpeakerRate.N(time.Second/10))
	})
	return speakerErr
}

// BeepSink plays remote streams through the beep speaker.
//
// Lock order is s.mu before the speaker lock. Code running under the speaker
// lock (stream callbacks) never takes s.mu.
type BeepSink struct {
	logger *log.Logger
	client *http.Client

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current *loaded
	volume  float64
	bands   []Band

	events   chan Event
	seekChan chan seekRequest
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// loaded is the decoded source currently attached to the speaker.
type loaded struct {
	gen      uint64
	source   *httpSource
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	eq       *eqStage
	vol      *effects.Volume
	tail     *endWatch
}

// NewBeepSink creates a sink. client may be nil.
func NewBeepSink(logger *log.Logger, client *http.Client) *BeepSink {
	if client == nil {
		client = NewHTTPClient()
	}
	s := &BeepSink{
		logger:   logger.With("component", "player"),
		client:   client,
		volume:   1,
		events:   make(chan Event, eventBuffer),
		seekChan: make(chan seekRequest, 1),
		done:     make(chan struct{}),
	}
	s.wg.Add(2)
	go s.seekLoop()
	go s.progressLoop()
	return s
}

// Events returns the sink's event stream.
func (s *BeepSink) Events() <-chan Event { return s.events }

// HasSource reports whether a decoded source is attached.
func (s *BeepSink) HasSource() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Position returns the playback position of the attached source.
func (s *BeepSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *BeepSink) positionLocked() time.Duration {
	if s.current == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return s.current.format.SampleRate.D(s.current.streamer.Position())
}

// Duration returns the length of the attached source, or 0 when unknown.
func (s *BeepSink) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *BeepSink) durationLocked() time.Duration {
	if s.current == nil {
		return 0
	}
	return s.current.format.SampleRate.D(s.current.streamer.Len())
}

// Close stops playback and releases the sink's goroutines.
func (s *BeepSink) Close() error {
	s.once.Do(func() {
		s.Stop()
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// emit delivers an event unless the sink is closing.
func (s *BeepSink) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// emitLossy delivers an event only if there is room for it.
func (s *BeepSink) emitLossy(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *BeepSink) progressLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.current != nil {
				s.emitLossy(Event{
					Kind:       TimeProgressed,
					Generation: s.current.gen,
					Position:   s.positionLocked(),
					Duration:   s.durationLocked(),
				})
			}
			s.mu.Unlock()
		}
	}
}
