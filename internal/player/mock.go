// internal/player/mock.go
package player

import (
	"sync"
	"time"
)

// Mock is a test double for Sink. It records calls and lets tests inject
// events.
type Mock struct {
	mu        sync.Mutex
	loads     []Source
	loadErr   error
	playing   bool
	hasSource bool
	position  time.Duration
	duration  time.Duration
	volume    float64
	bands     []Band
	seeks     []time.Duration
	plays     int
	pauses    int
	stops     int
	events    chan Event
	closed    bool
}

// NewMock creates a new mock sink for testing.
func NewMock() *Mock {
	return &Mock{
		volume: 1,
		events: make(chan Event, 64),
	}
}

func (m *Mock) Load(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads = append(m.loads, src)
	if m.loadErr != nil {
		return m.loadErr
	}
	m.hasSource = false
	m.playing = false
	m.position = 0
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plays++
	m.playing = true
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	m.playing = false
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.playing = false
	m.hasSource = false
	m.position = 0
}

func (m *Mock) SeekFraction(f float64) {
	m.mu.Lock()
	d := m.duration
	m.mu.Unlock()
	m.SeekTo(time.Duration(f * float64(d)))
}

func (m *Mock) SeekTo(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seeks = append(m.seeks, d)
	m.position = d
}

func (m *Mock) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
}

func (m *Mock) SetEqualizer(bands []Band) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bands = append([]Band(nil), bands...)
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) HasSource() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasSource
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Loads returns every source passed to Load.
func (m *Mock) Loads() []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Source(nil), m.loads...)
}

// LastLoad returns the most recent source, or false if none.
func (m *Mock) LastLoad() (Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.loads) == 0 {
		return Source{}, false
	}
	return m.loads[len(m.loads)-1], true
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) Bands() []Band {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Band(nil), m.bands...)
}

func (m *Mock) PlayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

func (m *Mock) PauseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *Mock) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Emit injects an event.
func (m *Mock) Emit(ev Event) { m.events <- ev }

// EmitDataReady marks the source as buffered and emits DataReady for gen.
func (m *Mock) EmitDataReady(gen uint64, duration time.Duration) {
	m.mu.Lock()
	m.hasSource = true
	m.duration = duration
	m.mu.Unlock()
	m.Emit(Event{Kind: DataReady, Generation: gen, Duration: duration})
}

// EmitProgress emits TimeProgressed for gen and updates the position.
func (m *Mock) EmitProgress(gen uint64, pos, duration time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.duration = duration
	m.mu.Unlock()
	m.Emit(Event{Kind: TimeProgressed, Generation: gen, Position: pos, Duration: duration})
}

// EmitEnded emits Ended for gen.
func (m *Mock) EmitEnded(gen uint64) {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.Emit(Event{Kind: Ended, Generation: gen})
}

// EmitFailed emits Failed for gen.
func (m *Mock) EmitFailed(gen uint64, err error) {
	m.mu.Lock()
	m.hasSource = false
	m.playing = false
	m.mu.Unlock()
	m.Emit(Event{Kind: Failed, Generation: gen, Err: err})
}
