// internal/state/mock.go
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu      sync.Mutex
	kv      map[string][]byte
	lists   map[string][]catalog.Track
	session *LastfmSession
	pending []PendingScrobble
	nextID  int64
	setErr  error
	writes  int
	closed  bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{
		kv:    make(map[string][]byte),
		lists: make(map[string][]catalog.Track),
	}
}

func (m *Mock) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Mock) Set(key string, value []byte) error {
	return m.SetMany(map[string][]byte{key: value})
}

func (m *Mock) SetMany(values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.writes++
	for k, v := range values {
		m.kv[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *Mock) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *Mock) LoadTrackList(name string) ([]catalog.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return catalog.CloneTracks(m.lists[name]), nil
}

func (m *Mock) SaveTrackList(name string, tracks []catalog.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.writes++
	m.lists[name] = catalog.CloneTracks(tracks)
	return nil
}

func (m *Mock) GetLastfmSession() (*LastfmSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil //nolint:nilnil // nil session means not linked
	}
	s := *m.session
	return &s, nil
}

func (m *Mock) SaveLastfmSession(username, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &LastfmSession{Username: username, SessionKey: sessionKey, LinkedAt: time.Now()}
	return nil
}

func (m *Mock) DeleteLastfmSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *Mock) AddPendingScrobble(s PendingScrobble) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	m.pending = append(m.pending, s)
	return nil
}

func (m *Mock) GetPendingScrobbles() ([]PendingScrobble, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PendingScrobble(nil), m.pending...), nil
}

func (m *Mock) UpdatePendingScrobbleAttempt(id int64, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pending {
		if m.pending[i].ID == id {
			m.pending[i].Attempts++
			m.pending[i].LastError = errMsg
			return nil
		}
	}
	return errors.New("no such scrobble")
}

func (m *Mock) DeletePendingScrobble(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pending {
		if m.pending[i].ID == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// SetWriteError makes subsequent writes fail with err.
func (m *Mock) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// Writes counts successful SetMany and SaveTrackList calls.
func (m *Mock) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
