// internal/state/interface.go
package state

import "github.com/llehouerou/vyra/internal/catalog"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	SetMany(values map[string][]byte) error
	Delete(key string) error
	LoadTrackList(name string) ([]catalog.Track, error)
	SaveTrackList(name string, tracks []catalog.Track) error
	GetLastfmSession() (*LastfmSession, error)
	SaveLastfmSession(username, sessionKey string) error
	DeleteLastfmSession() error
	AddPendingScrobble(s PendingScrobble) error
	GetPendingScrobbles() ([]PendingScrobble, error)
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
	DeletePendingScrobble(id int64) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
